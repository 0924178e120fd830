package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyHeader names the client-chosen key for a retried POST
const IdempotencyHeader = "Idempotency-Key"

// maxIdempotentBody bounds the request bytes hashed into the cache key
const maxIdempotentBody = 1 << 20

// IdempotencyStore remembers responses to POST requests that carried an
// Idempotency-Key so a retry replays the first answer instead of creating
// a second recipe.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type idempotencyEntry struct {
	status    int
	header    http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{}
	ok        bool
}

// IdempotencyConfig holds configuration for the idempotency store
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep results (default 24h)
	Cleanup time.Duration // Sweep interval (default 1h)
}

// NewIdempotencyStore creates a new idempotency store and starts its sweeper
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}

	s := &IdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     cfg.TTL,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.sweep(cfg.Cleanup)
	return s
}

// Stop ends the background sweep. It is safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *IdempotencyStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expire()
		case <-s.stop:
			return
		}
	}
}

func (s *IdempotencyStore) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if e.ok && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// Len reports how many keys are held
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// claim returns the entry for key and whether the caller owns it. A
// non-owner waits on entry.done before reading it.
func (s *IdempotencyStore) claim(key string) (*idempotencyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		select {
		case <-e.done:
			if e.ok && e.expiresAt.After(s.now()) {
				return e, false
			}
		default:
			return e, false
		}
	}

	e := &idempotencyEntry{done: make(chan struct{})}
	s.entries[key] = e
	return e, true
}

// finish records the response. Server errors are forgotten so a retry runs
// the handler again.
func (s *IdempotencyStore) finish(key string, e *idempotencyEntry, rec *recordingWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.status >= http.StatusInternalServerError {
		delete(s.entries, key)
	} else {
		e.status = rec.status
		e.header = rec.Header().Clone()
		e.body = rec.body.Bytes()
		e.expiresAt = s.now().Add(s.ttl)
		e.ok = true
	}
	close(e.done)
}

func idempotencyKey(userID, key, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{userID, key, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recordingWriter copies the response while passing it through
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, e *idempotencyEntry) {
	for k, v := range e.header {
		w.Header()[k] = append([]string(nil), v...)
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency returns middleware that replays the stored response for a
// repeated POST with the same Idempotency-Key, caller, path and body.
// Requests without the header pass straight through.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(IdempotencyHeader)
			if r.Method != http.MethodPost || header == "" {
				next.ServeHTTP(w, r)
				return
			}

			caller := GetPrincipal(r.Context()).UserID
			if caller == "" {
				caller = "ip:" + clientIP(r)
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil || len(body) > maxIdempotentBody {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := idempotencyKey(caller, header, r.Method, r.URL.Path, body)
			for {
				entry, owner := store.claim(key)
				if owner {
					rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
					func() {
						completed := false
						defer func() {
							if !completed {
								rec.status = http.StatusInternalServerError
							}
							store.finish(key, entry, rec)
						}()
						next.ServeHTTP(rec, r)
						completed = true
					}()
					return
				}

				select {
				case <-entry.done:
				case <-r.Context().Done():
					return
				}
				if entry.ok {
					replay(w, entry)
					return
				}
			}
		})
	}
}
