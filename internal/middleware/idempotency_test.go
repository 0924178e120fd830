package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/recipebook/pkg/jwt"
)

// countingHandler answers 201 with an incrementing id
func countingHandler(calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"` + strconv.Itoa(int(n)) + `"}`))
	})
}

func newIdempotentRequest(key, user, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/createRecipe", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	if user != "" {
		req = req.WithContext(WithClaims(req.Context(), &jwt.Claims{UserID: user}))
	}
	return req
}

func newTestStore(t *testing.T) *IdempotencyStore {
	t.Helper()
	store := NewIdempotencyStore(IdempotencyConfig{TTL: time.Hour})
	t.Cleanup(store.Stop)
	return store
}

// ============================================================================
// Replay Tests
// ============================================================================

func TestIdempotency_ReplaysSameKey(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	handler := Idempotency(newTestStore(t))(countingHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest("k1", "alice", ""))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest("k1", "alice", ""))

	if calls.Load() != 1 {
		t.Fatalf("handler calls = %d, want 1", calls.Load())
	}
	if second.Code != http.StatusCreated {
		t.Errorf("replayed status = %d, want 201", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body = %q, want %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("expected X-Idempotency-Replayed header")
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Errorf("replayed Content-Type = %q", second.Header().Get("Content-Type"))
	}
}

func TestIdempotency_DistinctRequestsRunHandler(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		second *http.Request
	}{
		{"different key", newIdempotentRequest("k2", "alice", "")},
		{"different user", newIdempotentRequest("k1", "bob", "")},
		{"different body", newIdempotentRequest("k1", "alice", "{}")},
		{"no key", newIdempotentRequest("", "alice", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			handler := Idempotency(newTestStore(t))(countingHandler(&calls))

			handler.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest("k1", "alice", ""))
			handler.ServeHTTP(httptest.NewRecorder(), tt.second)

			if calls.Load() != 2 {
				t.Errorf("handler calls = %d, want 2", calls.Load())
			}
		})
	}
}

func TestIdempotency_IgnoresNonPost(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	store := newTestStore(t)
	handler := Idempotency(store)(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/recipe/1/cancelRecipe", nil)
		req.Header.Set(IdempotencyHeader, "k1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls.Load() != 2 {
		t.Errorf("handler calls = %d, want 2", calls.Load())
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d entries, want 0", store.Len())
	}
}

func TestIdempotency_ServerErrorsAreRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	handler := Idempotency(newTestStore(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest("k1", "alice", ""))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest("k1", "alice", ""))

	if calls.Load() != 2 {
		t.Errorf("handler calls = %d, want 2", calls.Load())
	}
	if second.Code != http.StatusCreated {
		t.Errorf("retry status = %d, want 201", second.Code)
	}
}

func TestIdempotency_PanicIsNotCached(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	store := newTestStore(t)
	handler := Recovery(Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		w.WriteHeader(http.StatusCreated)
	})))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest("k1", "alice", ""))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("panic status = %d, want 500", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest("k1", "alice", ""))
	if second.Code != http.StatusCreated {
		t.Errorf("retry status = %d, want 201", second.Code)
	}
}

// ============================================================================
// Concurrency and Expiry Tests
// ============================================================================

func TestIdempotency_ConcurrentDuplicatesWait(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	release := make(chan struct{})
	handler := Idempotency(newTestStore(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	const n = 5
	var wg sync.WaitGroup
	recorders := make([]*httptest.ResponseRecorder, n)
	for i := range recorders {
		recorders[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(rr *httptest.ResponseRecorder) {
			defer wg.Done()
			handler.ServeHTTP(rr, newIdempotentRequest("k1", "alice", ""))
		}(recorders[i])
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("handler calls = %d, want 1", calls.Load())
	}
	for i, rr := range recorders {
		if rr.Code != http.StatusCreated || rr.Body.String() != "created" {
			t.Errorf("response %d = %d %q", i, rr.Code, rr.Body.String())
		}
	}
}

func TestIdempotency_Expiry(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	store := newTestStore(t)
	clock := newFakeClock()
	store.now = clock.Now
	handler := Idempotency(store)(countingHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest("k1", "alice", ""))
	clock.Advance(2 * time.Hour)
	handler.ServeHTTP(httptest.NewRecorder(), newIdempotentRequest("k1", "alice", ""))

	if calls.Load() != 2 {
		t.Errorf("handler calls = %d, want 2 after expiry", calls.Load())
	}

	clock.Advance(2 * time.Hour)
	store.expire()
	if store.Len() != 0 {
		t.Errorf("store holds %d entries after expire, want 0", store.Len())
	}
}
