package database

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB is the query-level store used when database.driver is
// "surrealdb". Writes spanning several records go through AtomicBatch.
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB returns an unconnected store for cfg
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Endpoint is the websocket URL for the configured host and port. The
// client appends the /rpc path itself.
func (s *SurrealDB) Endpoint() string {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(s.config.Host, s.config.Port),
	}
	return u.String()
}

// Connect dials the server, signs in and selects the namespace and database.
// On failure the half-open connection is closed.
func (s *SurrealDB) Connect(ctx context.Context) error {
	db, err := surrealdb.FromEndpointURLString(ctx, s.Endpoint())
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, s.config.Host, err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: sign in as %q: %v", ErrConnection, s.config.User, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use %s/%s: %v", ErrConnection, s.config.Namespace, s.config.Database, err)
	}

	s.db = db
	return nil
}

// Close releases the connection. Closing an unconnected store is a no-op.
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close(context.Background())
	s.db = nil
	return err
}

// Ping asks the server for its version
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query runs one or more statements. Each statement yields one element of
// the form {"status": "OK", "result": ...}; read them with Rows. A statement
// that did not succeed fails the whole call.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, Classify(fmt.Errorf("%w: %v", ErrQuery, err))
	}
	if results == nil {
		return nil, nil
	}

	statements := make([]interface{}, 0, len(*results))
	for i, r := range *results {
		if r.Status != "OK" {
			msg := r.Status
			if r.Error != nil {
				msg = r.Error.Message
			}
			return nil, Classify(fmt.Errorf("%w: statement %d: %s", ErrQuery, i+1, msg))
		}
		statements = append(statements, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	return statements, nil
}

// Execute runs statements whose results are not needed
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// Rows returns the records produced by statement i of a Query response.
// Statements that returned a single object are wrapped in a slice.
func Rows(results []interface{}, i int) []map[string]interface{} {
	if i < 0 || i >= len(results) {
		return nil
	}
	resp, ok := results[i].(map[string]interface{})
	if !ok {
		return nil
	}

	switch data := resp["result"].(type) {
	case []interface{}:
		rows := make([]map[string]interface{}, 0, len(data))
		for _, item := range data {
			if row, ok := item.(map[string]interface{}); ok {
				rows = append(rows, row)
			}
		}
		return rows
	case map[string]interface{}:
		return []map[string]interface{}{data}
	}
	return nil
}
