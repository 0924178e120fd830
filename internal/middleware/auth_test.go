package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/pkg/jwt"
)

// ============================================================================
// Mock TokenValidator
// ============================================================================

type mockValidator struct {
	validateFunc func(token string) (*jwt.Claims, error)
}

func (m *mockValidator) Validate(token string) (*jwt.Claims, error) {
	return m.validateFunc(token)
}

func validatorReturning(claims *jwt.Claims, err error) *mockValidator {
	return &mockValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			return claims, err
		},
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

// ============================================================================
// Auth() Middleware Tests
// ============================================================================

func TestAuth_RejectsRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		err      error
		wantCode model.ErrorCode
	}{
		{"missing header", "", nil, model.ErrCodeUnauthorized},
		{"no bearer prefix", "valid-token", nil, model.ErrCodeUnauthorized},
		{"only bearer", "Bearer", nil, model.ErrCodeUnauthorized},
		{"empty token", "Bearer   ", nil, model.ErrCodeUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", nil, model.ErrCodeUnauthorized},
		{"expired token", "Bearer expired", jwt.ErrTokenExpired, model.ErrCodeTokenExpired},
		{"bad signature", "Bearer forged", jwt.ErrInvalidSignature, model.ErrCodeTokenInvalid},
		{"invalid token", "Bearer junk", jwt.ErrInvalidToken, model.ErrCodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims := &jwt.Claims{UserID: "user-1", Username: "alice"}
			if tt.err != nil {
				claims = nil
			}
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			Auth(validatorReturning(claims, tt.err))(handler).ServeHTTP(rr, newTestRequest(tt.header))

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}
			if handler.called {
				t.Error("handler should not have been called")
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("expected problem+json, got %q", ct)
			}

			var problem model.ProblemDetails
			if err := json.NewDecoder(rr.Body).Decode(&problem); err != nil {
				t.Fatalf("failed to decode problem: %v", err)
			}
			if problem.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, problem.Code)
			}
		})
	}
}

func TestAuth_ValidToken_SetsPrincipal(t *testing.T) {
	t.Parallel()

	var gotToken string
	validator := &mockValidator{
		validateFunc: func(token string) (*jwt.Claims, error) {
			gotToken = token
			return &jwt.Claims{UserID: "user-1", Username: "alice"}, nil
		},
	}
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(validator)(handler).ServeHTTP(rr, newTestRequest("bearer  token-123 "))

	if !handler.called {
		t.Fatal("handler should have been called")
	}
	if gotToken != "token-123" {
		t.Errorf("expected trimmed token, got %q", gotToken)
	}

	p := GetPrincipal(handler.ctx)
	if p.UserID != "user-1" || p.Username != "alice" {
		t.Errorf("unexpected principal %+v", p)
	}
	if GetClaims(handler.ctx) == nil {
		t.Error("expected claims in context")
	}
}

func TestAuth_RealService(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	svc := jwt.NewTestService(key, "recipebook", time.Hour)
	token, err := svc.Sign(jwt.Claims{UserID: "user-9", Username: "bob"})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	handler := &captureHandler{}
	rr := httptest.NewRecorder()
	Auth(svc)(handler).ServeHTTP(rr, newTestRequest("Bearer "+token))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if p := GetPrincipal(handler.ctx); p.Username != "bob" {
		t.Errorf("unexpected principal %+v", p)
	}
}

// ============================================================================
// Context Helper Tests
// ============================================================================

func TestGetPrincipal_NoClaims_ReturnsZero(t *testing.T) {
	t.Parallel()

	if p := GetPrincipal(context.Background()); !p.IsZero() {
		t.Errorf("expected zero principal, got %+v", p)
	}
}

func TestGetClaims_WrongType_ReturnsNil(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ClaimsKey, "not-claims")
	if GetClaims(ctx) != nil {
		t.Error("expected nil for wrong type")
	}
}

func TestWithClaims_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithClaims(context.Background(), &jwt.Claims{UserID: "u", Username: "carol"})
	if p := GetPrincipal(ctx); p.UserID != "u" || p.Username != "carol" {
		t.Errorf("unexpected principal %+v", p)
	}
}
