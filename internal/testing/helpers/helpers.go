package helpers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v4"

	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/pkg/jwt"
)

// ============================================================================
// JWT Helpers
// ============================================================================

// JWTHelper signs access tokens for tests with an in-memory key
type JWTHelper struct {
	Service *jwt.Service
}

// NewJWTHelper creates a JWT helper with a fresh RSA key
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("helpers: failed to generate RSA key: %v", err)
	}
	return &JWTHelper{Service: jwt.NewTestService(privateKey, "recipebook-test", time.Hour)}
}

// Token creates a valid access token for user
func (h *JWTHelper) Token(t *testing.T, user *model.User) string {
	t.Helper()
	return h.sign(t, jwt.Claims{UserID: user.ID, Username: user.Username})
}

// ExpiredToken creates a token that expired an hour ago
func (h *JWTHelper) ExpiredToken(t *testing.T, user *model.User) string {
	t.Helper()
	claims := jwt.Claims{UserID: user.ID, Username: user.Username}
	claims.ExpiresAt = jwtlib.NewNumericDate(time.Now().Add(-time.Hour))
	return h.sign(t, claims)
}

func (h *JWTHelper) sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := h.Service.Sign(claims)
	if err != nil {
		t.Fatalf("helpers: failed to sign token: %v", err)
	}
	return token
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t           *testing.T
	method      string
	path        string
	body        io.Reader
	contentType string
	headers     map[string]string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithJSON sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithJSON(body interface{}) *RequestBuilder {
	rb.t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		rb.t.Fatalf("helpers: failed to marshal body: %v", err)
	}
	return rb.WithRawBody(data, "application/json")
}

// WithRawBody sets the request body verbatim
func (rb *RequestBuilder) WithRawBody(body []byte, contentType string) *RequestBuilder {
	rb.body = bytes.NewReader(body)
	rb.contentType = contentType
	return rb
}

// WithFile sets a multipart/form-data body holding one file part. An empty
// field sends a form with no file at all.
func (rb *RequestBuilder) WithFile(field, filename string, content []byte) *RequestBuilder {
	rb.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field == "" {
		if err := mw.WriteField("note", "no file"); err != nil {
			rb.t.Fatalf("helpers: failed to write form field: %v", err)
		}
	} else {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			rb.t.Fatalf("helpers: failed to create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			rb.t.Fatalf("helpers: failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		rb.t.Fatalf("helpers: failed to close multipart writer: %v", err)
	}
	return rb.WithRawBody(buf.Bytes(), mw.FormDataContentType())
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithToken sends a bearer token
func (rb *RequestBuilder) WithToken(token string) *RequestBuilder {
	return rb.WithHeader("Authorization", "Bearer "+token)
}

// WithAuth signs a token for user and sends it
func (rb *RequestBuilder) WithAuth(h *JWTHelper, user *model.User) *RequestBuilder {
	rb.t.Helper()
	return rb.WithToken(h.Token(rb.t, user))
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	req := httptest.NewRequest(rb.method, rb.path, rb.body)
	if rb.contentType != "" {
		req.Header.Set("Content-Type", rb.contentType)
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	return req
}

// Do sends the request through handler and returns the recorded response
func (rb *RequestBuilder) Do(handler http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, rb.Build())
	return rr
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertProblemDetails validates an RFC 9457 Problem Details error response
func AssertProblemDetails(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) model.ProblemDetails {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}

	problem := Decode[model.ProblemDetails](t, resp)
	if problem.Status != expectedStatus {
		t.Errorf("expected problem.status %d, got %d", expectedStatus, problem.Status)
	}
	if expectedCode != 0 && problem.Code != expectedCode {
		t.Errorf("expected problem.code %d, got %d", expectedCode, problem.Code)
	}
	return problem
}

// AssertValidationError checks for a validation error on a specific field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	problem := AssertProblemDetails(t, resp, http.StatusUnprocessableEntity, model.ErrCodeValidation)
	for _, fe := range problem.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, problem.Errors)
}

// Decode decodes the response body into a T
func Decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(resp.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, resp.Body.String())
	}
	return v
}
