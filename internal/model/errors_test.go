package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{Status: http.StatusNotFound, Title: "Not Found", Detail: "recipe not found"}
	msg := pd.Error()

	for _, want := range []string{"404", "Not Found", "recipe not found"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message should contain %q, got: %s", want, msg)
		}
	}
}

func TestProblemDetails_WriteJSON(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	NewBadRequestError("invalid input").WriteJSON(rr)

	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected Content-Type 'application/problem+json', got %q", ct)
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	var result ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if result.Detail != "invalid input" || result.Code != ErrCodeInvalidInput {
		t.Errorf("unexpected body: %+v", result)
	}
}

func TestConstructors_ReturnCorrectValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		title  string
		code   ErrorCode
		slug   string
	}{
		{"unauthorized", NewUnauthorizedError("token expired"), http.StatusUnauthorized, "Unauthorized", ErrCodeUnauthorized, "unauthorized"},
		{"forbidden", NewForbiddenError("not yours"), http.StatusForbidden, "Forbidden", ErrCodeForbidden, "forbidden"},
		{"not found", NewNotFoundError("recipe"), http.StatusNotFound, "Not Found", ErrCodeNotFound, "not-found"},
		{"conflict", NewConflictError("username taken"), http.StatusConflict, "Conflict", ErrCodeAlreadyExists, "conflict"},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError, "Internal Server Error", ErrCodeInternal, "internal"},
		{"bad request", NewBadRequestError("bad json"), http.StatusBadRequest, "Bad Request", ErrCodeInvalidInput, "bad-request"},
		{"rate limited", NewRateLimitError(30), http.StatusTooManyRequests, "Too Many Requests", 0, "rate-limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.pd.Status)
			}
			if tt.pd.Title != tt.title {
				t.Errorf("expected title %q, got %q", tt.title, tt.pd.Title)
			}
			if tt.pd.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, tt.pd.Code)
			}
			if !strings.HasSuffix(tt.pd.Type, tt.slug) {
				t.Errorf("expected type to end with %q, got %q", tt.slug, tt.pd.Type)
			}
		})
	}
}

func TestNewNotFoundError_FormatsResourceName(t *testing.T) {
	t.Parallel()

	if pd := NewNotFoundError("recipe"); pd.Detail != "recipe not found" {
		t.Errorf("expected 'recipe not found', got %q", pd.Detail)
	}
}

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	if pd := NewInternalError(""); pd.Detail != "An unexpected error occurred" {
		t.Errorf("expected default detail message, got %q", pd.Detail)
	}
}

func TestNewValidationError_Detail(t *testing.T) {
	t.Parallel()

	single := NewValidationError([]FieldError{{Field: "name", Message: "recipe name is required"}})
	if single.Detail != "name: recipe name is required" {
		t.Errorf("unexpected single-field detail %q", single.Detail)
	}
	if single.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", single.Status)
	}

	multi := NewValidationError([]FieldError{
		{Field: "ingredients[0].name", Message: "required"},
		{Field: "ingredients[1].quantity", Message: "must be numeric"},
		{Field: "ingredients[2].quantity", Message: "required"},
	})
	if !strings.Contains(multi.Detail, "2 more errors") {
		t.Errorf("detail should mention count of additional errors, got %q", multi.Detail)
	}

	empty := NewValidationError(nil)
	if empty.Detail != "One or more fields failed validation" {
		t.Errorf("expected default detail message, got %q", empty.Detail)
	}
}

func TestProblemDetails_WithCode(t *testing.T) {
	t.Parallel()

	pd := NewUnauthorizedError("expired").WithCode(ErrCodeTokenExpired)
	if pd.Code != ErrCodeTokenExpired {
		t.Errorf("expected code %d, got %d", ErrCodeTokenExpired, pd.Code)
	}
}
