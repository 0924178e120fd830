package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode is the numeric code carried in every problem body. The
// thousands digit groups codes by family: 1 authentication, 2 ownership,
// 3 resources, 4 input, 5 server.
type ErrorCode int

const (
	ErrCodeUnauthorized       ErrorCode = 1001
	ErrCodeTokenExpired       ErrorCode = 1002
	ErrCodeTokenInvalid       ErrorCode = 1003
	ErrCodeInvalidCredentials ErrorCode = 1004

	ErrCodeForbidden ErrorCode = 2001
	ErrCodeNotOwner  ErrorCode = 2002 // recipe belongs to another user

	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002

	ErrCodeValidation   ErrorCode = 4001
	ErrCodeInvalidInput ErrorCode = 4002

	ErrCodeInternal ErrorCode = 5001
)

const problemTypeBase = "https://recipebook.dev/errors/"

// ProblemDetails is an RFC 9457 problem body. Code is an extension member
// that lets clients branch without parsing Title.
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	Code     ErrorCode    `json:"code,omitempty"`
}

// FieldError points at one rejected request field, e.g.
// "ingredients[2].quantity".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON sends p with its own status and the problem+json media type.
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WithCode narrows the family code, e.g. Unauthorized to TokenExpired.
func (p *ProblemDetails) WithCode(code ErrorCode) *ProblemDetails {
	p.Code = code
	return p
}

type problemKind struct {
	slug   string
	title  string
	status int
	code   ErrorCode
}

var (
	kindUnauthorized = problemKind{"unauthorized", "Unauthorized", http.StatusUnauthorized, ErrCodeUnauthorized}
	kindForbidden    = problemKind{"forbidden", "Forbidden", http.StatusForbidden, ErrCodeForbidden}
	kindNotFound     = problemKind{"not-found", "Not Found", http.StatusNotFound, ErrCodeNotFound}
	kindValidation   = problemKind{"validation", "Validation Error", http.StatusUnprocessableEntity, ErrCodeValidation}
	kindConflict     = problemKind{"conflict", "Conflict", http.StatusConflict, ErrCodeAlreadyExists}
	kindInternal     = problemKind{"internal", "Internal Server Error", http.StatusInternalServerError, ErrCodeInternal}
	kindBadRequest   = problemKind{"bad-request", "Bad Request", http.StatusBadRequest, ErrCodeInvalidInput}
	kindRateLimited  = problemKind{"rate-limited", "Too Many Requests", http.StatusTooManyRequests, 0}
)

func (k problemKind) with(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + k.slug,
		Title:  k.title,
		Status: k.status,
		Detail: detail,
		Code:   k.code,
	}
}

func NewUnauthorizedError(detail string) *ProblemDetails { return kindUnauthorized.with(detail) }
func NewForbiddenError(detail string) *ProblemDetails    { return kindForbidden.with(detail) }
func NewConflictError(detail string) *ProblemDetails     { return kindConflict.with(detail) }
func NewBadRequestError(detail string) *ProblemDetails   { return kindBadRequest.with(detail) }

// NewNotFoundError reports a missing resource by name, as in "recipe not found".
func NewNotFoundError(resource string) *ProblemDetails {
	return kindNotFound.with(resource + " not found")
}

// NewValidationError summarizes the first field error in Detail and lists
// all of them under Errors.
func NewValidationError(errors []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	switch n := len(errors); {
	case n == 1:
		detail = errors[0].Field + ": " + errors[0].Message
	case n > 1:
		detail = fmt.Sprintf("%s: %s (and %d more errors)", errors[0].Field, errors[0].Message, n-1)
	}
	pd := kindValidation.with(detail)
	pd.Errors = errors
	return pd
}

// NewInternalError never leaks an empty detail to the client.
func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return kindInternal.with(detail)
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return kindRateLimited.with(fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter))
}
