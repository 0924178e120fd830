package handler

import (
	"errors"

	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response so
// every handler reports the same status for the same failure.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// Per-ingredient validation carries its own field path
	var ingErr *service.IngredientError
	if errors.As(err, &ingErr) {
		return model.NewValidationError([]model.FieldError{{Field: ingErr.Field(), Message: ingErr.Err.Error()}})
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrUnauthenticated):
		return model.NewUnauthorizedError(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError(err.Error()).WithCode(model.ErrCodeInvalidCredentials)

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotRecipeOwner):
		return model.NewForbiddenError(err.Error()).WithCode(model.ErrCodeNotOwner)

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrRecipeNotFound):
		return model.NewNotFoundError("recipe")
	case errors.Is(err, service.ErrImageNotFound):
		return model.NewNotFoundError("image")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrUsernameTaken):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrRecipeNameRequired),
		errors.Is(err, service.ErrRecipeNameTooLong):
		return fieldError("name", err)
	case errors.Is(err, service.ErrRecipeMethodRequired):
		return fieldError("method", err)
	case errors.Is(err, service.ErrRecipeDifficultyRequired):
		return fieldError("difficulty", err)
	case errors.Is(err, service.ErrIngredientsRequired):
		return fieldError("ingredients", err)

	case errors.Is(err, service.ErrUnsupportedImageType),
		errors.Is(err, service.ErrImageTooLarge):
		return fieldError("file", err)

	case errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return fieldError("credentials", err)

	// ===== Bad Request → 400 =====
	case errors.Is(err, service.ErrImageRequired):
		return model.NewBadRequestError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}

func fieldError(field string, err error) *model.ProblemDetails {
	return model.NewValidationError([]model.FieldError{{Field: field, Message: err.Error()}})
}
