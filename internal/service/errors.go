package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here so handlers can
// map them with errors.Is / errors.As.

// ===== Authentication Errors =====
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUsername    = errors.New("username must be 3-64 characters of letters, digits, '_', '.' or '-'")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
)

// ===== Recipe Errors =====
var (
	ErrRecipeNotFound               = errors.New("recipe not found")
	ErrNotRecipeOwner               = errors.New("not the owner of this recipe")
	ErrRecipeNameRequired           = errors.New("recipe name is required")
	ErrRecipeNameTooLong            = errors.New("recipe name exceeds maximum length")
	ErrRecipeMethodRequired         = errors.New("method is required")
	ErrRecipeDifficultyRequired     = errors.New("difficulty is required")
	ErrIngredientsRequired          = errors.New("ingredients are required")
	ErrIngredientNameRequired       = errors.New("ingredient name is required")
	ErrIngredientNameTooLong        = errors.New("ingredient name exceeds maximum length")
	ErrIngredientQuantityRequired   = errors.New("quantity is required")
	ErrIngredientQuantityNotNumeric = errors.New("quantity has to be a number")
)

// ===== Image Errors =====
var (
	ErrImageRequired        = errors.New("an image file is required")
	ErrImageNotFound        = errors.New("image not found")
	ErrUnsupportedImageType = errors.New("image must be a JPEG, PNG, GIF or WebP file")
	ErrImageTooLarge        = errors.New("image exceeds the upload size limit")
)

// IngredientError ties a validation error to one entry of an update's
// ingredient list.
type IngredientError struct {
	Index int
	Err   error
}

func (e *IngredientError) Error() string {
	return fmt.Sprintf("ingredients[%d]: %v", e.Index, e.Err)
}

func (e *IngredientError) Unwrap() error {
	return e.Err
}

// Field names the offending request field, e.g. "ingredients[2].quantity"
func (e *IngredientError) Field() string {
	field := "name"
	if errors.Is(e.Err, ErrIngredientQuantityRequired) || errors.Is(e.Err, ErrIngredientQuantityNotNumeric) {
		field = "quantity"
	}
	return fmt.Sprintf("ingredients[%d].%s", e.Index, field)
}
