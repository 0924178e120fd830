// Package helpers provides common test utilities for the recipe book API.
//
// # JWT Helpers
//
// Sign tokens for fixture users with an in-memory key pair:
//
//	tokens := helpers.NewJWTHelper(t)
//	token := tokens.Token(t, user)
//	expired := tokens.ExpiredToken(t, user)
//
// The helper's Service is passed to the router as its token validator.
//
// # Request Helpers
//
// Build and run requests against an http.Handler:
//
//	rr := helpers.NewRequest(t, http.MethodPost, "/api/createRecipe").
//	    WithAuth(tokens, user).
//	    Do(router)
//
// # Assertion Helpers
//
//	helpers.AssertStatus(t, rr, http.StatusOK)
//	helpers.AssertValidationError(t, rr, "ingredients[0].quantity")
//	recipe := helpers.Decode[model.RecipeOverview](t, rr)
package helpers
