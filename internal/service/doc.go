// Package service implements the business logic of the recipe book.
//
// Services own validation and orchestration; repositories only persist.
// Each service declares the repository interfaces it needs and is built
// from a config struct:
//
//	recipes := NewRecipeService(RecipeServiceConfig{
//	    RecipeRepo:     recipeRepository,
//	    IngredientRepo: ingredientRepository,
//	    Images:         imageStore,
//	})
//	overview, err := recipes.Update(ctx, principal, id, req)
//
// # Error Handling
//
// Failures are reported as the sentinel errors in errors.go. Ingredient
// validation failures are wrapped in an IngredientError carrying the index
// of the offending entry. The handler package maps both to HTTP problems.
package service
