package model

import (
	"cmp"
	"slices"
)

// RecipeOverview is the recipe_overview projection returned by every recipe
// endpoint. Field names follow the frontend's camelCase contract.
type RecipeOverview struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	Name        string               `json:"name"`
	Method      string               `json:"method"`
	Difficulty  string               `json:"difficulty"`
	Portion     *int                 `json:"portion"`
	Tags        *string              `json:"tags"`
	PrepTime    *int                 `json:"prepTime"`
	ImageName   *string              `json:"imageName"`
	Ingredients []IngredientOverview `json:"ingredients"`
}

// IngredientOverview is an ingredient inside a RecipeOverview
type IngredientOverview struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     *string `json:"unit"`
}

// ShowRecipeResponse is returned by the show endpoint. Recipe is null when
// the id does not exist.
type ShowRecipeResponse struct {
	Recipe       *RecipeOverview `json:"recipe"`
	IsUserRecipe bool            `json:"isUserRecipe"`
}

// NewRecipeOverview projects a recipe. A nil recipe yields nil. Ingredients
// are ordered by name, then id, and never null.
func NewRecipeOverview(r *Recipe) *RecipeOverview {
	if r == nil {
		return nil
	}

	ingredients := make([]IngredientOverview, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing == nil {
			continue
		}
		ingredients = append(ingredients, IngredientOverview{
			ID:       ing.ID,
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	slices.SortFunc(ingredients, func(a, b IngredientOverview) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	return &RecipeOverview{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Method:      r.Method,
		Difficulty:  r.Difficulty,
		Portion:     r.Portion,
		Tags:        r.Tags,
		PrepTime:    r.PrepTime,
		ImageName:   r.ImageName,
		Ingredients: ingredients,
	}
}
