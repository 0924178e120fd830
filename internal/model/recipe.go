package model

import "time"

// Validation constants
const (
	MaxRecipeNameLength     = 255
	MaxIngredientNameLength = 255
)

// Recipe is a user's recipe. It starts empty when created and is filled in
// by an update.
type Recipe struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Name        string        `json:"name"`
	Method      string        `json:"method"`
	Difficulty  string        `json:"difficulty"`
	Portion     *int          `json:"portion,omitempty"`
	Tags        *string       `json:"tags,omitempty"`
	PrepTime    *int          `json:"prep_time,omitempty"`
	ImageName   *string       `json:"image_name,omitempty"`
	Ingredients []*Ingredient `json:"ingredients"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsOwnedBy reports whether the principal created this recipe
func (r *Recipe) IsOwnedBy(p Principal) bool {
	return r != nil && p.UserID != "" && r.UserID == p.UserID
}

// IsDraft reports whether the recipe has never been named
func (r *Recipe) IsDraft() bool {
	return r.Name == ""
}

// Ingredient is a named quantity linked to one or more recipes through the
// ingredients_recipe join table.
type Ingredient struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     *string `json:"unit,omitempty"`
}

// UpdateRecipeRequest is the body of an updateRecipe call. Unknown keys are
// ignored so clients can post back a whole recipe projection.
type UpdateRecipeRequest struct {
	Name        string            `json:"name"`
	Method      string            `json:"method"`
	Difficulty  string            `json:"difficulty"`
	Portion     NullableInt       `json:"portion"`
	Tags        *string           `json:"tags"`
	PrepTime    NullableInt       `json:"prepTime"`
	Ingredients []IngredientInput `json:"ingredients"`
}

// IngredientInput is one ingredient entry of an update. ID is empty for new
// ingredients.
type IngredientInput struct {
	ID       FlexibleID `json:"id"`
	Name     string     `json:"name"`
	Quantity Quantity   `json:"quantity"`
	Unit     *string    `json:"unit"`
}

// RecipeUpdate is a validated change set the repository applies in one
// transaction. Every ingredient in Create and Update ends up linked to
// Recipe.
type RecipeUpdate struct {
	Recipe *Recipe
	Create []*Ingredient
	Update []*Ingredient
}
