package surreal

import (
	"context"
	"fmt"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
)

// IngredientRepository reads ingredients from SurrealDB
type IngredientRepository struct {
	db database.Database
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db database.Database) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// GetByID retrieves an ingredient, or nil, nil when it does not exist
func (r *IngredientRepository) GetByID(ctx context.Context, id string) (*model.Ingredient, error) {
	results, err := r.db.Query(ctx, "SELECT * FROM $ingredient", map[string]interface{}{
		"ingredient": recordID(tableIngredients, id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	rows := database.Rows(results, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	return parseIngredient(rows[0]), nil
}

// ListByRecipe returns the ingredients linked to a recipe, ordered by name
func (r *IngredientRepository) ListByRecipe(ctx context.Context, recipeID string) ([]*model.Ingredient, error) {
	results, err := r.db.Query(ctx,
		"SELECT * FROM ingredients WHERE id IN (SELECT VALUE in FROM ingredients_recipe WHERE out = $recipe)",
		map[string]interface{}{"recipe": recordID(tableRecipe, recipeID)})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe ingredients: %w", err)
	}
	return parseIngredients(database.Rows(results, 0)), nil
}
