package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/forgo/recipebook/internal/model"
)

// IngredientRepository handles ingredient data access
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

// GetByID retrieves an ingredient, or nil, nil when it does not exist
func (r *IngredientRepository) GetByID(ctx context.Context, id string) (*model.Ingredient, error) {
	var row ingredientRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return row.toModel(), nil
}

// ListByRecipe returns the ingredients linked to a recipe, ordered by name
func (r *IngredientRepository) ListByRecipe(ctx context.Context, recipeID string) ([]*model.Ingredient, error) {
	var rows []ingredientRow
	err := r.db.WithContext(ctx).
		Select("ingredients.*").
		Joins("JOIN ingredients_recipe ON ingredients_recipe.ingredients_id = ingredients.id").
		Where("ingredients_recipe.recipe_id = ?", recipeID).
		Order("ingredients.name, ingredients.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe ingredients: %w", err)
	}

	out := make([]*model.Ingredient, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}
