package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
)

// RecipeRepository handles recipe data access
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a recipe, assigning its ID and timestamps
func (r *RecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	row := toRecipeRow(recipe)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create recipe: %w", database.Classify(err))
	}
	return nil
}

// GetByID retrieves a recipe with its ingredients. It returns nil, nil when
// the recipe does not exist.
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	var row recipeRow
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("name, id") }).
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return row.toModel(), nil
}

// SetImage records the stored image name of a recipe
func (r *RecipeRepository) SetImage(ctx context.Context, id, imageName string) error {
	res := r.db.WithContext(ctx).Model(&recipeRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"image_name": imageName,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to set recipe image: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ApplyUpdate writes the recipe fields, inserts and overwrites ingredients,
// and links every touched ingredient to the recipe in one transaction.
func (r *RecipeRepository) ApplyUpdate(ctx context.Context, update *model.RecipeUpdate) error {
	recipe := update.Recipe
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe.UpdatedAt = time.Now().UTC()
		res := tx.Model(&recipeRow{}).Where("id = ?", recipe.ID).Updates(map[string]interface{}{
			"name":       recipe.Name,
			"method":     recipe.Method,
			"difficulty": recipe.Difficulty,
			"portion":    recipe.Portion,
			"tags":       recipe.Tags,
			"prep_time":  recipe.PrepTime,
			"updated_at": recipe.UpdatedAt,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update recipe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return database.ErrNotFound
		}

		links := make([]ingredientsRecipeRow, 0, len(update.Create)+len(update.Update))

		for _, ing := range update.Create {
			if ing.ID == "" {
				ing.ID = uuid.NewString()
			}
			row := toIngredientRow(ing)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create ingredient %q: %w", ing.Name, database.Classify(err))
			}
			links = append(links, ingredientsRecipeRow{IngredientsID: ing.ID, RecipeID: recipe.ID})
		}

		for _, ing := range update.Update {
			res := tx.Model(&ingredientRow{}).Where("id = ?", ing.ID).Updates(map[string]interface{}{
				"name":     ing.Name,
				"quantity": ing.Quantity,
				"unit":     ing.Unit,
			})
			if res.Error != nil {
				return fmt.Errorf("failed to update ingredient %s: %w", ing.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("ingredient %s: %w", ing.ID, database.ErrNotFound)
			}
			links = append(links, ingredientsRecipeRow{IngredientsID: ing.ID, RecipeID: recipe.ID})
		}

		if len(links) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
				return fmt.Errorf("failed to link ingredients: %w", err)
			}
		}
		return nil
	})
}

// Delete removes a recipe, its ingredient links, and the ingredients that
// are left without any recipe, in one transaction.
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteRecipe(tx, id)
	})
}

// DeleteDraft deletes the recipe like Delete, but only while it is still an
// unnamed draft created before the cutoff. It reports whether it deleted.
func (r *RecipeRepository) DeleteDraft(ctx context.Context, id string, before time.Time) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The guarded write locks the row; a draft named meanwhile no longer matches
		res := tx.Model(&recipeRow{}).
			Where("id = ? AND name = ? AND created_at < ?", id, "", before.UTC()).
			Update("updated_at", time.Now().UTC())
		if res.Error != nil {
			return fmt.Errorf("failed to claim draft: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := deleteRecipe(tx, id); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func deleteRecipe(tx *gorm.DB, id string) error {
	var linked []string
	if err := tx.Model(&ingredientsRecipeRow{}).Where("recipe_id = ?", id).Pluck("ingredients_id", &linked).Error; err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}

	if err := tx.Where("recipe_id = ?", id).Delete(&ingredientsRecipeRow{}).Error; err != nil {
		return fmt.Errorf("failed to unlink ingredients: %w", err)
	}

	if len(linked) > 0 {
		var shared []string
		if err := tx.Model(&ingredientsRecipeRow{}).Distinct().
			Where("ingredients_id IN ?", linked).
			Pluck("ingredients_id", &shared).Error; err != nil {
			return fmt.Errorf("failed to load shared ingredients: %w", err)
		}

		if orphans := difference(linked, shared); len(orphans) > 0 {
			if err := tx.Where("id IN ?", orphans).Delete(&ingredientRow{}).Error; err != nil {
				return fmt.Errorf("failed to delete ingredients: %w", err)
			}
		}
	}

	res := tx.Where("id = ?", id).Delete(&recipeRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ListStaleDrafts returns the IDs of unnamed recipes created before the cutoff
func (r *RecipeRepository) ListStaleDrafts(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&recipeRow{}).
		Where("name = ? AND created_at < ?", "", before.UTC()).
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale drafts: %w", err)
	}
	return ids, nil
}

func difference(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := make([]string, 0, len(all))
	for _, id := range all {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
