package surreal

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
)

// RecipeRepository stores recipes in SurrealDB. Ingredients are linked
// with ingredients->ingredients_recipe->recipe edges.
type RecipeRepository struct {
	db database.Database
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db database.Database) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a recipe, assigning its ID and timestamps
func (r *RecipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	query := `
		CREATE $recipe CONTENT {
			user_id: $user_id,
			name: $name,
			method: $method,
			difficulty: $difficulty,
			portion: IF $portion IS NOT NULL THEN $portion ELSE NONE END,
			tags: IF $tags IS NOT NULL THEN $tags ELSE NONE END,
			prep_time: IF $prep_time IS NOT NULL THEN $prep_time ELSE NONE END,
			image_name: IF $image_name IS NOT NULL THEN $image_name ELSE NONE END,
			created_at: $now,
			updated_at: $now
		}
	`
	vars := map[string]interface{}{
		"recipe":     recordID(tableRecipe, recipe.ID),
		"user_id":    recipe.UserID,
		"name":       recipe.Name,
		"method":     recipe.Method,
		"difficulty": recipe.Difficulty,
		"portion":    noneIfNil(recipe.Portion),
		"tags":       noneIfNil(recipe.Tags),
		"prep_time":  noneIfNil(recipe.PrepTime),
		"image_name": noneIfNil(recipe.ImageName),
		"now":        datetime(now),
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to create recipe: %w", database.Classify(err))
	}
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	return nil
}

// GetByID retrieves a recipe with its ingredients, or nil, nil when absent
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*model.Recipe, error) {
	query := `
		SELECT * FROM $recipe;
		SELECT * FROM ingredients WHERE id IN (SELECT VALUE in FROM ingredients_recipe WHERE out = $recipe);
	`
	results, err := r.db.Query(ctx, query, map[string]interface{}{
		"recipe": recordID(tableRecipe, id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	rows := database.Rows(results, 0)
	if len(rows) == 0 {
		return nil, nil
	}
	recipe := parseRecipe(rows[0])
	recipe.Ingredients = parseIngredients(database.Rows(results, 1))
	return recipe, nil
}

func (r *RecipeRepository) exists(ctx context.Context, table string, ids ...string) ([]string, error) {
	things := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		things = append(things, recordID(table, id))
	}
	results, err := r.db.Query(ctx, "SELECT id FROM type::table($table) WHERE id IN $ids", map[string]interface{}{
		"table": table,
		"ids":   things,
	})
	if err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(ids))
	for _, row := range database.Rows(results, 0) {
		found[recordKey(row["id"])] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// SetImage records the stored image name of a recipe
func (r *RecipeRepository) SetImage(ctx context.Context, id, imageName string) error {
	missing, err := r.exists(ctx, tableRecipe, id)
	if err != nil {
		return fmt.Errorf("failed to set recipe image: %w", err)
	}
	if len(missing) > 0 {
		return database.ErrNotFound
	}

	err = r.db.Execute(ctx, "UPDATE $recipe SET image_name = $image_name, updated_at = $now", map[string]interface{}{
		"recipe":     recordID(tableRecipe, id),
		"image_name": imageName,
		"now":        datetime(time.Now()),
	})
	if err != nil {
		return fmt.Errorf("failed to set recipe image: %w", err)
	}
	return nil
}

// ApplyUpdate writes the recipe fields, inserts and overwrites ingredients,
// and links every touched ingredient to the recipe in one transaction.
func (r *RecipeRepository) ApplyUpdate(ctx context.Context, update *model.RecipeUpdate) error {
	recipe := update.Recipe

	missing, err := r.exists(ctx, tableRecipe, recipe.ID)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if len(missing) > 0 {
		return database.ErrNotFound
	}
	if len(update.Update) > 0 {
		ids := make([]string, 0, len(update.Update))
		for _, ing := range update.Update {
			ids = append(ids, ing.ID)
		}
		missing, err := r.exists(ctx, tableIngredients, ids...)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if len(missing) > 0 {
			return fmt.Errorf("ingredient %s: %w", missing[0], database.ErrNotFound)
		}
	}

	recipe.UpdatedAt = time.Now().UTC()
	recipeRef := recordID(tableRecipe, recipe.ID)

	batch := database.NewAtomicBatch()
	batch.Add(`
		UPDATE $recipe SET
			name = $name,
			method = $method,
			difficulty = $difficulty,
			portion = IF $portion IS NOT NULL THEN $portion ELSE NONE END,
			tags = IF $tags IS NOT NULL THEN $tags ELSE NONE END,
			prep_time = IF $prep_time IS NOT NULL THEN $prep_time ELSE NONE END,
			updated_at = $now
	`, map[string]interface{}{
		"recipe":     recipeRef,
		"name":       recipe.Name,
		"method":     recipe.Method,
		"difficulty": recipe.Difficulty,
		"portion":    noneIfNil(recipe.Portion),
		"tags":       noneIfNil(recipe.Tags),
		"prep_time":  noneIfNil(recipe.PrepTime),
		"now":        datetime(recipe.UpdatedAt),
	})

	touched := make([]*model.Ingredient, 0, len(update.Create)+len(update.Update))
	for _, ing := range update.Create {
		if ing.ID == "" {
			ing.ID = uuid.NewString()
		}
		batch.Add(`
			CREATE $ingredient CONTENT {
				name: $name,
				quantity: $quantity,
				unit: IF $unit IS NOT NULL THEN $unit ELSE NONE END
			}
		`, ingredientVars(ing))
		touched = append(touched, ing)
	}
	for _, ing := range update.Update {
		batch.Add(`
			UPDATE $ingredient SET
				name = $name,
				quantity = $quantity,
				unit = IF $unit IS NOT NULL THEN $unit ELSE NONE END
		`, ingredientVars(ing))
		touched = append(touched, ing)
	}

	for _, ing := range touched {
		vars := map[string]interface{}{
			"ingredient": recordID(tableIngredients, ing.ID),
			"recipe":     recipeRef,
		}
		batch.Add("DELETE ingredients_recipe WHERE in = $ingredient AND out = $recipe", vars)
		batch.Add("RELATE $ingredient->ingredients_recipe->$recipe", vars)
	}

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	return nil
}

func ingredientVars(ing *model.Ingredient) map[string]interface{} {
	return map[string]interface{}{
		"ingredient": recordID(tableIngredients, ing.ID),
		"name":       ing.Name,
		"quantity":   ing.Quantity,
		"unit":       noneIfNil(ing.Unit),
	}
}

// Delete removes a recipe, its ingredient links, and the ingredients that
// are left without any recipe, in one transaction.
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	missing, err := r.exists(ctx, tableRecipe, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if len(missing) > 0 {
		return database.ErrNotFound
	}

	recipe := map[string]interface{}{"recipe": recordID(tableRecipe, id)}
	batch := database.NewAtomicBatch().
		Add("LET $linked = (SELECT VALUE in FROM ingredients_recipe WHERE out = $recipe)", recipe).
		Add("DELETE ingredients_recipe WHERE out = $recipe", recipe).
		Add("DELETE ingredients WHERE id IN $linked AND count(->ingredients_recipe) = 0", nil).
		Add("DELETE $recipe", recipe)

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// DeleteDraft deletes the recipe like Delete, but only while it is still an
// unnamed draft created before the cutoff. It reports whether it deleted.
func (r *RecipeRepository) DeleteDraft(ctx context.Context, id string, before time.Time) (bool, error) {
	batch := database.NewAtomicBatch().
		Add(`LET $draft = (SELECT VALUE id FROM recipe WHERE id = $recipe AND name = "" AND created_at < $before)`,
			map[string]interface{}{"recipe": recordID(tableRecipe, id), "before": datetime(before)}).
		Add("LET $linked = (SELECT VALUE in FROM ingredients_recipe WHERE out IN $draft)", nil).
		Add("DELETE ingredients_recipe WHERE out IN $draft", nil).
		Add("DELETE ingredients WHERE id IN $linked AND count(->ingredients_recipe) = 0", nil).
		Add("DELETE recipe WHERE id IN $draft RETURN BEFORE", nil)

	results, err := batch.Query(ctx, r.db)
	if err != nil {
		return false, fmt.Errorf("failed to delete draft: %w", err)
	}
	return len(database.Rows(results, len(results)-1)) > 0, nil
}

// ListStaleDrafts returns the IDs of unnamed recipes created before the cutoff
func (r *RecipeRepository) ListStaleDrafts(ctx context.Context, before time.Time) ([]string, error) {
	results, err := r.db.Query(ctx,
		`SELECT id, created_at FROM recipe WHERE name = "" AND created_at < $before ORDER BY created_at`,
		map[string]interface{}{"before": datetime(before)})
	if err != nil {
		return nil, fmt.Errorf("failed to list stale drafts: %w", err)
	}

	rows := database.Rows(results, 0)
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, recordKey(row["id"]))
	}
	return ids, nil
}

func parseRecipe(row map[string]interface{}) *model.Recipe {
	return &model.Recipe{
		ID:         recordKey(row["id"]),
		UserID:     getString(row, "user_id"),
		Name:       getString(row, "name"),
		Method:     getString(row, "method"),
		Difficulty: getString(row, "difficulty"),
		Portion:    getIntPtr(row, "portion"),
		Tags:       getStringPtr(row, "tags"),
		PrepTime:   getIntPtr(row, "prep_time"),
		ImageName:  getStringPtr(row, "image_name"),
		CreatedAt:  parseTime(row["created_at"]),
		UpdatedAt:  parseTime(row["updated_at"]),
	}
}

func parseIngredient(row map[string]interface{}) *model.Ingredient {
	return &model.Ingredient{
		ID:       recordKey(row["id"]),
		Name:     getString(row, "name"),
		Quantity: getFloat(row, "quantity"),
		Unit:     getStringPtr(row, "unit"),
	}
}

// parseIngredients converts rows and orders them by name, then ID
func parseIngredients(rows []map[string]interface{}) []*model.Ingredient {
	out := make([]*model.Ingredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, parseIngredient(row))
	}
	slices.SortFunc(out, func(a, b *model.Ingredient) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}
