package repository

import (
	"time"

	"github.com/forgo/recipebook/internal/model"
)

// Table mappings for the gorm repositories. The schema itself is owned by
// database.Migrations; these rows only mirror it.

type recipeRow struct {
	ID          string          `gorm:"primaryKey"`
	UserID      string          `gorm:"column:user_id"`
	Name        string          `gorm:"column:name"`
	Method      string          `gorm:"column:method"`
	Difficulty  string          `gorm:"column:difficulty"`
	Portion     *int            `gorm:"column:portion"`
	Tags        *string         `gorm:"column:tags"`
	PrepTime    *int            `gorm:"column:prep_time"`
	ImageName   *string         `gorm:"column:image_name"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
	Ingredients []ingredientRow `gorm:"many2many:ingredients_recipe;joinForeignKey:RecipeID;joinReferences:IngredientsID"`
}

func (recipeRow) TableName() string { return "recipe" }

type ingredientRow struct {
	ID       string  `gorm:"primaryKey"`
	Name     string  `gorm:"column:name"`
	Quantity float64 `gorm:"column:quantity"`
	Unit     *string `gorm:"column:unit"`
}

func (ingredientRow) TableName() string { return "ingredients" }

type ingredientsRecipeRow struct {
	IngredientsID string `gorm:"primaryKey;column:ingredients_id"`
	RecipeID      string `gorm:"primaryKey;column:recipe_id"`
}

func (ingredientsRecipeRow) TableName() string { return "ingredients_recipe" }

type userRow struct {
	ID        string    `gorm:"primaryKey"`
	Username  string    `gorm:"column:username"`
	Password  string    `gorm:"column:password"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (userRow) TableName() string { return "users" }

func toRecipeRow(r *model.Recipe) recipeRow {
	return recipeRow{
		ID:         r.ID,
		UserID:     r.UserID,
		Name:       r.Name,
		Method:     r.Method,
		Difficulty: r.Difficulty,
		Portion:    r.Portion,
		Tags:       r.Tags,
		PrepTime:   r.PrepTime,
		ImageName:  r.ImageName,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (row *recipeRow) toModel() *model.Recipe {
	ingredients := make([]*model.Ingredient, 0, len(row.Ingredients))
	for i := range row.Ingredients {
		ingredients = append(ingredients, row.Ingredients[i].toModel())
	}
	return &model.Recipe{
		ID:          row.ID,
		UserID:      row.UserID,
		Name:        row.Name,
		Method:      row.Method,
		Difficulty:  row.Difficulty,
		Portion:     row.Portion,
		Tags:        row.Tags,
		PrepTime:    row.PrepTime,
		ImageName:   row.ImageName,
		Ingredients: ingredients,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toIngredientRow(i *model.Ingredient) ingredientRow {
	return ingredientRow{ID: i.ID, Name: i.Name, Quantity: i.Quantity, Unit: i.Unit}
}

func (row *ingredientRow) toModel() *model.Ingredient {
	return &model.Ingredient{ID: row.ID, Name: row.Name, Quantity: row.Quantity, Unit: row.Unit}
}

func (row *userRow) toModel() *model.User {
	return &model.User{ID: row.ID, Username: row.Username, Hash: row.Password, CreatedAt: row.CreatedAt}
}
