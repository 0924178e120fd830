package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/repository"
)

// DefaultPassword is the plain-text password of every fixture user
const DefaultPassword = "testpass123"

// Factory creates test entities in the database
type Factory struct {
	db      *gorm.DB
	users   *repository.UserRepository
	recipes *repository.RecipeRepository
}

// New creates a new fixture factory
func New(db *gorm.DB) *Factory {
	return &Factory{
		db:      db,
		users:   repository.NewUserRepository(db),
		recipes: repository.NewRecipeRepository(db),
	}
}

func randomID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Username string
	Password string
}

// WithUsername sets the username
func WithUsername(name string) func(*UserOpts) {
	return func(o *UserOpts) { o.Username = name }
}

// WithPassword sets the plain-text password
func WithPassword(password string) func(*UserOpts) {
	return func(o *UserOpts) { o.Password = password }
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Username: "user_" + randomID(),
		Password: DefaultPassword,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}

	user := &model.User{Username: o.Username, Hash: string(hash)}
	if err := f.users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	return user
}

// ============================================================================
// Recipe Fixtures
// ============================================================================

// RecipeOpts customizes recipe creation. A recipe with no name stays a
// draft.
type RecipeOpts struct {
	Name        string
	Method      string
	Difficulty  string
	Portion     *int
	Ingredients []*model.Ingredient
	CreatedAt   time.Time
}

// WithName names the recipe and fills method and difficulty defaults
func WithName(name string) func(*RecipeOpts) {
	return func(o *RecipeOpts) {
		o.Name = name
		if o.Method == "" {
			o.Method = "Combine and cook."
		}
		if o.Difficulty == "" {
			o.Difficulty = "easy"
		}
	}
}

// WithPortion sets the number of portions
func WithPortion(n int) func(*RecipeOpts) {
	return func(o *RecipeOpts) { o.Portion = &n }
}

// WithIngredient adds an ingredient; an empty unit is stored as null
func WithIngredient(name string, quantity float64, unit string) func(*RecipeOpts) {
	return func(o *RecipeOpts) {
		ing := &model.Ingredient{Name: name, Quantity: quantity}
		if unit != "" {
			ing.Unit = &unit
		}
		o.Ingredients = append(o.Ingredients, ing)
	}
}

// CreatedAt backdates the recipe
func CreatedAt(at time.Time) func(*RecipeOpts) {
	return func(o *RecipeOpts) { o.CreatedAt = at }
}

// CreateRecipe creates a recipe owned by user
func (f *Factory) CreateRecipe(t *testing.T, user *model.User, opts ...func(*RecipeOpts)) *model.Recipe {
	t.Helper()

	o := &RecipeOpts{}
	for _, fn := range opts {
		fn(o)
	}

	recipe := &model.Recipe{UserID: user.ID}
	if err := f.recipes.Create(ctx(t), recipe); err != nil {
		t.Fatalf("fixtures: failed to create recipe: %v", err)
	}
	if !o.CreatedAt.IsZero() {
		err := f.db.WithContext(ctx(t)).Table("recipe").
			Where("id = ?", recipe.ID).
			Update("created_at", o.CreatedAt.UTC()).Error
		if err != nil {
			t.Fatalf("fixtures: failed to backdate recipe: %v", err)
		}
		recipe.CreatedAt = o.CreatedAt.UTC()
	}
	if o.Name == "" && len(o.Ingredients) == 0 {
		return recipe
	}

	recipe.Name = o.Name
	recipe.Method = o.Method
	recipe.Difficulty = o.Difficulty
	recipe.Portion = o.Portion
	if err := f.recipes.ApplyUpdate(ctx(t), &model.RecipeUpdate{
		Recipe: recipe,
		Create: o.Ingredients,
	}); err != nil {
		t.Fatalf("fixtures: failed to fill recipe: %v", err)
	}

	stored, err := f.recipes.GetByID(ctx(t), recipe.ID)
	if err != nil || stored == nil {
		t.Fatalf("fixtures: failed to reload recipe %s: %v", recipe.ID, err)
	}
	return stored
}
