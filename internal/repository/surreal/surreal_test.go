package surreal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/testing/testdb"
)

func TestRecordKey(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"record id", models.RecordID{Table: "recipe", ID: "abc"}, "abc"},
		{"record id pointer", &models.RecordID{Table: "recipe", ID: "abc"}, "abc"},
		{"plain string", "recipe:abc", "abc"},
		{"bracketed string", "recipe:⟨1f0c-22⟩", "1f0c-22"},
		{"bare key", "abc", "abc"},
		{"unknown", 42, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recordKey(tt.in))
		})
	}
}

func TestRowHelpers(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	row := map[string]interface{}{
		"id":         models.RecordID{Table: "recipe", ID: "r1"},
		"user_id":    "u1",
		"name":       "Soup",
		"portion":    uint64(4),
		"tags":       "dinner",
		"created_at": models.CustomDateTime{Time: now},
		"updated_at": now.Format(time.RFC3339Nano),
	}

	r := parseRecipe(row)
	assert.Equal(t, "r1", r.ID)
	assert.Equal(t, "Soup", r.Name)
	require.NotNil(t, r.Portion)
	assert.Equal(t, 4, *r.Portion)
	assert.Nil(t, r.PrepTime)
	assert.Nil(t, r.ImageName)
	require.NotNil(t, r.Tags)
	assert.Equal(t, "dinner", *r.Tags)
	assert.True(t, r.CreatedAt.Equal(now))
	assert.True(t, r.UpdatedAt.Equal(now))

	ings := parseIngredients([]map[string]interface{}{
		{"id": "ingredients:b", "name": "Salt", "quantity": int64(1)},
		{"id": "ingredients:a", "name": "Salt", "quantity": 0.5, "unit": "g"},
		{"id": "ingredients:c", "name": "Egg", "quantity": uint64(2)},
	})
	require.Len(t, ings, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{ings[0].ID, ings[1].ID, ings[2].ID})
	assert.Equal(t, 0.5, ings[1].Quantity)
	assert.Equal(t, 2.0, ings[0].Quantity)
}

func TestNoneIfNil(t *testing.T) {
	assert.Nil(t, noneIfNil[int](nil))
	n := 3
	assert.Equal(t, 3, noneIfNil(&n))
}

func TestRecipeRepository_Live(t *testing.T) {
	tdb := testdb.NewSurreal(t)
	defer tdb.Close()

	ctx := tdb.Ctx()
	recipes := NewRecipeRepository(tdb.DB)
	ingredients := NewIngredientRepository(tdb.DB)

	first := &model.Recipe{UserID: "u1"}
	require.NoError(t, recipes.Create(ctx, first))

	first.Name = "First"
	salt := &model.Ingredient{Name: "Salt", Quantity: 1}
	pepper := &model.Ingredient{Name: "Pepper", Quantity: 2}
	require.NoError(t, recipes.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: first,
		Create: []*model.Ingredient{salt, pepper},
	}))

	got, err := recipes.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Name)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "Pepper", got.Ingredients[0].Name)

	second := &model.Recipe{UserID: "u2", Name: "Second"}
	require.NoError(t, recipes.Create(ctx, second))
	require.NoError(t, recipes.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: second,
		Update: []*model.Ingredient{salt},
	}))

	require.NoError(t, recipes.Delete(ctx, first.ID))

	kept, err := ingredients.GetByID(ctx, salt.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
	orphan, err := ingredients.GetByID(ctx, pepper.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan)

	assert.ErrorIs(t, recipes.Delete(ctx, first.ID), database.ErrNotFound)
}

func TestRecipeRepository_DeleteDraft_Live(t *testing.T) {
	tdb := testdb.NewSurreal(t)
	defer tdb.Close()

	ctx := tdb.Ctx()
	recipes := NewRecipeRepository(tdb.DB)
	cutoff := time.Now().Add(time.Minute)

	draft := &model.Recipe{UserID: "u1"}
	require.NoError(t, recipes.Create(ctx, draft))
	named := &model.Recipe{UserID: "u1"}
	require.NoError(t, recipes.Create(ctx, named))
	named.Name = "Named"
	require.NoError(t, recipes.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: named,
		Create: []*model.Ingredient{{Name: "Salt", Quantity: 1}},
	}))

	deleted, err := recipes.DeleteDraft(ctx, named.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, deleted)
	kept, err := recipes.GetByID(ctx, named.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Len(t, kept.Ingredients, 1)

	deleted, err = recipes.DeleteDraft(ctx, draft.ID, cutoff)
	require.NoError(t, err)
	assert.True(t, deleted)
	gone, err := recipes.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUserRepository_Live(t *testing.T) {
	tdb := testdb.NewSurreal(t)
	defer tdb.Close()

	ctx := tdb.Ctx()
	users := NewUserRepository(tdb.DB)

	u := &model.User{Username: "alice", Hash: "h"}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	assert.ErrorIs(t, users.Create(ctx, &model.User{Username: "alice", Hash: "x"}), database.ErrDuplicate)
}
