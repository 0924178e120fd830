package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/testing/testdb"
)

func strPtr(s string) *string { return &s }

func newRecipe(t *testing.T, repo *RecipeRepository, userID string) *model.Recipe {
	t.Helper()
	r := &model.Recipe{UserID: userID}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func TestRecipeRepository_CreateAndGet(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)
	ctx := context.Background()

	r := newRecipe(t, repo, "user-1")
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "", got.Name)
	assert.Nil(t, got.Portion)
	assert.Empty(t, got.Ingredients)
	assert.True(t, got.IsDraft())

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecipeRepository_SetImage(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)
	ctx := context.Background()

	r := newRecipe(t, repo, "user-1")
	require.NoError(t, repo.SetImage(ctx, r.ID, "alice.png"))

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ImageName)
	assert.Equal(t, "alice.png", *got.ImageName)

	assert.ErrorIs(t, repo.SetImage(ctx, "missing", "x.png"), database.ErrNotFound)
}

func TestRecipeRepository_ApplyUpdate(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)
	ingredients := NewIngredientRepository(tdb.DB)
	ctx := context.Background()

	r := newRecipe(t, repo, "user-1")
	portion := 4

	r.Name = "Pancakes"
	r.Method = "Mix and fry"
	r.Difficulty = "easy"
	r.Portion = &portion
	require.NoError(t, repo.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: r,
		Create: []*model.Ingredient{
			{Name: "Milk", Quantity: 300, Unit: strPtr("ml")},
			{Name: "Eggs", Quantity: 2},
		},
	}))

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", got.Name)
	require.NotNil(t, got.Portion)
	assert.Equal(t, 4, *got.Portion)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "Eggs", got.Ingredients[0].Name)
	assert.Equal(t, "Milk", got.Ingredients[1].Name)

	// Second save overwrites Eggs in place and adds Flour.
	eggs := got.Ingredients[0]
	eggs.Quantity = 3
	require.NoError(t, repo.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: got,
		Create: []*model.Ingredient{{Name: "Flour", Quantity: 200, Unit: strPtr("g")}},
		Update: []*model.Ingredient{eggs},
	}))

	list, err := ingredients.ListByRecipe(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Eggs", "Flour", "Milk"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, eggs.ID, list[0].ID)
	assert.Equal(t, 3.0, list[0].Quantity)

	var count int64
	require.NoError(t, tdb.DB.Model(&ingredientRow{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestRecipeRepository_ApplyUpdate_RollsBack(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)
	ctx := context.Background()

	r := newRecipe(t, repo, "user-1")
	r.Name = "Soup"
	err := repo.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: r,
		Create: []*model.Ingredient{{Name: "Water", Quantity: 1}},
		Update: []*model.Ingredient{{ID: "ghost", Name: "Salt", Quantity: 1}},
	})
	require.ErrorIs(t, err, database.ErrNotFound)

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Name)
	assert.Empty(t, got.Ingredients)

	var count int64
	require.NoError(t, tdb.DB.Model(&ingredientRow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeRepository_ApplyUpdate_MissingRecipe(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)

	err := repo.ApplyUpdate(context.Background(), &model.RecipeUpdate{
		Recipe: &model.Recipe{ID: "missing", Name: "x"},
	})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRecipeRepository_Delete_KeepsSharedIngredients(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)
	ingredients := NewIngredientRepository(tdb.DB)
	ctx := context.Background()

	first := newRecipe(t, repo, "user-1")
	first.Name = "First"
	salt := &model.Ingredient{Name: "Salt", Quantity: 1}
	pepper := &model.Ingredient{Name: "Pepper", Quantity: 1}
	require.NoError(t, repo.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: first,
		Create: []*model.Ingredient{salt, pepper},
	}))

	second := newRecipe(t, repo, "user-2")
	second.Name = "Second"
	require.NoError(t, repo.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: second,
		Update: []*model.Ingredient{salt},
	}))

	require.NoError(t, repo.Delete(ctx, first.ID))

	gone, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := ingredients.GetByID(ctx, salt.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	orphan, err := ingredients.GetByID(ctx, pepper.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan)

	list, err := ingredients.ListByRecipe(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, salt.ID, list[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, first.ID), database.ErrNotFound)
}

func TestRecipeRepository_ListStaleDrafts(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)
	ctx := context.Background()

	draft := newRecipe(t, repo, "user-1")
	named := newRecipe(t, repo, "user-1")
	named.Name = "Named"
	require.NoError(t, repo.ApplyUpdate(ctx, &model.RecipeUpdate{Recipe: named}))

	ids, err := repo.ListStaleDrafts(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{draft.ID}, ids)

	ids, err = repo.ListStaleDrafts(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRecipeRepository_DeleteDraft(t *testing.T) {
	tdb := testdb.New(t)
	repo := NewRecipeRepository(tdb.DB)
	ingredients := NewIngredientRepository(tdb.DB)
	ctx := context.Background()
	cutoff := time.Now().Add(time.Minute)

	draft := newRecipe(t, repo, "user-1")

	// Listed as stale, then named before the prune reaches it
	renamed := newRecipe(t, repo, "user-1")
	ids, err := repo.ListStaleDrafts(ctx, cutoff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{draft.ID, renamed.ID}, ids)

	renamed.Name = "Named Later"
	salt := &model.Ingredient{Name: "Salt", Quantity: 1}
	require.NoError(t, repo.ApplyUpdate(ctx, &model.RecipeUpdate{
		Recipe: renamed,
		Create: []*model.Ingredient{salt},
	}))

	deleted, err := repo.DeleteDraft(ctx, renamed.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, deleted)

	kept, err := repo.GetByID(ctx, renamed.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "Named Later", kept.Name)
	keptSalt, err := ingredients.GetByID(ctx, salt.ID)
	require.NoError(t, err)
	assert.NotNil(t, keptSalt)

	// Too recent for the cutoff
	deleted, err = repo.DeleteDraft(ctx, draft.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteDraft(ctx, draft.ID, cutoff)
	require.NoError(t, err)
	assert.True(t, deleted)
	gone, err := repo.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err = repo.DeleteDraft(ctx, draft.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDifference(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, difference([]string{"a", "b", "c"}, []string{"b", "d"}))
	assert.Empty(t, difference([]string{"a"}, []string{"a"}))
}
