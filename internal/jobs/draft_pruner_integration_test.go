package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/repository"
	"github.com/forgo/recipebook/internal/service"
	"github.com/forgo/recipebook/internal/testing/fixtures"
	"github.com/forgo/recipebook/internal/testing/testdb"
)

func TestDraftPruner_RunOnce_Database(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	recipes := service.NewRecipeService(service.RecipeServiceConfig{
		RecipeRepo:     repository.NewRecipeRepository(tdb.DB),
		IngredientRepo: repository.NewIngredientRepository(tdb.DB),
		Logger:         logger,
	})

	now := time.Now().UTC()
	owner := f.CreateUser(t)
	stale := f.CreateRecipe(t, owner, fixtures.CreatedAt(now.Add(-48*time.Hour)))
	fresh := f.CreateRecipe(t, owner, fixtures.CreatedAt(now.Add(-time.Hour)))
	named := f.CreateRecipe(t, owner,
		fixtures.WithName("Old Soup"),
		fixtures.WithIngredient("Water", 1, "l"),
		fixtures.CreatedAt(now.Add(-72*time.Hour)),
	)

	p := NewDraftPruner(DraftPrunerConfig{
		Recipes: recipes,
		MaxAge:  24 * time.Hour,
		Logger:  logger,
	})
	p.now = func() time.Time { return now }

	n, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	ctx := context.Background()
	for _, tc := range []struct {
		id   string
		want bool
	}{
		{stale.ID, false},
		{fresh.ID, true},
		{named.ID, true},
	} {
		got, err := recipes.Edit(ctx, tc.id)
		exists := err == nil && got != nil
		if exists != tc.want {
			t.Errorf("recipe %s exists = %v (err %v), want %v", tc.id, exists, err, tc.want)
		}
	}
}

// namingRecipeRepo runs afterList once the stale drafts have been listed
type namingRecipeRepo struct {
	*repository.RecipeRepository
	afterList func(ctx context.Context, ids []string)
}

func (r *namingRecipeRepo) ListStaleDrafts(ctx context.Context, before time.Time) ([]string, error) {
	ids, err := r.RecipeRepository.ListStaleDrafts(ctx, before)
	if err == nil && r.afterList != nil {
		r.afterList(ctx, ids)
	}
	return ids, err
}

func TestDraftPruner_SparesDraftNamedAfterListing(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := &namingRecipeRepo{RecipeRepository: repository.NewRecipeRepository(tdb.DB)}
	recipes := service.NewRecipeService(service.RecipeServiceConfig{
		RecipeRepo:     repo,
		IngredientRepo: repository.NewIngredientRepository(tdb.DB),
		Logger:         logger,
	})

	now := time.Now().UTC()
	owner := f.CreateUser(t)
	draft := f.CreateRecipe(t, owner, fixtures.CreatedAt(now.Add(-48*time.Hour)))
	principal := model.Principal{UserID: owner.ID, Username: owner.Username}

	repo.afterList = func(ctx context.Context, ids []string) {
		if len(ids) != 1 || ids[0] != draft.ID {
			t.Errorf("listed = %v, want [%s]", ids, draft.ID)
		}
		_, err := recipes.Update(ctx, principal, draft.ID, &model.UpdateRecipeRequest{
			Name:        "Rescued Stew",
			Method:      "Simmer.",
			Difficulty:  "easy",
			Ingredients: []model.IngredientInput{{Name: "Beans", Quantity: model.QuantityOf("1")}},
		})
		if err != nil {
			t.Errorf("Update() error = %v", err)
		}
	}

	p := NewDraftPruner(DraftPrunerConfig{Recipes: recipes, MaxAge: 24 * time.Hour, Logger: logger})
	p.now = func() time.Time { return now }

	n, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if n != 0 {
		t.Errorf("pruned = %d, want 0", n)
	}

	got, err := recipes.Edit(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if got.Name != "Rescued Stew" || len(got.Ingredients) != 1 {
		t.Errorf("recipe = %+v, want the named recipe with its ingredient", got)
	}
}
