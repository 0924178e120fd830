package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/forgo/recipebook/internal/database"
	"github.com/forgo/recipebook/internal/model"
)

// DefaultMaxImageBytes caps uploads when no limit is configured
const DefaultMaxImageBytes = 5 << 20

// sniffLen is how much of an upload http.DetectContentType looks at
const sniffLen = 512

// imageExtensions maps accepted content types to the stored file extension
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// RecipeRepository defines the interface for recipe storage
type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	GetByID(ctx context.Context, id string) (*model.Recipe, error)
	SetImage(ctx context.Context, id, imageName string) error
	ApplyUpdate(ctx context.Context, update *model.RecipeUpdate) error
	Delete(ctx context.Context, id string) error
	DeleteDraft(ctx context.Context, id string, before time.Time) (bool, error)
	ListStaleDrafts(ctx context.Context, before time.Time) ([]string, error)
}

// IngredientRepository defines the interface for ingredient storage
type IngredientRepository interface {
	GetByID(ctx context.Context, id string) (*model.Ingredient, error)
	ListByRecipe(ctx context.Context, recipeID string) ([]*model.Ingredient, error)
}

// ImageStore defines the interface for recipe image storage
type ImageStore interface {
	Save(ctx context.Context, recipeID, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, recipeID string) error
	Remove(ctx context.Context, recipeID, name string) error
}

// RecipeMetrics receives domain counters
type RecipeMetrics interface {
	RecipeCreated()
	RecipeDeleted()
	IngredientsWritten(op string, n int)
	DraftsPruned(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecipeCreated()                 {}
func (nopMetrics) RecipeDeleted()                 {}
func (nopMetrics) IngredientsWritten(string, int) {}
func (nopMetrics) DraftsPruned(int)               {}

// RecipeService handles the recipe lifecycle
type RecipeService struct {
	recipeRepo     RecipeRepository
	ingredientRepo IngredientRepository
	images         ImageStore
	metrics        RecipeMetrics
	maxImageBytes  int64
	logger         *slog.Logger
}

// RecipeServiceConfig holds configuration for the recipe service
type RecipeServiceConfig struct {
	RecipeRepo     RecipeRepository
	IngredientRepo IngredientRepository
	Images         ImageStore
	Metrics        RecipeMetrics
	MaxImageBytes  int64
	Logger         *slog.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(cfg RecipeServiceConfig) *RecipeService {
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RecipeService{
		recipeRepo:     cfg.RecipeRepo,
		ingredientRepo: cfg.IngredientRepo,
		images:         cfg.Images,
		metrics:        cfg.Metrics,
		maxImageBytes:  cfg.MaxImageBytes,
		logger:         cfg.Logger.With(slog.String("component", "recipe_service")),
	}
}

// Create stores a new empty recipe owned by the caller
func (s *RecipeService) Create(ctx context.Context, p model.Principal) (*model.RecipeOverview, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}

	recipe := &model.Recipe{UserID: p.UserID}
	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, err
	}
	s.metrics.RecipeCreated()

	s.logger.Info("recipe created",
		slog.String("recipe_id", recipe.ID),
		slog.String("user_id", p.UserID),
	)
	return model.NewRecipeOverview(recipe), nil
}

// Show returns a recipe and whether the caller owns it. A missing recipe
// yields a nil recipe rather than an error.
func (s *RecipeService) Show(ctx context.Context, p model.Principal, id string) (*model.ShowRecipeResponse, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.ShowRecipeResponse{
		Recipe:       model.NewRecipeOverview(recipe),
		IsUserRecipe: recipe.IsOwnedBy(p),
	}, nil
}

// Edit returns a recipe for editing
func (s *RecipeService) Edit(ctx context.Context, id string) (*model.RecipeOverview, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	return model.NewRecipeOverview(recipe), nil
}

// getOwned loads a recipe the caller must own
func (s *RecipeService) getOwned(ctx context.Context, p model.Principal, id string) (*model.Recipe, error) {
	if p.IsZero() {
		return nil, ErrUnauthenticated
	}
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	if !recipe.IsOwnedBy(p) {
		return nil, ErrNotRecipeOwner
	}
	return recipe, nil
}

// UploadImage stores an image for the recipe as <username>.<ext> and
// records its name on the recipe.
func (s *RecipeService) UploadImage(ctx context.Context, p model.Principal, id string, file io.Reader) (*model.RecipeOverview, error) {
	if file == nil {
		return nil, ErrImageRequired
	}
	recipe, err := s.getOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return nil, ErrImageRequired
	}
	head = head[:n]

	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return nil, ErrUnsupportedImageType
	}

	body := &limitReader{r: io.MultiReader(bytes.NewReader(head), file), remaining: s.maxImageBytes}
	name, err := s.images.Save(ctx, recipe.ID, p.Username+"."+ext, body)
	if err != nil {
		if errors.Is(err, ErrImageTooLarge) {
			return nil, ErrImageTooLarge
		}
		return nil, err
	}

	if err := s.recipeRepo.SetImage(ctx, recipe.ID, name); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if prev := recipe.ImageName; prev != nil && *prev != "" && *prev != name {
		if err := s.images.Remove(ctx, recipe.ID, *prev); err != nil {
			s.logger.Warn("failed to remove replaced image",
				slog.String("recipe_id", recipe.ID),
				slog.String("image", *prev),
				slog.String("error", err.Error()),
			)
		}
	}
	recipe.ImageName = &name

	s.logger.Info("recipe image uploaded",
		slog.String("recipe_id", recipe.ID),
		slog.String("image", name),
	)
	return model.NewRecipeOverview(recipe), nil
}

// limitReader fails with ErrImageTooLarge once more than remaining bytes
// have been read.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrImageTooLarge
	}
	return n, err
}

// Update validates the request completely, then writes the recipe fields
// and its ingredients in one transaction. Ingredients are matched by ID,
// then by normalized name among the recipe's current ingredients; anything
// unmatched is created. Ingredients missing from the request stay linked.
func (s *RecipeService) Update(ctx context.Context, p model.Principal, id string, req *model.UpdateRecipeRequest) (*model.RecipeOverview, error) {
	recipe, err := s.getOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, ErrRecipeNameRequired
	case utf8.RuneCountInString(name) > model.MaxRecipeNameLength:
		return nil, ErrRecipeNameTooLong
	case strings.TrimSpace(req.Method) == "":
		return nil, ErrRecipeMethodRequired
	case strings.TrimSpace(req.Difficulty) == "":
		return nil, ErrRecipeDifficultyRequired
	case len(req.Ingredients) == 0:
		return nil, ErrIngredientsRequired
	}

	plan, err := s.planIngredients(ctx, recipe, req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipe.Name = name
	recipe.Method = req.Method
	recipe.Difficulty = strings.TrimSpace(req.Difficulty)
	recipe.Portion = req.Portion.Ptr()
	recipe.Tags = req.Tags
	recipe.PrepTime = req.PrepTime.Ptr()
	plan.Recipe = recipe

	if err := s.recipeRepo.ApplyUpdate(ctx, plan); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	s.metrics.IngredientsWritten("create", len(plan.Create))
	s.metrics.IngredientsWritten("update", len(plan.Update))

	recipe.Ingredients = mergeIngredients(recipe.Ingredients, plan)

	s.logger.Info("recipe updated",
		slog.String("recipe_id", recipe.ID),
		slog.Int("ingredients_created", len(plan.Create)),
		slog.Int("ingredients_updated", len(plan.Update)),
	)
	return model.NewRecipeOverview(recipe), nil
}

// planIngredients validates every entry and sorts them into creates and
// updates. Entries carrying a known ID are resolved first, so a row renamed
// by ID is never also claimed by a later name match. Nothing is written.
func (s *RecipeService) planIngredients(ctx context.Context, recipe *model.Recipe, inputs []model.IngredientInput) (*model.RecipeUpdate, error) {
	fields := make([]model.Ingredient, len(inputs))
	for i, in := range inputs {
		f, err := validateIngredient(i, in)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}

	current := make(map[string]*model.Ingredient, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		if ing == nil {
			continue
		}
		key := normalizeName(ing.Name)
		if _, ok := current[key]; !ok {
			current[key] = ing
		}
	}

	plan := &model.RecipeUpdate{}
	targets := make([]*model.Ingredient, len(inputs))
	byID := make(map[string]*model.Ingredient)
	byName := make(map[string]*model.Ingredient)

	for i, in := range inputs {
		if in.ID == "" {
			continue
		}
		target, err := s.claimByID(ctx, string(in.ID), byID, plan)
		if err != nil {
			return nil, err
		}
		if target != nil {
			targets[i] = target
			byName[normalizeName(fields[i].Name)] = target
		}
	}

	for i := range inputs {
		if targets[i] != nil {
			continue
		}
		key := normalizeName(fields[i].Name)
		targets[i] = claimByName(key, current, byID, byName, plan)
		byName[key] = targets[i]
	}

	for i, target := range targets {
		target.Name = fields[i].Name
		target.Quantity = fields[i].Quantity
		target.Unit = fields[i].Unit
	}
	return plan, nil
}

// claimByID loads the ingredient with the given ID, wherever it is linked.
// Unknown IDs return nil so the entry falls back to name matching.
func (s *RecipeService) claimByID(ctx context.Context, id string, byID map[string]*model.Ingredient, plan *model.RecipeUpdate) (*model.Ingredient, error) {
	if planned, ok := byID[id]; ok {
		return planned, nil
	}
	existing, err := s.ingredientRepo.GetByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}
	byID[existing.ID] = existing
	plan.Update = append(plan.Update, existing)
	return existing, nil
}

// claimByName reuses an entry planned under the same name, then a current
// ingredient not already claimed by ID, and otherwise plans a new row.
func claimByName(key string, current, byID, byName map[string]*model.Ingredient, plan *model.RecipeUpdate) *model.Ingredient {
	if planned, ok := byName[key]; ok {
		return planned
	}
	if existing, ok := current[key]; ok {
		if _, claimed := byID[existing.ID]; !claimed {
			copied := *existing
			byID[copied.ID] = &copied
			plan.Update = append(plan.Update, &copied)
			return &copied
		}
	}

	created := &model.Ingredient{}
	plan.Create = append(plan.Create, created)
	return created
}

func validateIngredient(i int, in model.IngredientInput) (model.Ingredient, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Ingredient{}, &IngredientError{Index: i, Err: ErrIngredientNameRequired}
	}
	if utf8.RuneCountInString(name) > model.MaxIngredientNameLength {
		return model.Ingredient{}, &IngredientError{Index: i, Err: ErrIngredientNameTooLong}
	}
	if in.Quantity.IsEmpty() {
		return model.Ingredient{}, &IngredientError{Index: i, Err: ErrIngredientQuantityRequired}
	}
	quantity, err := in.Quantity.Float()
	if err != nil {
		return model.Ingredient{}, &IngredientError{Index: i, Err: ErrIngredientQuantityNotNumeric}
	}
	return model.Ingredient{Name: name, Quantity: quantity, Unit: in.Unit}, nil
}

// normalizeName folds case and composes Unicode so "Crème" and "CRÈME"
// match regardless of how the accent was encoded.
func normalizeName(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// mergeIngredients returns the recipe's ingredient list after an update
func mergeIngredients(before []*model.Ingredient, plan *model.RecipeUpdate) []*model.Ingredient {
	written := make(map[string]*model.Ingredient, len(plan.Create)+len(plan.Update))
	for _, ing := range plan.Update {
		written[ing.ID] = ing
	}
	for _, ing := range plan.Create {
		written[ing.ID] = ing
	}

	out := make([]*model.Ingredient, 0, len(before)+len(plan.Create))
	for _, ing := range before {
		if ing == nil {
			continue
		}
		if w, ok := written[ing.ID]; ok {
			out = append(out, w)
			delete(written, ing.ID)
			continue
		}
		out = append(out, ing)
	}
	for _, ing := range plan.Update {
		if _, ok := written[ing.ID]; ok {
			out = append(out, ing)
		}
	}
	out = append(out, plan.Create...)
	return out
}

// Cancel deletes a recipe together with the ingredients no other recipe
// uses, and returns the recipe as it was before deletion.
func (s *RecipeService) Cancel(ctx context.Context, p model.Principal, id string) (*model.RecipeOverview, error) {
	recipe, err := s.getOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.ingredientRepo.ListByRecipe(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	recipe.Ingredients = ingredients

	if err := s.recipeRepo.Delete(ctx, recipe.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	s.metrics.RecipeDeleted()
	s.deleteImages(ctx, recipe.ID)

	s.logger.Info("recipe cancelled",
		slog.String("recipe_id", recipe.ID),
		slog.Int("ingredients", len(ingredients)),
	)
	return model.NewRecipeOverview(recipe), nil
}

// deleteImages removes a recipe's images; failures are only logged
func (s *RecipeService) deleteImages(ctx context.Context, recipeID string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, recipeID); err != nil {
		s.logger.Warn("failed to delete recipe images",
			slog.String("recipe_id", recipeID),
			slog.String("error", err.Error()),
		)
	}
}

// PruneDrafts deletes recipes that were never named and were created
// before the cutoff. Each candidate is re-checked as it is deleted, so a
// draft named after the listing survives. It returns how many were removed.
func (s *RecipeService) PruneDrafts(ctx context.Context, before time.Time) (int, error) {
	ids, err := s.recipeRepo.ListStaleDrafts(ctx, before)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			s.metrics.DraftsPruned(pruned)
			return pruned, err
		}
		deleted, err := s.recipeRepo.DeleteDraft(ctx, id, before)
		if err != nil {
			s.metrics.DraftsPruned(pruned)
			return pruned, fmt.Errorf("failed to prune draft %s: %w", id, err)
		}
		if !deleted {
			s.logger.Debug("draft no longer prunable", slog.String("recipe_id", id))
			continue
		}
		s.metrics.RecipeDeleted()
		s.deleteImages(ctx, id)
		pruned++
	}
	s.metrics.DraftsPruned(pruned)
	return pruned, nil
}
