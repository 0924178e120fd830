package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/forgo/recipebook/internal/middleware"
	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/service"
	"github.com/forgo/recipebook/internal/storage"
)

// uploadFormField is the multipart field carrying the image
const uploadFormField = "file"

// multipartOverhead is allowed on top of the image limit for part headers
// and boundaries.
const multipartOverhead = 64 << 10

// ImageOpener reads stored recipe images
type ImageOpener interface {
	Open(recipeID, name string) (*os.File, error)
}

// RecipeHandler handles recipe endpoints
type RecipeHandler struct {
	recipes        *service.RecipeService
	images         ImageOpener
	maxUploadBytes int64
	logger         *slog.Logger
}

// RecipeHandlerConfig holds dependencies for the recipe handler
type RecipeHandlerConfig struct {
	Recipes        *service.RecipeService
	Images         ImageOpener
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(cfg RecipeHandlerConfig) *RecipeHandler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = service.DefaultMaxImageBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RecipeHandler{
		recipes:        cfg.Recipes,
		images:         cfg.Images,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         cfg.Logger,
	}
}

// Create handles POST /api/createRecipe
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Create(r.Context(), middleware.GetPrincipal(r.Context()))
	if err != nil {
		h.writeError(w, r, err, "create recipe")
		return
	}
	WriteJSON(w, http.StatusCreated, recipe)
}

// Show handles GET /api/recipe/{id}. A missing recipe is a 200 with a null
// recipe.
func (h *RecipeHandler) Show(w http.ResponseWriter, r *http.Request) {
	resp, err := h.recipes.Show(r.Context(), middleware.GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "show recipe")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Edit handles GET /api/editRecipe/{id}
func (h *RecipeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Edit(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "edit recipe")
		return
	}
	WriteJSON(w, http.StatusOK, recipe)
}

// Update handles POST /api/recipe/{id}/updateRecipe
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateRecipeRequest
	if err := DecodeJSONLenient(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError(err.Error()))
		return
	}

	recipe, err := h.recipes.Update(r.Context(), middleware.GetPrincipal(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		h.writeError(w, r, err, "update recipe")
		return
	}
	WriteJSON(w, http.StatusOK, recipe)
}

// Cancel handles DELETE /api/recipe/{id}/cancelRecipe
func (h *RecipeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Cancel(r.Context(), middleware.GetPrincipal(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "cancel recipe")
		return
	}
	WriteJSON(w, http.StatusOK, recipe)
}

// UploadImage handles POST /api/recipe/{id}/uploadRecipeImage. The file
// part is streamed to storage without buffering the whole body.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		WriteError(w, model.NewBadRequestError("expected a multipart/form-data body"))
		return
	}

	part, err := findPart(mr, uploadFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, err, "upload recipe image")
			return
		}
		WriteError(w, model.NewBadRequestError("malformed multipart body"))
		return
	}
	var file io.Reader
	if part != nil {
		defer func() { _ = part.Close() }()
		file = part
	}

	recipe, err := h.recipes.UploadImage(r.Context(), middleware.GetPrincipal(r.Context()), r.PathValue("id"), file)
	if err != nil {
		h.writeError(w, r, err, "upload recipe image")
		return
	}
	WriteJSON(w, http.StatusOK, recipe)
}

// findPart returns the first part with the given form name, or nil when the
// body has none.
func findPart(mr *multipart.Reader, name string) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == name {
			return part, nil
		}
		_ = part.Close()
	}
}

// Image handles GET /api/recipe/{id}/image
func (h *RecipeHandler) Image(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Edit(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, "get recipe image")
		return
	}
	if recipe.ImageName == nil || h.images == nil {
		h.writeError(w, r, service.ErrImageNotFound, "get recipe image")
		return
	}

	f, err := h.images.Open(recipe.ID, *recipe.ImageName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			err = service.ErrImageNotFound
		}
		h.writeError(w, r, err, "get recipe image")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		h.writeError(w, r, err, "get recipe image")
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=60")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// writeError maps err to a problem response and logs unexpected failures
func (h *RecipeHandler) writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		err = service.ErrImageTooLarge
	}

	pd := MapServiceErrorWithContext(err, operation)
	if pd.Status >= http.StatusInternalServerError {
		h.logger.Error(operation+" failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	WriteError(w, pd)
}
