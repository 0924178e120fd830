package handler

import (
	"log/slog"
	"net/http"

	"github.com/forgo/recipebook/internal/middleware"
	"github.com/forgo/recipebook/internal/model"
	"github.com/forgo/recipebook/internal/service"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := DecodeJSON(w, r, &creds); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.authService.Register(r.Context(), creds)
	if err != nil {
		h.handleAuthError(w, r, err, "register")
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := DecodeJSON(w, r, &creds); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.authService.Login(r.Context(), creds)
	if err != nil {
		h.handleAuthError(w, r, err, "login")
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) handleAuthError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	pd := MapServiceErrorWithContext(err, operation)
	if pd.Status >= http.StatusInternalServerError {
		h.logger.Error(operation+" failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}
	WriteError(w, pd)
}
