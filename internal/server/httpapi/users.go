package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, string, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	Capability(ctx context.Context, userID string) (mood.Capability, error)
	ResolveCapability(ctx context.Context, userID string, next mood.Capability) (mood.Capability, error)
}

type UserHandler struct {
	users  UserService
	logger logging.Logger
}

func NewUserHandler(users UserService, logger logging.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// RegisterPublic mounts the routes that need no token.
func (h *UserHandler) RegisterPublic(r chi.Router) {
	r.Post("/user/register", h.handleRegister)
	r.Post("/user/login", h.handleLogin)
}

func (h *UserHandler) Register(r chi.Router) {
	r.Get("/user", h.handleGet)
	r.Get("/user/capability", h.handleGetCapability)
	r.Patch("/user/capability", h.handleResolveCapability)
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info(r.Context(), "registered", "username", user.UserName)
	writeJSON(w, http.StatusCreated, api.UserResponse{ID: user.ID, Username: user.UserName, Capability: user.Capability})
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, userID, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: token, UserID: userID})
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.UserResponse{ID: user.ID, Username: user.UserName, Capability: user.Capability})
}

func (h *UserHandler) handleGetCapability(w http.ResponseWriter, r *http.Request) {
	c, err := h.users.Capability(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.CapabilityResponse{Capability: c})
}

func (h *UserHandler) handleResolveCapability(w http.ResponseWriter, r *http.Request) {
	var req api.CapabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.users.ResolveCapability(r.Context(), UserID(r.Context()), req.Capability)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.CapabilityResponse{Capability: c})
}
