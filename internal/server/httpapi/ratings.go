package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type RatingService interface {
	List(ctx context.Context, userID string) ([]models.Rating, error)
	Get(ctx context.Context, userID, id string) (*models.Rating, error)
	Today(ctx context.Context, userID string) (*models.Rating, error)
	Create(ctx context.Context, r *models.Rating) (*models.Rating, error)
	Update(ctx context.Context, r *models.Rating) (*models.Rating, error)
	Delete(ctx context.Context, userID, id string) error
}

type RatingHandler struct {
	ratings RatingService
	logger  logging.Logger
}

func NewRatingHandler(ratings RatingService, logger logging.Logger) *RatingHandler {
	return &RatingHandler{ratings: ratings, logger: logger}
}

func (h *RatingHandler) Register(r chi.Router) {
	r.Get("/rating", h.handleList)
	r.Post("/rating", h.handleCreate)
	r.Get("/rating/today", h.handleToday)
	r.Get("/rating/{id}", h.handleGet)
	r.Patch("/rating/{id}", h.handleUpdate)
	r.Delete("/rating/{id}", h.handleDelete)
}

func (h *RatingHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.ratings.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]api.Rating, 0, len(list))
	for i := range list {
		out = append(out, toAPIRating(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RatingHandler) handleToday(w http.ResponseWriter, r *http.Request) {
	rt, err := h.ratings.Today(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIRating(rt))
}

func (h *RatingHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rt, err := h.ratings.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIRating(rt))
}

func (h *RatingHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.RatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rt := &models.Rating{UserID: UserID(r.Context()), Value: req.Value, Message: req.Message}
	if req.CreatedAt != nil {
		rt.CreatedAt = req.CreatedAt.UTC()
	}

	rt, err := h.ratings.Create(r.Context(), rt)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAPIRating(rt))
}

func (h *RatingHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.RatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rt := &models.Rating{ID: chi.URLParam(r, "id"), UserID: UserID(r.Context()), Value: req.Value, Message: req.Message}
	rt, err := h.ratings.Update(r.Context(), rt)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIRating(rt))
}

func (h *RatingHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ratings.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
