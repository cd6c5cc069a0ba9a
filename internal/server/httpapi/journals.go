package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type JournalService interface {
	List(ctx context.Context, userID string) ([]models.Journal, error)
	Get(ctx context.Context, userID, id string) (*models.Journal, error)
	Create(ctx context.Context, j *models.Journal) (*models.Journal, error)
	Update(ctx context.Context, j *models.Journal) (*models.Journal, error)
	Delete(ctx context.Context, userID, id string) error
}

type JournalHandler struct {
	journals JournalService
	logger   logging.Logger
}

func NewJournalHandler(journals JournalService, logger logging.Logger) *JournalHandler {
	return &JournalHandler{journals: journals, logger: logger}
}

func (h *JournalHandler) Register(r chi.Router) {
	r.Get("/journal", h.handleList)
	r.Post("/journal", h.handleCreate)
	r.Get("/journal/{id}", h.handleGet)
	r.Patch("/journal/{id}", h.handleUpdate)
	r.Delete("/journal/{id}", h.handleDelete)
}

func journalFromRequest(req api.JournalRequest) *models.Journal {
	j := &models.Journal{
		Title:            req.Title,
		Body:             req.Body,
		Label:            req.Label,
		Probability:      req.Probability,
		ManualCorrection: req.ManualCorrection,
	}
	if req.CreatedAt != nil {
		j.CreatedAt = req.CreatedAt.UTC()
	}
	return j
}

func (h *JournalHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.journals.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]api.Journal, 0, len(list))
	for i := range list {
		out = append(out, toAPIJournal(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *JournalHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	j, err := h.journals.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIJournal(j))
}

func (h *JournalHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.JournalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	j := journalFromRequest(req)
	j.UserID = UserID(r.Context())

	j, err := h.journals.Create(r.Context(), j)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAPIJournal(j))
}

func (h *JournalHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.JournalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	j := journalFromRequest(req)
	j.ID = chi.URLParam(r, "id")
	j.UserID = UserID(r.Context())

	j, err := h.journals.Update(r.Context(), j)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIJournal(j))
}

func (h *JournalHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.journals.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
