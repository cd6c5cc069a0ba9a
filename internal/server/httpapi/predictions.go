package httpapi

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/go-chi/chi/v5"
)

type PredictionService interface {
	PreprocessJournal(ctx context.Context, body string) ([][]float64, error)
	PredictJournal(ctx context.Context, body string) (mood.Prediction, error)
	PredictSelfie(ctx context.Context, userID string, image io.Reader) (mood.Prediction, error)
}

// PredictionHandler serves the remote inference endpoints and the model
// documents used by local inference.
type PredictionHandler struct {
	predictions PredictionService
	modelDir    string
	logger      logging.Logger
}

func NewPredictionHandler(predictions PredictionService, modelDir string, logger logging.Logger) *PredictionHandler {
	return &PredictionHandler{predictions: predictions, modelDir: modelDir, logger: logger}
}

func (h *PredictionHandler) Register(r chi.Router) {
	r.Post("/journal/preprocess", h.handlePreprocessJournal)
	r.Post("/journal/predict", h.handlePredictJournal)
	r.Post("/selfie/predict", h.handlePredictSelfie)
	r.Get("/models/{kind}", h.handleModel)
}

func (h *PredictionHandler) handlePreprocessJournal(w http.ResponseWriter, r *http.Request) {
	var req api.TextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	rows, err := h.predictions.PreprocessJournal(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FeaturesResponse{Features: rows})
}

func (h *PredictionHandler) handlePredictJournal(w http.ResponseWriter, r *http.Request) {
	var req api.TextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	p, err := h.predictions.PredictJournal(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PredictionResponse{Prediction: p})
}

func (h *PredictionHandler) handlePredictSelfie(w http.ResponseWriter, r *http.Request) {
	f, err := imagePart(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer f.Close()
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	p, err := h.predictions.PredictSelfie(r.Context(), UserID(r.Context()), f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PredictionResponse{Prediction: p})
}

// handleModel serves <modelDir>/<kind>.json for the journal and selfie
// models.
func (h *PredictionHandler) handleModel(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != "journal" && kind != "selfie" {
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "unknown model " + kind})
		return
	}

	path := filepath.Join(h.modelDir, kind+".json")
	if _, err := os.Stat(path); err != nil {
		h.logger.Warn(r.Context(), "model document missing", "path", path, "error", err)
		writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "model not available"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}
