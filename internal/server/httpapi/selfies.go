package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// maxUpload bounds a single selfie upload.
const maxUpload = 10 << 20

type SelfieService interface {
	List(ctx context.Context, userID string) ([]models.Selfie, error)
	Get(ctx context.Context, userID, id string) (*models.Selfie, error)
	Create(ctx context.Context, s *models.Selfie, image io.Reader) (*models.Selfie, error)
	Update(ctx context.Context, s *models.Selfie) (*models.Selfie, error)
	Delete(ctx context.Context, userID, id string) error
	Image(ctx context.Context, userID, id string) (io.ReadCloser, *models.Selfie, error)
	ImageURL(ctx context.Context, userID, id string) (string, bool, error)
}

type SelfieHandler struct {
	selfies SelfieService
	logger  logging.Logger
}

func NewSelfieHandler(selfies SelfieService, logger logging.Logger) *SelfieHandler {
	return &SelfieHandler{selfies: selfies, logger: logger}
}

func (h *SelfieHandler) Register(r chi.Router) {
	r.Get("/selfie", h.handleList)
	r.Post("/selfie", h.handleCreate)
	r.Get("/selfie/{id}", h.handleGet)
	r.Get("/selfie/{id}/image", h.handleImage)
	r.Patch("/selfie/{id}", h.handleUpdate)
	r.Delete("/selfie/{id}", h.handleDelete)
}

func selfieFromMetadata(m api.SelfieMetadata) *models.Selfie {
	s := &models.Selfie{
		Label:            m.Label,
		Probability:      m.Probability,
		ManualCorrection: m.ManualCorrection,
	}
	if m.CreatedAt != nil {
		s.CreatedAt = m.CreatedAt.UTC()
	}
	return s
}

// imagePart returns the uploaded image of a multipart request. The caller
// closes it.
func imagePart(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart body: %v", common.ErrValidation, err)
	}
	f, _, err := r.FormFile(api.FormImage)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %q part: %v", common.ErrValidation, api.FormImage, err)
	}
	return f, nil
}

func (h *SelfieHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.selfies.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]api.Selfie, 0, len(list))
	for i := range list {
		out = append(out, toAPISelfie(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SelfieHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.selfies.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPISelfie(s))
}

func (h *SelfieHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
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

	var meta api.SelfieMetadata
	if raw := r.FormValue(api.FormMetadata); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			writeError(w, r, h.logger, fmt.Errorf("%w: invalid metadata: %v", common.ErrValidation, err))
			return
		}
	}

	s := selfieFromMetadata(meta)
	s.UserID = UserID(r.Context())

	s, err = h.selfies.Create(r.Context(), s, f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAPISelfie(s))
}

func (h *SelfieHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var meta api.SelfieMetadata
	if err := decodeJSON(w, r, &meta); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s := selfieFromMetadata(meta)
	s.ID = chi.URLParam(r, "id")
	s.UserID = UserID(r.Context())

	s, err := h.selfies.Update(r.Context(), s)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPISelfie(s))
}

func (h *SelfieHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.selfies.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImage redirects to a presigned URL when the store offers one and
// streams the image otherwise.
func (h *SelfieHandler) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, id := UserID(ctx), chi.URLParam(r, "id")

	url, ok, err := h.selfies.ImageURL(ctx, userID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if ok {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	rc, _, err := h.selfies.Image(ctx, userID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn(ctx, "image stream interrupted", "id", id, "error", err)
	}
}
