package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogin_StoresTokenAndSendsIt(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			var creds api.Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, api.Credentials{Username: "ann", Password: "pw"}, creds)
			writeJSON(w, http.StatusOK, api.TokenResponse{AccessToken: "tok", UserID: "u1"})
		case "/user":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, api.UserResponse{ID: "u1", Username: "ann", Capability: mood.CapabilityUntested})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	resp, err := c.Login(ctx, "ann", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "tok", c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann", me.Username)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		msg    string
		want   error
	}{
		{http.StatusBadRequest, "bad", common.ErrValidation},
		{http.StatusUnauthorized, "nope", common.ErrUnauthorized},
		{http.StatusNotFound, "gone", common.ErrNotFound},
		{http.StatusConflict, "already exists: title", common.ErrAlreadyExists},
		{http.StatusConflict, "capability already resolved", common.ErrAlreadyResolved},
		{http.StatusBadGateway, "worker", common.ErrInferenceFailure},
		{http.StatusServiceUnavailable, "down", ErrUnavailable},
		{http.StatusInternalServerError, "Internal Server Error", common.ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, api.ErrorResponse{Error: tt.msg})
			})

			err := c.DeleteJournal(context.Background(), "j1")
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second)
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCapabilityRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user/capability", r.URL.Path)
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, api.CapabilityResponse{Capability: mood.CapabilityUntested})
			return
		}
		require.Equal(t, http.MethodPatch, r.Method)
		var req api.CapabilityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, http.StatusOK, api.CapabilityResponse{Capability: req.Capability})
	})
	ctx := context.Background()

	got, err := c.Capability(ctx)
	require.NoError(t, err)
	assert.Equal(t, mood.CapabilityUntested, got)

	got, err = c.ResolveCapability(ctx, mood.CapabilityUnsupported)
	require.NoError(t, err)
	assert.Equal(t, mood.CapabilityUnsupported, got)
}

func TestCreateSelfie_SendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/selfie", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, _, err := r.FormFile(api.FormImage)
		require.NoError(t, err)
		raw, _ := io.ReadAll(f)
		assert.Equal(t, []byte("jpeg"), raw)

		var meta api.SelfieMetadata
		require.NoError(t, json.Unmarshal([]byte(r.FormValue(api.FormMetadata)), &meta))
		assert.Equal(t, mood.LabelStressed, meta.Label)

		writeJSON(w, http.StatusCreated, api.Selfie{ID: "s1", Label: meta.Label, Probability: meta.Probability})
	})

	s, err := c.CreateSelfie(context.Background(), api.SelfieMetadata{Label: mood.LabelStressed, Probability: "70.00%"}, []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "70.00%", s.Probability)
}

func TestPredictSelfieAndJournal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/selfie/predict":
			_, _, err := r.FormFile(api.FormImage)
			require.NoError(t, err)
			writeJSON(w, http.StatusOK, api.PredictionResponse{Prediction: mood.Prediction{Label: mood.LabelNotStressed, Probability: "55.00%"}})
		case "/journal/predict":
			writeJSON(w, http.StatusOK, api.PredictionResponse{Prediction: mood.Prediction{Label: mood.LabelStressed, Probability: "91.00%"}})
		case "/journal/preprocess":
			writeJSON(w, http.StatusOK, api.FeaturesResponse{Features: [][]float64{{1, 2, 3}}})
		}
	})
	ctx := context.Background()

	p, err := c.PredictSelfie(ctx, []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, mood.LabelNotStressed, p.Label)

	p, err = c.PredictJournal(ctx, "text")
	require.NoError(t, err)
	assert.Equal(t, "91.00%", p.Probability)

	rows, err := c.PreprocessJournal(ctx, "text")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}}, rows)
}

func TestModelAndImage_ReturnRawBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/journal":
			_, _ = w.Write([]byte(`{"layers":[]}`))
		case "/selfie/s1/image":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8})
		default:
			writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "model not available"})
		}
	})
	ctx := context.Background()

	raw, err := c.Model(ctx, "journal")
	require.NoError(t, err)
	assert.JSONEq(t, `{"layers":[]}`, string(raw))

	img, err := c.SelfieImage(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, img)

	_, err = c.Model(ctx, "selfie")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
