package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
// An io.Writer out receives the raw body instead.
func (c *HTTPClient) do(req *http.Request, out any) error {
	if t := c.Token(); t != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return req.Context().Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		_, err := io.Copy(w, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/ping", nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) (api.UserResponse, error) {
	var out api.UserResponse
	err := c.doJSON(ctx, http.MethodPost, "/user/register", api.Credentials{Username: username, Password: password}, &out)
	return out, err
}

// Login stores the returned access token for subsequent calls.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (api.TokenResponse, error) {
	var out api.TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/user/login", api.Credentials{Username: username, Password: password}, &out); err != nil {
		return out, err
	}
	c.SetToken(out.AccessToken)
	return out, nil
}

func (c *HTTPClient) Me(ctx context.Context) (api.UserResponse, error) {
	var out api.UserResponse
	err := c.doJSON(ctx, http.MethodGet, "/user", nil, &out)
	return out, err
}

func (c *HTTPClient) Capability(ctx context.Context) (mood.Capability, error) {
	var out api.CapabilityResponse
	if err := c.doJSON(ctx, http.MethodGet, "/user/capability", nil, &out); err != nil {
		return mood.CapabilityUntested, err
	}
	return out.Capability, nil
}

func (c *HTTPClient) ResolveCapability(ctx context.Context, next mood.Capability) (mood.Capability, error) {
	var out api.CapabilityResponse
	if err := c.doJSON(ctx, http.MethodPatch, "/user/capability", api.CapabilityRequest{Capability: next}, &out); err != nil {
		return mood.CapabilityUntested, err
	}
	return out.Capability, nil
}

func (c *HTTPClient) ListJournals(ctx context.Context) ([]api.Journal, error) {
	var out []api.Journal
	err := c.doJSON(ctx, http.MethodGet, "/journal", nil, &out)
	return out, err
}

func (c *HTTPClient) CreateJournal(ctx context.Context, req api.JournalRequest) (api.Journal, error) {
	var out api.Journal
	err := c.doJSON(ctx, http.MethodPost, "/journal", req, &out)
	return out, err
}

func (c *HTTPClient) UpdateJournal(ctx context.Context, id string, req api.JournalRequest) (api.Journal, error) {
	var out api.Journal
	err := c.doJSON(ctx, http.MethodPatch, "/journal/"+url.PathEscape(id), req, &out)
	return out, err
}

func (c *HTTPClient) DeleteJournal(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/journal/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) ListSelfies(ctx context.Context) ([]api.Selfie, error) {
	var out []api.Selfie
	err := c.doJSON(ctx, http.MethodGet, "/selfie", nil, &out)
	return out, err
}

// CreateSelfie uploads a JPEG image with its metadata as one multipart
// request.
func (c *HTTPClient) CreateSelfie(ctx context.Context, meta api.SelfieMetadata, image []byte) (api.Selfie, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return api.Selfie{}, err
	}

	req, err := c.multipart(ctx, "/selfie", image, map[string]string{api.FormMetadata: string(raw)})
	if err != nil {
		return api.Selfie{}, err
	}

	var out api.Selfie
	err = c.do(req, &out)
	return out, err
}

func (c *HTTPClient) UpdateSelfie(ctx context.Context, id string, meta api.SelfieMetadata) (api.Selfie, error) {
	var out api.Selfie
	err := c.doJSON(ctx, http.MethodPatch, "/selfie/"+url.PathEscape(id), meta, &out)
	return out, err
}

func (c *HTTPClient) DeleteSelfie(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/selfie/"+url.PathEscape(id), nil, nil)
}

// SelfieImage downloads the stored image. Presigned redirects are followed
// by the underlying http.Client.
func (c *HTTPClient) SelfieImage(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/selfie/"+url.PathEscape(id)+"/image", nil)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = c.do(req, &buf)
	return buf.Bytes(), err
}

func (c *HTTPClient) ListRatings(ctx context.Context) ([]api.Rating, error) {
	var out []api.Rating
	err := c.doJSON(ctx, http.MethodGet, "/rating", nil, &out)
	return out, err
}

func (c *HTTPClient) CreateRating(ctx context.Context, req api.RatingRequest) (api.Rating, error) {
	var out api.Rating
	err := c.doJSON(ctx, http.MethodPost, "/rating", req, &out)
	return out, err
}

func (c *HTTPClient) UpdateRating(ctx context.Context, id string, req api.RatingRequest) (api.Rating, error) {
	var out api.Rating
	err := c.doJSON(ctx, http.MethodPatch, "/rating/"+url.PathEscape(id), req, &out)
	return out, err
}

func (c *HTTPClient) DeleteRating(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/rating/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) PreprocessJournal(ctx context.Context, text string) ([][]float64, error) {
	var out api.FeaturesResponse
	if err := c.doJSON(ctx, http.MethodPost, "/journal/preprocess", api.TextRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Features, nil
}

func (c *HTTPClient) PredictJournal(ctx context.Context, text string) (mood.Prediction, error) {
	var out api.PredictionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/journal/predict", api.TextRequest{Text: text}, &out); err != nil {
		return mood.Prediction{}, err
	}
	return out.Prediction, nil
}

func (c *HTTPClient) PredictSelfie(ctx context.Context, image []byte) (mood.Prediction, error) {
	req, err := c.multipart(ctx, "/selfie/predict", image, nil)
	if err != nil {
		return mood.Prediction{}, err
	}

	var out api.PredictionResponse
	if err := c.do(req, &out); err != nil {
		return mood.Prediction{}, err
	}
	return out.Prediction, nil
}

// Model fetches the raw model document for kind ("journal" or "selfie").
func (c *HTTPClient) Model(ctx context.Context, kind string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models/"+url.PathEscape(kind), nil)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = c.do(req, &buf)
	return buf.Bytes(), err
}

func (c *HTTPClient) multipart(ctx context.Context, path string, image []byte, fields map[string]string) (*http.Request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile(api.FormImage, "selfie.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}
