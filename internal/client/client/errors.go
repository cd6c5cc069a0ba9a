package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

var ErrUnavailable = errors.New("server unavailable")

// statusError maps a non-2xx response to a common sentinel, keeping the
// server's message.
func statusError(resp *http.Response) error {
	var body api.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := string(raw)
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		sentinel = common.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = common.ErrUnauthorized
	case http.StatusNotFound:
		sentinel = common.ErrNotFound
	case http.StatusConflict:
		sentinel = common.ErrAlreadyExists
		if strings.Contains(msg, common.ErrAlreadyResolved.Error()) {
			sentinel = common.ErrAlreadyResolved
		}
	case http.StatusBadGateway:
		sentinel = common.ErrInferenceFailure
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		sentinel = ErrUnavailable
	default:
		sentinel = common.ErrPersistence
	}
	return fmt.Errorf("%w: %s %s: %s", sentinel, resp.Request.Method, resp.Request.URL.Path, msg)
}
