// Package storage keeps selfie image artifacts. Two areas exist: the live
// area read by the CRUD endpoints and the retraining area that mirrors
// manually corrected selfies. Rename and Delete treat a missing object as
// success.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

type Area string

const (
	AreaLive       Area = "live"
	AreaRetraining Area = "retraining"
)

type ImageStore interface {
	Put(ctx context.Context, area Area, key string, r io.Reader) error
	// Open returns common.ErrNotFound for a missing object.
	Open(ctx context.Context, area Area, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, area Area, key string) (bool, error)
	// Copy returns common.ErrNotFound when the source is missing.
	Copy(ctx context.Context, from Area, fromKey string, to Area, toKey string) error
	Rename(ctx context.Context, area Area, fromKey, toKey string) error
	Delete(ctx context.Context, area Area, key string) error
}

// Presigner is implemented by stores that can hand out direct download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, area Area, key string) (string, error)
}

// Key scopes an image name to its owner.
func Key(userID, imageName string) string {
	return userID + "/" + imageName
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: bad image key %q", common.ErrValidation, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: bad image key %q", common.ErrValidation, key)
	}
	return cleaned, nil
}
