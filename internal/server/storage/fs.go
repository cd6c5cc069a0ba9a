package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/filex"
)

// FSStore keeps each area in its own directory.
type FSStore struct {
	dirs map[Area]string
}

func NewFSStore(liveDir, retrainingDir string) (*FSStore, error) {
	live, err := filex.EnsureDir(liveDir)
	if err != nil {
		return nil, err
	}
	retrain, err := filex.EnsureDir(retrainingDir)
	if err != nil {
		return nil, err
	}
	return &FSStore{dirs: map[Area]string{AreaLive: live, AreaRetraining: retrain}}, nil
}

func (s *FSStore) path(area Area, key string) (string, error) {
	dir, ok := s.dirs[area]
	if !ok {
		return "", fmt.Errorf("%w: unknown area %q", common.ErrValidation, area)
	}
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(k)), nil
}

func (s *FSStore) Put(ctx context.Context, area Area, key string, r io.Reader) error {
	p, err := s.path(area, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o770); err != nil {
		return fmt.Errorf("put image: %w: %w", common.ErrPersistence, err)
	}
	if err := filex.WriteFile(p, r); err != nil {
		return fmt.Errorf("put image: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

func (s *FSStore) Open(ctx context.Context, area Area, key string) (io.ReadCloser, error) {
	p, err := s.path(area, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open image: %w: %w", common.ErrPersistence, err)
	}
	return f, nil
}

func (s *FSStore) Exists(ctx context.Context, area Area, key string) (bool, error) {
	p, err := s.path(area, key)
	if err != nil {
		return false, err
	}
	return filex.Exists(p), nil
}

func (s *FSStore) Copy(ctx context.Context, from Area, fromKey string, to Area, toKey string) error {
	src, err := s.path(from, fromKey)
	if err != nil {
		return err
	}
	dst, err := s.path(to, toKey)
	if err != nil {
		return err
	}
	if !filex.Exists(src) {
		return common.ErrNotFound
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o770); err != nil {
		return fmt.Errorf("copy image: %w: %w", common.ErrPersistence, err)
	}
	if err := filex.CopyFile(src, dst); err != nil {
		return fmt.Errorf("copy image: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

func (s *FSStore) Rename(ctx context.Context, area Area, fromKey, toKey string) error {
	src, err := s.path(area, fromKey)
	if err != nil {
		return err
	}
	dst, err := s.path(area, toKey)
	if err != nil {
		return err
	}
	if _, err := filex.RenameIfExists(src, dst); err != nil {
		return fmt.Errorf("rename image: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, area Area, key string) error {
	p, err := s.path(area, key)
	if err != nil {
		return err
	}
	if err := filex.RemoveIfExists(p); err != nil {
		return fmt.Errorf("delete image: %w: %w", common.ErrPersistence, err)
	}
	return nil
}
