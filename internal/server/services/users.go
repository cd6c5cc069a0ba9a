// Package services holds the server business logic. Each service takes a
// *sql.DB and a repomanager.RepositoryManager and scopes multi-step writes
// to a transaction with dbx.WithTx.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/server/auth"
	"github.com/dmitrijs2005/moodkeeper/internal/server/config"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
	"github.com/dmitrijs2005/moodkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moodkeeper/internal/server/sessioncache"
)

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	cache                       sessioncache.Cache
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cache sessioncache.Cache, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		cache:                       cache,
		logger:                      logger.With("module", "user_service"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserName:     username,
		PasswordHash: []byte(hash),
		Capability:   mood.CapabilityUntested,
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login checks the credentials and returns a signed access token together
// with the user's id. Unknown users and wrong passwords both fail with
// common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (string, string, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", "", common.ErrUnauthorized
		}
		return "", "", fmt.Errorf("error loading user: %w", err)
	}

	if err := auth.CheckPassword(string(user.PasswordHash), password); err != nil {
		return "", "", err
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", "", err
	}

	s.remember(ctx, user.ID, user.Capability)
	return token, user.ID, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Capability returns the user's flag, served from the session cache when
// present.
func (s *UserService) Capability(ctx context.Context, userID string) (mood.Capability, error) {
	if c, ok, err := s.cache.Get(ctx, userID); err != nil {
		s.logger.Warn(ctx, "session cache read failed", "error", err)
	} else if ok {
		return c, nil
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	s.remember(ctx, userID, user.Capability)
	return user.Capability, nil
}

// ResolveCapability records a probe verdict. The flag moves from untested
// exactly once; repeating the stored verdict is a no-op and a conflicting
// verdict fails with common.ErrAlreadyResolved.
func (s *UserService) ResolveCapability(ctx context.Context, userID string, next mood.Capability) (mood.Capability, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	resolved, changed, err := user.Capability.Resolve(next)
	if err != nil {
		return user.Capability, err
	}

	if changed {
		ok, err := repo.SetCapability(ctx, userID, user.Capability, resolved)
		if err != nil {
			return "", fmt.Errorf("error saving capability: %w", err)
		}
		if !ok {
			// a concurrent session resolved the flag first
			user, err = repo.GetByID(ctx, userID)
			if err != nil {
				return "", err
			}
			if resolved, _, err = user.Capability.Resolve(next); err != nil {
				s.remember(ctx, userID, user.Capability)
				return user.Capability, err
			}
		}
		s.logger.Info(ctx, "capability resolved", "user_id", userID, "capability", resolved)
	}

	s.remember(ctx, userID, resolved)
	return resolved, nil
}

func (s *UserService) remember(ctx context.Context, userID string, c mood.Capability) {
	if err := s.cache.Set(ctx, userID, c); err != nil {
		s.logger.Warn(ctx, "session cache write failed", "error", err)
	}
}
