package metadata

import (
	"context"

	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

const (
	keyAccessToken = "access_token"
	keyUserID      = "user_id"
	keyCapability  = "capability:"
)

// Session is a typed view over Repository for the signed-in user.
type Session struct {
	repo Repository
}

func NewSession(repo Repository) *Session {
	return &Session{repo: repo}
}

// Login returns the stored token and user id. Both are empty when nobody
// is signed in.
func (s *Session) Login(ctx context.Context) (token, userID string, err error) {
	t, err := s.repo.Get(ctx, keyAccessToken)
	if err != nil {
		return "", "", err
	}
	u, err := s.repo.Get(ctx, keyUserID)
	if err != nil {
		return "", "", err
	}
	return string(t), string(u), nil
}

func (s *Session) SaveLogin(ctx context.Context, token, userID string) error {
	if err := s.repo.Set(ctx, keyAccessToken, []byte(token)); err != nil {
		return err
	}
	return s.repo.Set(ctx, keyUserID, []byte(userID))
}

// Capability returns the cached flag for userID, or untested when none is
// cached.
func (s *Session) Capability(ctx context.Context, userID string) (mood.Capability, error) {
	v, err := s.repo.Get(ctx, keyCapability+userID)
	if err != nil {
		return mood.CapabilityUntested, err
	}
	return mood.ParseCapability(string(v))
}

func (s *Session) SetCapability(ctx context.Context, userID string, c mood.Capability) error {
	return s.repo.Set(ctx, keyCapability+userID, []byte(c))
}

// Logout forgets the token but keeps cached capability flags, which belong
// to the device as much as to the user.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.repo.Delete(ctx, keyAccessToken); err != nil {
		return err
	}
	return s.repo.Delete(ctx, keyUserID)
}
