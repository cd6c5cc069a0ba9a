// Package services contains application services for the moodkeeper client.
// This file defines the authentication service: login, register, restoring
// a saved login, liveness probe and logout.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// Remote is the slice of the HTTP client the auth service needs.
type Remote interface {
	Register(ctx context.Context, username, password string) (api.UserResponse, error)
	Login(ctx context.Context, username, password string) (api.TokenResponse, error)
	Me(ctx context.Context) (api.UserResponse, error)
	Ping(ctx context.Context) error
	SetToken(token string)
}

// Store keeps the signed-in login between runs.
type Store interface {
	Login(ctx context.Context) (token, userID string, err error)
	SaveLogin(ctx context.Context, token, userID string) error
	Logout(ctx context.Context) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the access token.
//   - Restore: reuse a persisted token if the server still accepts it.
//   - Register: create a new user on the server.
//   - Ping: check server liveness.
//   - Logout: forget the persisted token.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) (api.UserResponse, error)
	Restore(ctx context.Context) (api.UserResponse, bool, error)
	Register(ctx context.Context, username string, password []byte) error
	Ping(ctx context.Context) error
	Logout(ctx context.Context) error
}

type authService struct {
	remote Remote
	store  Store
}

func NewAuthService(remote Remote, store Store) AuthService {
	return &authService{remote: remote, store: store}
}

// Login authenticates, saves the token locally and returns the account.
func (a *authService) Login(ctx context.Context, username string, password []byte) (api.UserResponse, error) {
	tok, err := a.remote.Login(ctx, username, string(password))
	if err != nil {
		return api.UserResponse{}, fmt.Errorf("login error: %w", err)
	}
	if err := a.store.SaveLogin(ctx, tok.AccessToken, tok.UserID); err != nil {
		return api.UserResponse{}, fmt.Errorf("saving login: %w", err)
	}

	me, err := a.remote.Me(ctx)
	if err != nil {
		return api.UserResponse{}, fmt.Errorf("fetching account: %w", err)
	}
	return me, nil
}

// Restore installs the saved token and checks it with the server. A token
// the server rejects is dropped and ok is false.
func (a *authService) Restore(ctx context.Context) (api.UserResponse, bool, error) {
	token, userID, err := a.store.Login(ctx)
	if err != nil {
		return api.UserResponse{}, false, err
	}
	if token == "" || userID == "" {
		return api.UserResponse{}, false, nil
	}

	a.remote.SetToken(token)
	me, err := a.remote.Me(ctx)
	switch {
	case err == nil:
		return me, true, nil
	case errors.Is(err, common.ErrUnauthorized):
		a.remote.SetToken("")
		return api.UserResponse{}, false, a.store.Logout(ctx)
	default:
		return api.UserResponse{}, false, err
	}
}

func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	_, err := a.remote.Register(ctx, username, string(password))
	return err
}

// Ping proxies a liveness check to the server.
func (a *authService) Ping(ctx context.Context) error {
	return a.remote.Ping(ctx)
}

// Logout drops the token from memory and from the local store.
func (a *authService) Logout(ctx context.Context) error {
	a.remote.SetToken("")
	return a.store.Logout(ctx)
}
