package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// Register prompts for a username and password and creates the account.
// The password is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.authService.Register(ctx, userName, password); err != nil {
		a.logger.Warn(ctx, "registration failed", "username", userName, "error", err)
		if errors.Is(err, common.ErrAlreadyExists) {
			return a.fail(errors.New("this username is taken"))
		}
		return a.fail(err)
	}

	a.printf("Success! You can log in now.\n")
	return nil
}

// Login prompts for credentials, authenticates and loads the three entry
// lists. The capability flag is resolved right after login.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		a.printf("Already logged in as %s\n", a.user.Username)
		return nil
	}

	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	me, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		a.logger.Warn(ctx, "login failed", "username", userName, "error", err)
		if errors.Is(err, common.ErrUnauthorized) {
			return a.fail(errors.New("wrong username or password"))
		}
		return a.fail(err)
	}

	a.logger.Info(ctx, "logged in", "user_id", me.ID)
	a.afterLogin(ctx, me)
	a.printf("Logged in as %s\n", me.Username)
	return nil
}

// Restore logs back in with the token saved by an earlier run.
func (a *App) Restore(ctx context.Context) error {
	me, ok, err := a.authService.Restore(ctx)
	if err != nil || !ok {
		return err
	}
	a.logger.Info(ctx, "restored saved login", "user_id", me.ID)
	a.afterLogin(ctx, me)
	a.printf("Logged in as %s\n", me.Username)
	return nil
}

func (a *App) afterLogin(ctx context.Context, me api.UserResponse) {
	a.user = &me

	if _, err := a.capability.Ensure(ctx, me.ID); err != nil {
		a.logger.Warn(ctx, "capability not resolved", "user_id", me.ID, "error", err)
	}

	for name, load := range map[string]func(context.Context) error{
		"journal": a.journals.Load,
		"selfie":  a.selfies.Load,
		"rating":  a.ratings.Load,
	} {
		if err := load(ctx); err != nil {
			a.logger.Warn(ctx, "list not loaded", "list", name, "error", err)
		}
	}
}

// Logout forgets the saved token and resets every session.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}
	if err := a.authService.Logout(ctx); err != nil {
		return a.fail(err)
	}
	a.closeSessions()
	a.capability.Reset()
	a.user = nil
	a.printf("Logged out\n")
	return nil
}

// Whoami prints the account and its capability flag.
func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}
	a.printf("%s (%s)\ncapability: %s\nmode: %s\n", a.user.Username, a.user.ID, a.capability.Current(), a.mode())
	return nil
}
