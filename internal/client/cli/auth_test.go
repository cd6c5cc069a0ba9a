package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/common"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
)

func TestRegister_Success(t *testing.T) {
	ta := newTestApp(t, "alice\n")
	stubPassword(t, "secret")

	require.NoError(t, ta.Register(context.Background()))
	assert.Equal(t, "alice", ta.auth.regUser)
	assert.Equal(t, "secret", string(ta.auth.regPass))
	assert.Contains(t, ta.out.String(), "Success!")
}

func TestRegister_Taken(t *testing.T) {
	ta := newTestApp(t, "alice\n")
	stubPassword(t, "secret")
	ta.auth.regErr = common.ErrAlreadyExists

	require.Error(t, ta.Register(context.Background()))
	assert.Contains(t, ta.out.String(), "this username is taken")
}

func TestLogin_ResolvesCapabilityAndLoads(t *testing.T) {
	ta := newTestApp(t, "ann\n")
	stubPassword(t, "pw")
	ta.auth.loginRet = api.UserResponse{ID: "u1", Username: "ann", Capability: mood.CapabilityUntested}
	ta.store.ratings = []api.Rating{{ID: "r1", Value: mood.Neutral, CreatedAt: testNow}}

	require.NoError(t, ta.Login(context.Background()))
	assert.True(t, ta.isLoggedIn())
	assert.Equal(t, "ann", ta.auth.loginUser)
	assert.Equal(t, "pw", string(ta.auth.loginPass))
	assert.Equal(t, []string{"u1"}, ta.caps.ensured)
	assert.Equal(t, 1, ta.store.lists)
	assert.False(t, ta.ratings.CanRate())
	assert.Contains(t, ta.out.String(), "Logged in as ann")
}

func TestLogin_CapabilityErrorStillLogsIn(t *testing.T) {
	ta := newTestApp(t, "ann\n")
	stubPassword(t, "pw")
	ta.auth.loginRet = api.UserResponse{ID: "u1", Username: "ann"}
	ta.caps.err = errors.New("server down")

	require.NoError(t, ta.Login(context.Background()))
	assert.True(t, ta.isLoggedIn())
}

func TestLogin_WrongPassword(t *testing.T) {
	ta := newTestApp(t, "ann\n")
	stubPassword(t, "bad")
	ta.auth.loginErr = common.ErrUnauthorized

	require.Error(t, ta.Login(context.Background()))
	assert.False(t, ta.isLoggedIn())
	assert.Empty(t, ta.caps.ensured)
	assert.Contains(t, ta.out.String(), "wrong username or password")
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("saved login", func(t *testing.T) {
		ta := newTestApp(t, "")
		ta.auth.restoreRet = api.UserResponse{ID: "u1", Username: "ann"}
		ta.auth.restoreOK = true

		require.NoError(t, ta.Restore(ctx))
		assert.True(t, ta.isLoggedIn())
		assert.Equal(t, []string{"u1"}, ta.caps.ensured)
	})

	t.Run("nothing saved", func(t *testing.T) {
		ta := newTestApp(t, "")
		require.NoError(t, ta.Restore(ctx))
		assert.False(t, ta.isLoggedIn())
	})
}

func TestLogout_ResetsSessions(t *testing.T) {
	ta := newTestApp(t, "")
	ta.user = &api.UserResponse{ID: "u1", Username: "ann"}
	ctx := context.Background()
	require.NoError(t, ta.journals.BeginCreate(ctx))

	require.NoError(t, ta.Logout(ctx))
	assert.True(t, ta.auth.logoutCalled)
	assert.False(t, ta.isLoggedIn())
	assert.Equal(t, 1, ta.caps.resets)
	assert.Equal(t, session.Browsing, ta.journals.State())
}

func TestLogout_ErrorPropagates(t *testing.T) {
	ta := newTestApp(t, "")
	ta.user = &api.UserResponse{ID: "u1"}
	ta.auth.logoutErr = errors.New("disk full")

	assert.Error(t, ta.Logout(context.Background()))
	assert.True(t, ta.isLoggedIn())
}

func TestWhoami(t *testing.T) {
	ta := newTestApp(t, "")
	ta.user = &api.UserResponse{ID: "u1", Username: "ann"}
	ta.caps.flag = mood.CapabilitySupported
	ta.Mode = ModeOnline

	require.NoError(t, ta.Whoami(context.Background()))
	assert.Contains(t, ta.out.String(), "ann (u1)")
	assert.Contains(t, ta.out.String(), "capability: supported")
	assert.Contains(t, ta.out.String(), "mode: online")
}
