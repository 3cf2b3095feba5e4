package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/common"
	"github.com/dmitrijs2005/cardkeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = &models.User{ID: 1, Email: "alice@example.com"}

func TestSignup_Success(t *testing.T) {
	a := newTestApp(t, "")
	a.auth.signupUser = alice
	stubInputs(t, "Alice@Example.com", "secret", "secret")

	require.NoError(t, a.Signup(context.Background()))
	assert.Equal(t, "Alice@Example.com", a.auth.signupEmail)
	assert.Equal(t, "secret", a.auth.signupPass)
	assert.Contains(t, a.out.String(), "Account alice@example.com created")
}

func TestSignup_MismatchNeverCallsService(t *testing.T) {
	a := newTestApp(t, "")
	stubInputs(t, "a@b.c", "one", "two")

	err := a.Signup(context.Background())
	require.ErrorIs(t, err, errPasswordMismatch)
	assert.Zero(t, a.auth.signupCalls)
	assert.Contains(t, a.out.String(), "Passwords do not match.")
}

func TestSignup_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{common.ErrInvalidInput, "Email and password are required."},
		{common.ErrDuplicateAccount, "Email already exists."},
		{common.ErrPersistence, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			a := newTestApp(t, "")
			a.auth.signupErr = tt.err
			stubInputs(t, "a@b.c", "pw", "pw")

			require.ErrorIs(t, a.Signup(context.Background()), tt.err)
			assert.Contains(t, a.out.String(), tt.want)
		})
	}
}

func TestLogin_SuccessStoresToken(t *testing.T) {
	a := newTestApp(t, "")
	a.auth.loginToken = "tok"
	a.auth.users["tok"] = alice
	stubInputs(t, "alice@example.com", "pw")

	require.NoError(t, a.Login(context.Background()))
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, []byte("tok"), a.tokens.values[common.SessionTokenKey])
	assert.Contains(t, a.out.String(), "Logged in as: alice@example.com")
	assert.Equal(t, " (alice@example.com)", a.getStatus())
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	a := newTestApp(t, "")
	a.auth.users["old"] = alice
	a.setSession(context.Background(), "old", alice)

	a.auth.loginToken = "new"
	a.auth.users["new"] = alice
	stubInputs(t, "alice@example.com", "pw")

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, []string{"old"}, a.auth.logoutTokens)
	token, _ := a.session()
	assert.Equal(t, "new", token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	a := newTestApp(t, "")
	a.auth.loginErr = common.ErrInvalidCredentials
	stubInputs(t, "alice@example.com", "bad")

	require.ErrorIs(t, a.Login(context.Background()), common.ErrInvalidCredentials)
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, a.out.String(), "Invalid credentials.")
	assert.Empty(t, a.tokens.values)
}

func TestLogout(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.Logout(ctx))
	assert.Contains(t, a.out.String(), "Not logged in.")
	assert.Empty(t, a.auth.logoutTokens)

	a.auth.users["tok"] = alice
	a.setSession(ctx, "tok", alice)
	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, []string{"tok"}, a.auth.logoutTokens)
	assert.NotContains(t, a.tokens.values, common.SessionTokenKey)
}

func TestLogout_StoreFailureKeepsSession(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()
	a.setSession(ctx, "tok", alice)
	a.auth.logoutErr = common.ErrPersistence

	require.ErrorIs(t, a.Logout(ctx), common.ErrPersistence)
	assert.True(t, a.isLoggedIn())
}

func TestWhoAmI(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()

	require.ErrorIs(t, a.WhoAmI(ctx), common.ErrSessionInvalid)

	a.auth.users["tok"] = alice
	a.setSession(ctx, "tok", alice)
	require.NoError(t, a.WhoAmI(ctx))
	assert.Contains(t, a.out.String(), "Action ran as alice@example.com")
	assert.Equal(t, []bool{true}, a.auth.touched, "protected actions touch the session")

	delete(a.auth.users, "tok")
	require.ErrorIs(t, a.WhoAmI(ctx), common.ErrSessionInvalid)
	assert.False(t, a.isLoggedIn())
	assert.Contains(t, a.out.String(), "Please log in again.")
}

func TestRotate(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()
	a.auth.users["tok"] = alice
	a.auth.rotateTo = "tok2"
	a.setSession(ctx, "tok", alice)

	require.NoError(t, a.Rotate(ctx))
	token, user := a.session()
	assert.Equal(t, "tok2", token)
	assert.Equal(t, alice, user)
	assert.Equal(t, []byte("tok2"), a.tokens.values[common.SessionTokenKey])

	a.auth.rotateErr = errors.New("db down")
	require.Error(t, a.Rotate(ctx))
	token, _ = a.session()
	assert.Equal(t, "tok2", token, "failed rotation keeps the current token")

	a.auth.rotateErr = nil
	delete(a.auth.users, "tok2")
	require.ErrorIs(t, a.Rotate(ctx), common.ErrSessionInvalid)
	assert.False(t, a.isLoggedIn())
}

func TestStatus(t *testing.T) {
	a := newTestApp(t, "")
	ctx := context.Background()
	a.auth.users["tok"] = alice
	a.auth.status = &models.SessionStatus{
		User:              alice,
		IdleRemaining:     25*time.Minute + 7*time.Second,
		AbsoluteRemaining: 7*time.Hour + 59*time.Minute,
	}
	a.setSession(ctx, "tok", alice)

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, a.out.String(), "Idle timeout in ~25m07s, absolute in ~7h")
	assert.Empty(t, a.auth.touched, "status must not touch")
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "Idle timeout in ~0m00s, absolute in ~0h", formatRemaining(-time.Second, -time.Hour))
	assert.Equal(t, "Idle timeout in ~30m00s, absolute in ~8h", formatRemaining(30*time.Minute, 8*time.Hour))
}
