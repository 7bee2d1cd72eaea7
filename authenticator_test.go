package identity_test

import (
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRemembersWhenRequested(t *testing.T) {
	f := newFixture(t)
	account := f.registerActivated(t, "Michael Example", "michael@example.com")

	result, err := f.id.Authenticator.Login(f.ctx, identity.LoginRequest{
		Email:      "MICHAEL@example.com",
		Password:   testPassword,
		RememberMe: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.Account.ID)
	assert.Equal(t, identity.RememberOn, result.Choice)
	require.NotEmpty(t, result.RememberToken)

	ok, err := f.id.Sessions().IsRemembered(f.reload(t, account), result.RememberToken)
	require.NoError(t, err)
	assert.True(t, ok)

	event, found := f.sink.find(identity.ActivityEventLoginSuccess)
	require.True(t, found)
	assert.Equal(t, account.ID.String(), event.AccountID)
	assert.Equal(t, "on", event.Metadata["remember_me"])
}

func TestLoginForgetsWhenNotRequested(t *testing.T) {
	for _, raw := range []string{"0", ""} {
		t.Run("remember_me="+raw, func(t *testing.T) {
			f := newFixture(t)
			account := f.registerActivated(t, "Michael Example", "michael@example.com")

			_, err := f.id.Sessions().Remember(f.ctx, account)
			require.NoError(t, err)

			result, err := f.id.Authenticator.Login(f.ctx, identity.LoginRequest{
				Email:      "michael@example.com",
				Password:   testPassword,
				RememberMe: raw,
			})
			require.NoError(t, err)
			assert.Empty(t, result.RememberToken)
			assert.False(t, f.reload(t, account).IsRememberable())
		})
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	f.registerActivated(t, "Michael Example", "michael@example.com")

	_, wrongPassword := f.id.Authenticator.Login(f.ctx, identity.LoginRequest{Email: "michael@example.com", Password: "invalid"})
	_, unknownEmail := f.id.Authenticator.Login(f.ctx, identity.LoginRequest{Email: "other@example.com", Password: testPassword})

	assert.True(t, identity.IsAuthFailure(wrongPassword))
	assert.True(t, identity.IsAuthFailure(unknownEmail))

	failures := 0
	for _, e := range f.sink.events {
		if e.EventType == identity.ActivityEventLoginFailure {
			failures++
		}
	}
	assert.Equal(t, 2, failures)
}

func TestLoginDoesNotRequireActivationByDefault(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Pending Example", "pending@example.com")
	req := identity.LoginRequest{Email: "pending@example.com", Password: testPassword}

	_, err := f.id.Sessions().Authenticate(f.ctx, req.Email, req.Password)
	require.NoError(t, err)

	result, err := f.id.Authenticator.Login(f.ctx, req)
	require.NoError(t, err, "valid credentials are the only gate")
	assert.False(t, result.Account.Activated)

	_, err = f.id.Authenticator.WithRequireActivation(true).Login(f.ctx, req)
	assert.ErrorIs(t, err, identity.ErrAccountNotActivated)
	assert.False(t, identity.IsAuthFailure(err))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	account := f.registerActivated(t, "Michael Example", "michael@example.com")

	result, err := f.id.Authenticator.Login(f.ctx, identity.LoginRequest{
		Email:      "michael@example.com",
		Password:   testPassword,
		RememberMe: "1",
	})
	require.NoError(t, err)

	require.NoError(t, f.id.Authenticator.Logout(f.ctx, result.Account))
	require.NoError(t, f.id.Authenticator.Logout(f.ctx, result.Account))
	require.NoError(t, f.id.Authenticator.Logout(f.ctx, nil))

	ok, err := f.id.Sessions().IsRemembered(f.reload(t, account), result.RememberToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginFailureReasons(t *testing.T) {
	f := newFixture(t)
	f.registerActivated(t, "Michael Example", "michael@example.com")
	f.register(t, "Pending Example", "pending@example.com")

	attempts := []identity.LoginRequest{
		{Email: "nobody@example.com", Password: testPassword},
		{Email: "michael@example.com", Password: "invalid"},
		{Email: "pending@example.com", Password: testPassword},
	}
	authn := f.id.Authenticator.WithRequireActivation(true)
	for _, req := range attempts {
		_, err := authn.Login(f.ctx, req)
		require.Error(t, err)
	}

	var got []any
	for _, e := range f.sink.events {
		if e.EventType == identity.ActivityEventLoginFailure {
			got = append(got, e.Metadata["reason"])
		}
	}
	assert.Equal(t, []any{"not_found", "bad_password", "not_activated"}, got)
}
