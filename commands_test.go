package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestRegisterAccountHandler(t *testing.T) {
	f := newFixture(t)
	handler := identity.NewRegisterAccountHandler(f.id.Accounts)

	var got *identity.RegisterAccountResponse
	err := handler.Execute(f.ctx, identity.RegisterAccountCommand{
		RegisterAccountMessage: identity.RegisterAccountMessage{
			Name:                 "Example User",
			Email:                "user@example.com",
			Password:             testPassword,
			PasswordConfirmation: testPassword,
		},
		OnResponse: func(resp *identity.RegisterAccountResponse) { got = resp },
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user@example.com", got.Account.Email)
	assert.NotEmpty(t, got.Account.ActivationToken)

	called := false
	err = handler.Execute(f.ctx, identity.RegisterAccountCommand{
		RegisterAccountMessage: identity.RegisterAccountMessage{Email: "user@example.com"},
		OnResponse:             func(*identity.RegisterAccountResponse) { called = true },
	})
	var verr *identity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, identity.ReasonTaken, verr.Fields["email"])
	assert.Equal(t, identity.ReasonRequired, verr.Fields["name"])
	assert.False(t, called)

	err = handler.Execute(cancelledContext(), identity.RegisterAccountCommand{
		RegisterAccountMessage: identity.RegisterAccountMessage{
			Name:                 "Other User",
			Email:                "other@example.com",
			Password:             testPassword,
			PasswordConfirmation: testPassword,
		},
	})
	require.Error(t, err)
	_, err = f.id.Accounts.FindByEmail(f.ctx, "other@example.com")
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
}

func TestAccountActivationHandler(t *testing.T) {
	f := newFixture(t, func(cfg *identity.Config) { cfg.ActivationWindow = time.Hour })
	handler := identity.NewAccountActivationHandler(f.id.Activation)

	f.register(t, "Example User", "user@example.com")
	mail, _ := f.mailer.last("activation")

	var resp *identity.AccountActivationResponse
	capture := func(r *identity.AccountActivationResponse) { resp = r }

	require.NoError(t, handler.Execute(f.ctx, identity.AccountActivationMessage{
		Email: "user@example.com", Token: "bogus", OnResponse: capture,
	}))
	require.NotNil(t, resp)
	assert.True(t, resp.Invalid)
	assert.False(t, resp.Activated)

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, handler.Execute(f.ctx, identity.AccountActivationMessage{
		Email: "user@example.com", Token: mail.token, OnResponse: capture,
	}))
	assert.True(t, resp.Expired)
	assert.False(t, resp.Activated)

	f.register(t, "Other User", "other@example.com")
	fresh, _ := f.mailer.last("activation")
	require.NoError(t, handler.Execute(f.ctx, identity.AccountActivationMessage{
		Email: "other@example.com", Token: fresh.token, OnResponse: capture,
	}))
	assert.True(t, resp.Activated)
	require.NotNil(t, resp.Account)
	assert.True(t, resp.Account.Activated)

	assert.Error(t, handler.Execute(cancelledContext(), identity.AccountActivationMessage{
		Email: "other@example.com", Token: fresh.token,
	}))
}

func TestInitializePasswordResetHandler(t *testing.T) {
	f := newFixture(t)
	handler := identity.NewInitializePasswordResetHandler(f.id.Reset)
	f.registerActivated(t, "Example User", "user@example.com")

	var resp *identity.InitializePasswordResetResponse
	capture := func(r *identity.InitializePasswordResetResponse) { resp = r }

	require.NoError(t, handler.Execute(f.ctx, identity.InitializePasswordResetMessage{
		Email: "nobody@example.com", OnResponse: capture,
	}))
	require.NotNil(t, resp)
	assert.False(t, resp.Found)
	assert.Nil(t, resp.Account)

	require.NoError(t, handler.Execute(f.ctx, identity.InitializePasswordResetMessage{
		Email: "user@example.com", OnResponse: capture,
	}))
	assert.True(t, resp.Found)
	require.NotNil(t, resp.Account)

	_, ok := f.mailer.last("reset")
	assert.True(t, ok)

	assert.Error(t, handler.Execute(cancelledContext(), identity.InitializePasswordResetMessage{Email: "user@example.com"}))
}

func TestFinalizePasswordResetHandler(t *testing.T) {
	f := newFixture(t)
	handler := identity.NewFinalizePasswordResetHandler(f.id.Reset)
	f.registerActivated(t, "Example User", "user@example.com")

	_, err := f.id.Reset.RequestReset(f.ctx, "user@example.com")
	require.NoError(t, err)
	mail, _ := f.mailer.last("reset")

	var got *identity.Account
	msg := identity.FinalizePasswordResetMessage{
		ResetPasswordMessage: identity.ResetPasswordMessage{
			Email:                "user@example.com",
			Token:                mail.token,
			Password:             "brand-new",
			PasswordConfirmation: "brand-new",
		},
		OnResponse: func(account *identity.Account) { got = account },
	}

	require.NoError(t, handler.Execute(f.ctx, msg))
	require.NotNil(t, got)
	assert.Equal(t, "user@example.com", got.Email)

	got = nil
	err = handler.Execute(f.ctx, msg)
	assert.ErrorIs(t, err, identity.ErrResetTokenInvalid)
	assert.Nil(t, got)
}
