package identity

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ResetPasswordMessage carries the new password submitted from a reset link.
type ResetPasswordMessage struct {
	Email                string `json:"email"`
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (m ResetPasswordMessage) Type() string { return "account.password_reset" }

// ResetWorkflow issues time bounded reset tokens and consumes them.
type ResetWorkflow struct {
	core
	store     AccountStore
	validator *AccountValidator
}

// NewResetWorkflow creates a workflow backed by store.
func NewResetWorkflow(store AccountStore, cfg Config, opts ...Option) *ResetWorkflow {
	c := newCore("identity.reset", cfg, opts)
	return &ResetWorkflow{
		core:      c,
		store:     store,
		validator: NewAccountValidator(c.cfg, store),
	}
}

// CreateResetDigest issues a reset token, persists its digest with the
// current time and returns the plaintext token.
func (w *ResetWorkflow) CreateResetDigest(ctx context.Context, account *Account) (string, error) {
	token, digest, err := w.issueToken()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	now := w.now()
	account.ResetDigest = digest
	account.ResetSentAt = &now
	account.UpdatedAt = now

	if err := w.store.Update(ctx, account, "reset_digest", "reset_sent_at", "updated_at"); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist reset digest")
	}

	account.ResetToken = token
	return token, nil
}

// IsResetExpired reports whether the account has no usable reset: either
// none was requested or more than ResetWindow has passed since it was.
func (w *ResetWorkflow) IsResetExpired(account *Account) bool {
	return account.ResetState(w.now(), w.cfg.ResetWindow) != ResetRequested
}

// RequestReset starts a reset for the account with email and mails the
// token.
func (w *ResetWorkflow) RequestReset(ctx context.Context, email string) (*Account, error) {
	account, err := w.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	token, err := w.CreateResetDigest(ctx, account)
	if err != nil {
		return nil, err
	}

	w.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventResetRequested,
		Actor:     accountActor(account),
		AccountID: accountID(account),
		ToState:   string(ResetRequested),
	})

	w.deliver(ctx, account, "password_reset", w.mailer.SendPasswordResetEmail, token)

	return account, nil
}

// VerifyReset checks a reset link. The account must exist, be activated and
// hold a digest matching token; then the window must still be open.
func (w *ResetWorkflow) VerifyReset(ctx context.Context, email, token string) (*Account, error) {
	account, err := w.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	if !account.Activated || token == "" {
		return nil, ErrResetTokenInvalid
	}

	ok, err := w.verify(account, "reset_digest", account.ResetDigest, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrResetTokenInvalid
	}

	if w.IsResetExpired(account) {
		return nil, ErrResetExpired
	}

	return account, nil
}

// ResetPassword consumes a reset link: it stores the new password and clears
// the reset digest so the token cannot be used again.
func (w *ResetWorkflow) ResetPassword(ctx context.Context, msg ResetPasswordMessage) (*Account, error) {
	account, err := w.VerifyReset(ctx, msg.Email, msg.Token)
	if err != nil {
		return nil, err
	}

	account.Password = msg.Password
	account.PasswordConfirmation = msg.PasswordConfirmation
	account.ChangePassword = true
	defer account.clearTransient()

	if err := w.validator.ValidatePassword(account); err != nil {
		return nil, err
	}

	digest, err := w.digester.Digest(account.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to digest password")
	}

	account.PasswordDigest = digest
	account.ResetDigest = ""
	account.ResetSentAt = nil
	account.UpdatedAt = w.now()

	if err := w.store.Update(ctx, account, "password_digest", "reset_digest", "reset_sent_at", "updated_at"); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
	}

	w.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordReset,
		Actor:     accountActor(account),
		AccountID: accountID(account),
		FromState: string(ResetRequested),
		ToState:   string(ResetConsumed),
	})

	return account, nil
}
