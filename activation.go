package identity

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// ActivationWorkflow moves accounts from unactivated to activated. Activated
// is terminal.
type ActivationWorkflow struct {
	core
	store AccountStore
}

// NewActivationWorkflow creates a workflow backed by store.
func NewActivationWorkflow(store AccountStore, cfg Config, opts ...Option) *ActivationWorkflow {
	return &ActivationWorkflow{
		core:  newCore("identity.activation", cfg, opts),
		store: store,
	}
}

// CreateActivationDigest sets a fresh activation token, its digest and the
// sent-at time on the in-memory account. Nothing is persisted.
func (w *ActivationWorkflow) CreateActivationDigest(account *Account) error {
	if err := w.assignActivationDigest(account); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create activation digest")
	}
	return nil
}

// Activate flips the account to activated. Activating an active account is a
// no-op.
func (w *ActivationWorkflow) Activate(ctx context.Context, account *Account) error {
	if account == nil {
		return ErrAccountNotFound
	}

	if account.Activated {
		return nil
	}

	from := account.State()
	now := w.now()
	account.Activated = true
	account.ActivatedAt = &now
	account.UpdatedAt = now

	if err := w.store.Update(ctx, account, "activated", "activated_at", "updated_at"); err != nil {
		account.Activated = false
		account.ActivatedAt = nil
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
	}

	w.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventActivated,
		Actor:     accountActor(account),
		AccountID: accountID(account),
		FromState: string(from),
		ToState:   string(account.State()),
	})

	return nil
}

// ActivateWithToken consumes an emailed activation link. Unknown emails,
// already active accounts and wrong tokens all yield
// ErrActivationTokenInvalid.
func (w *ActivationWorkflow) ActivateWithToken(ctx context.Context, email, token string) (*Account, error) {
	account, err := w.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrActivationTokenInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for activation")
	}

	if account.Activated || token == "" {
		return nil, ErrActivationTokenInvalid
	}

	ok, err := w.verify(account, "activation_digest", account.ActivationDigest, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrActivationTokenInvalid
	}

	if w.isActivationExpired(account) {
		return nil, ErrActivationExpired
	}

	if err := w.Activate(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// ResendActivation issues a new activation token for an unactivated account,
// persists its digest and mails it.
func (w *ActivationWorkflow) ResendActivation(ctx context.Context, email string) (*Account, error) {
	account, err := w.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for activation")
	}

	if account.Activated {
		return nil, ErrAccountAlreadyActivated
	}

	if err := w.CreateActivationDigest(account); err != nil {
		return nil, err
	}
	account.UpdatedAt = w.now()

	if err := w.store.Update(ctx, account, "activation_digest", "activation_sent_at", "updated_at"); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist activation digest")
	}

	w.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventActivationResent,
		Actor:     accountActor(account),
		AccountID: accountID(account),
	})

	w.deliver(ctx, account, "account_activation", w.mailer.SendActivationEmail, account.ActivationToken)

	return account, nil
}

func (w *ActivationWorkflow) isActivationExpired(account *Account) bool {
	if w.cfg.ActivationWindow <= 0 || account.ActivationSentAt == nil {
		return false
	}
	return IsOutsideThresholdPeriod(w.now(), *account.ActivationSentAt, w.cfg.ActivationWindow)
}

func (c core) assignActivationDigest(account *Account) error {
	token, digest, err := c.issueToken()
	if err != nil {
		return err
	}

	now := c.now()
	account.ActivationToken = token
	account.ActivationDigest = digest
	account.ActivationSentAt = &now
	return nil
}
