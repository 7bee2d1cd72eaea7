package identity

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// RegisterAccountMessage carries a sign up form.
type RegisterAccountMessage struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (m RegisterAccountMessage) Type() string { return "account.register" }

// UpdateAccountMessage carries a profile edit. Password fields are ignored
// unless ChangePassword is set.
type UpdateAccountMessage struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	ChangePassword       bool   `json:"change_password"`
}

func (m UpdateAccountMessage) Type() string { return "account.update" }

// AccountService owns the account create, update and delete paths.
type AccountService struct {
	core
	store     AccountStore
	validator *AccountValidator
}

// NewAccountService creates a service backed by store.
func NewAccountService(store AccountStore, cfg Config, opts ...Option) *AccountService {
	c := newCore("identity.accounts", cfg, opts)
	return &AccountService{
		core:      c,
		store:     store,
		validator: NewAccountValidator(c.cfg, store),
	}
}

// Register validates and persists a new unactivated account, then mails its
// activation token. The returned account carries the plaintext token in
// ActivationToken for this call only.
func (s *AccountService) Register(ctx context.Context, msg RegisterAccountMessage) (*Account, error) {
	account := &Account{
		Name:                 strings.TrimSpace(msg.Name),
		Email:                strings.TrimSpace(msg.Email),
		Password:             msg.Password,
		PasswordConfirmation: msg.PasswordConfirmation,
		ChangePassword:       true,
	}

	if err := s.validator.Validate(ctx, account); err != nil {
		return nil, err
	}

	account.Email = NormalizeEmail(account.Email)

	digest, err := s.digester.Digest(account.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to digest password")
	}
	account.PasswordDigest = digest

	if err := s.assignActivationDigest(account); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create activation digest")
	}

	id, err := s.newAccountID(ctx, account.Email)
	if err != nil {
		return nil, err
	}
	account.ID = id
	now := s.now()
	account.CreatedAt = now
	account.UpdatedAt = now

	token := account.ActivationToken
	account.ActivationToken = ""
	account.clearTransient()

	created, err := s.store.Create(ctx, account)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, NewValidationError("email", ReasonTaken)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create account")
	}
	created.ActivationToken = token

	s.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventRegistered,
		Actor:     accountActor(created),
		AccountID: accountID(created),
		ToState:   string(created.State()),
	})

	s.deliver(ctx, created, "account_activation", s.mailer.SendActivationEmail, token)

	return created, nil
}

// UpdateProfile applies name and email edits, and a new password when the
// message asks for one.
func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, msg UpdateAccountMessage) (*Account, error) {
	account, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	account.Name = strings.TrimSpace(msg.Name)
	account.Email = strings.TrimSpace(msg.Email)
	account.ChangePassword = msg.ChangePassword
	if msg.ChangePassword {
		account.Password = msg.Password
		account.PasswordConfirmation = msg.PasswordConfirmation
	}

	if err := s.validator.Validate(ctx, account); err != nil {
		account.clearTransient()
		return nil, err
	}

	account.Email = NormalizeEmail(account.Email)
	columns := []string{"name", "email", "updated_at"}

	if msg.ChangePassword {
		digest, err := s.digester.Digest(account.Password)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to digest password")
		}
		account.PasswordDigest = digest
		columns = append(columns, "password_digest")
	}
	account.clearTransient()
	account.UpdatedAt = s.now()

	if err := s.store.Update(ctx, account, columns...); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, NewValidationError("email", ReasonTaken)
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update account")
	}

	s.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventUpdated,
		Actor:     accountActor(account),
		AccountID: accountID(account),
		Metadata:  map[string]any{"password_changed": msg.ChangePassword},
	})

	return account, nil
}

// Find returns the account with id.
func (s *AccountService) Find(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}
	return account, nil
}

// FindByEmail looks an account up by email in any letter case.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account")
	}
	return account, nil
}

// Delete removes the account together with its relationships and
// microposts.
func (s *AccountService) Delete(ctx context.Context, account *Account) error {
	if account == nil {
		return ErrAccountNotFound
	}

	if err := s.store.Delete(ctx, account); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete account")
	}

	s.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventDeleted,
		Actor:     accountActor(account),
		AccountID: accountID(account),
		FromState: string(account.State()),
	})

	return nil
}

// newAccountID derives the id from the email when UseHashid is set. An
// account that changed its email keeps the id derived from the old one, so a
// derived id already in use falls back to a random one.
func (s *AccountService) newAccountID(ctx context.Context, email string) (uuid.UUID, error) {
	if !s.cfg.UseHashid {
		return uuid.New(), nil
	}

	id, err := hashid.NewUUID(email)
	if err != nil {
		s.logger.Warn("hashid generation failed, falling back to random id", "error", err)
		return uuid.New(), nil
	}

	_, err = s.store.FindByID(ctx, id)
	switch {
	case err == nil:
		s.logger.WithContext(ctx).Info("hashid already in use, falling back to random id", "account_id", id.String())
		return uuid.New(), nil
	case errors.Is(err, ErrAccountNotFound):
		return id, nil
	default:
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check account id")
	}
}
