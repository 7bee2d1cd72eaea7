package identity

import (
	"context"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RememberChoice is the parsed "remember me" request flag.
type RememberChoice int

const (
	// RememberUnset means the request carried no flag. Login treats it as off.
	RememberUnset RememberChoice = iota
	RememberOn
	RememberOff
)

func (c RememberChoice) String() string {
	switch c {
	case RememberOn:
		return "on"
	case RememberOff:
		return "off"
	default:
		return "unset"
	}
}

// Enabled reports whether a remember token should be issued.
func (c RememberChoice) Enabled() bool {
	return c == RememberOn
}

// ParseRememberMe maps a raw form value onto a RememberChoice. The configured
// sentinel and legacy values turn it on, an empty value leaves it unset and
// anything else turns it off.
func ParseRememberMe(raw string, cfg Config) RememberChoice {
	cfg = cfg.withDefaults()
	v := strings.TrimSpace(raw)
	if v == "" {
		return RememberUnset
	}

	if v == cfg.RememberMeValue {
		return RememberOn
	}

	for _, legacy := range cfg.RememberMeLegacyValues {
		if legacy != "" && strings.EqualFold(v, legacy) {
			return RememberOn
		}
	}

	return RememberOff
}

// RememberManager authenticates credentials and manages persistent
// remember tokens.
type RememberManager struct {
	core
	store AccountStore
}

// NewRememberManager creates a manager backed by store.
func NewRememberManager(store AccountStore, cfg Config, opts ...Option) *RememberManager {
	return &RememberManager{
		core:  newCore("identity.session", cfg, opts),
		store: store,
	}
}

// Authenticate looks the account up by email and checks password. It returns
// ErrAccountNotFound or ErrMismatchedHashAndPassword on failure; callers must
// not tell the two apart in what they show the user.
func (m *RememberManager) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := m.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during authentication")
	}

	ok, err := m.verify(account, "password_digest", account.PasswordDigest, password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrMismatchedHashAndPassword
	}

	return account, nil
}

// Remember issues a new remember token, stores its digest over any previous
// one and returns the plaintext for the caller's cookie.
func (m *RememberManager) Remember(ctx context.Context, account *Account) (string, error) {
	token, digest, err := m.issueToken()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue remember token")
	}

	account.RememberDigest = digest
	account.UpdatedAt = m.now()
	if err := m.store.Update(ctx, account, "remember_digest", "updated_at"); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist remember digest")
	}

	account.RememberToken = token

	m.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventRemembered,
		Actor:     accountActor(account),
		AccountID: accountID(account),
	})

	return token, nil
}

// Forget clears the remember digest. Calling it again is harmless.
func (m *RememberManager) Forget(ctx context.Context, account *Account) error {
	account.RememberDigest = ""
	account.RememberToken = ""
	account.UpdatedAt = m.now()

	if err := m.store.Update(ctx, account, "remember_digest", "updated_at"); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear remember digest")
	}

	m.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventForgotten,
		Actor:     accountActor(account),
		AccountID: accountID(account),
	})

	return nil
}

// IsRemembered reports whether token matches the stored remember digest.
func (m *RememberManager) IsRemembered(account *Account, token string) (bool, error) {
	if !account.IsRememberable() || token == "" {
		return false, nil
	}
	return m.verify(account, "remember_digest", account.RememberDigest, token)
}

// ResumeSession loads the account named by a remember cookie and checks its
// token.
func (m *RememberManager) ResumeSession(ctx context.Context, id uuid.UUID, token string) (*Account, error) {
	account, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for session")
	}

	ok, err := m.IsRemembered(account, token)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrRememberTokenInvalid
	}

	return account, nil
}
