package identity

import "context"

// LoginPayload is what a login form hands to the Authenticator.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	// GetRememberMe returns the raw "remember me" form value.
	GetRememberMe() string
}

// LoginRequest is a plain LoginPayload.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe string `json:"remember_me"`
}

func (r LoginRequest) GetIdentifier() string { return r.Email }
func (r LoginRequest) GetPassword() string   { return r.Password }
func (r LoginRequest) GetRememberMe() string { return r.RememberMe }

// LoginResult is a successful login. RememberToken is set only when Choice
// is RememberOn and must go into a durable, httponly cookie.
type LoginResult struct {
	Account       *Account
	RememberToken string
	Choice        RememberChoice
}

// Authenticator runs the login policy on top of a RememberManager.
type Authenticator struct {
	sessions          *RememberManager
	requireActivation bool
}

// NewAuthenticator creates an Authenticator. Valid credentials are enough to
// log in; WithRequireActivation(true) adds an activation check.
func NewAuthenticator(store AccountStore, cfg Config, opts ...Option) *Authenticator {
	return &Authenticator{
		sessions: NewRememberManager(store, cfg, opts...),
	}
}

// WithRequireActivation turns the activated account check on or off.
func (a *Authenticator) WithRequireActivation(require bool) *Authenticator {
	a.requireActivation = require
	return a
}

// Sessions exposes the underlying RememberManager.
func (a *Authenticator) Sessions() *RememberManager {
	return a.sessions
}

// Login authenticates the payload and then remembers or forgets the account
// depending on the remember me flag. Unknown emails and wrong passwords
// return the errors matched by IsAuthFailure.
func (a *Authenticator) Login(ctx context.Context, payload LoginPayload) (*LoginResult, error) {
	identifier := payload.GetIdentifier()

	account, err := a.sessions.Authenticate(ctx, identifier, payload.GetPassword())
	if err != nil {
		a.loginFailed(ctx, nil, identifier, err)
		return nil, err
	}

	if a.requireActivation && !account.Activated {
		a.loginFailed(ctx, account, identifier, ErrAccountNotActivated)
		return nil, ErrAccountNotActivated
	}

	result := &LoginResult{
		Account: account,
		Choice:  ParseRememberMe(payload.GetRememberMe(), a.sessions.cfg),
	}

	if result.Choice.Enabled() {
		token, err := a.sessions.Remember(ctx, account)
		if err != nil {
			return nil, err
		}
		result.RememberToken = token
	} else if err := a.sessions.Forget(ctx, account); err != nil {
		return nil, err
	}

	a.sessions.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     accountActor(account),
		AccountID: accountID(account),
		Metadata:  map[string]any{"remember_me": result.Choice.String()},
	})

	return result, nil
}

// Logout forgets the account's remember token.
func (a *Authenticator) Logout(ctx context.Context, account *Account) error {
	if account == nil {
		return nil
	}
	return a.sessions.Forget(ctx, account)
}

func (a *Authenticator) loginFailed(ctx context.Context, account *Account, identifier string, err error) {
	reason := "error"
	switch {
	case hasTextCode(err, TextCodeAccountNotFound):
		reason = "not_found"
	case hasTextCode(err, TextCodeInvalidCreds):
		reason = "bad_password"
	case hasTextCode(err, TextCodeAccountNotActivated):
		reason = "not_activated"
	case IsCorruptDigest(err):
		reason = "corrupt_digest"
	}

	a.sessions.logger.WithContext(ctx).Debug("login failed", "reason", reason)

	a.sessions.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     accountActor(account),
		AccountID: accountID(account),
		Metadata: map[string]any{
			"identifier": NormalizeEmail(identifier),
			"reason":     reason,
		},
	})
}
