package identity

import (
	"context"
	"fmt"
	"net/url"
)

// Mailer delivers tokens out of band. Delivery failures are logged by the
// caller and never undo the state change that produced the token.
type Mailer interface {
	SendActivationEmail(ctx context.Context, account *Account, token string) error
	SendPasswordResetEmail(ctx context.Context, account *Account, token string) error
}

// LogMailer writes the links it would send to a logger. Useful in
// development.
type LogMailer struct {
	logger   Logger
	provider LoggerProvider
	BaseURL  string
}

// NewLogMailer creates a LogMailer that prints links rooted at baseURL.
func NewLogMailer(baseURL string) *LogMailer {
	provider, logger := ResolveLogger("identity.mailer", nil, nil)
	return &LogMailer{logger: logger, provider: provider, BaseURL: baseURL}
}

func (m *LogMailer) WithLogger(l Logger) *LogMailer {
	m.provider, m.logger = ResolveLogger("identity.mailer", m.provider, l)
	return m
}

func (m *LogMailer) SendActivationEmail(ctx context.Context, account *Account, token string) error {
	m.logger.WithContext(ctx).Info("sending email notification",
		"kind", "account_activation",
		"to", account.Email,
		"link", activationLink(m.BaseURL, token, account.Email),
	)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, account *Account, token string) error {
	m.logger.WithContext(ctx).Info("sending email notification",
		"kind", "password_reset",
		"to", account.Email,
		"link", resetLink(m.BaseURL, token, account.Email),
	)
	return nil
}

func activationLink(base, token, email string) string {
	return fmt.Sprintf("%s/account_activations/%s/edit?email=%s", base, token, url.QueryEscape(email))
}

func resetLink(base, token, email string) string {
	return fmt.Sprintf("%s/password_resets/%s/edit?email=%s", base, token, url.QueryEscape(email))
}

type noopMailer struct{}

func (noopMailer) SendActivationEmail(context.Context, *Account, string) error    { return nil }
func (noopMailer) SendPasswordResetEmail(context.Context, *Account, string) error { return nil }

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}

// deliver hands token to send. A failed delivery is logged and published but
// does not fail the caller.
func (c core) deliver(ctx context.Context, account *Account, kind string, send func(context.Context, *Account, string) error, token string) {
	if err := send(ctx, account, token); err != nil {
		c.logger.WithContext(ctx).Error("mail delivery failed", "kind", kind, "account_id", accountID(account), "error", err)
		c.events().emit(ctx, ActivityEvent{
			EventType: ActivityEventMailDeliveryError,
			Actor:     accountActor(account),
			AccountID: accountID(account),
			Metadata:  map[string]any{"kind": kind, "error": err.Error()},
		})
	}
}
