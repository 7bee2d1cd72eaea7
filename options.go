package identity

import (
	"errors"
	"time"
)

// Option customizes any of the services in this package.
type Option func(*core)

// WithDigester replaces the bcrypt digester.
func WithDigester(d SecretDigester) Option {
	return func(c *core) {
		if d != nil {
			c.digester = d
		}
	}
}

// WithTokenGenerator replaces the crypto/rand token generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(c *core) {
		if g != nil {
			c.tokens = g
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *core) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMailer sets the collaborator that delivers activation and reset tokens.
func WithMailer(m Mailer) Option {
	return func(c *core) {
		c.mailer = normalizeMailer(m)
	}
}

// WithActivitySink sets the ActivitySink used to publish events.
func WithActivitySink(sink ActivitySink) Option {
	return func(c *core) {
		c.sink = normalizeActivitySink(sink)
	}
}

// WithLogger overrides the logger.
func WithLogger(logger Logger) Option {
	return func(c *core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoggerProvider overrides the logger provider.
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(c *core) {
		if provider != nil {
			c.provider = provider
		}
	}
}

// core holds the collaborators shared by every service.
type core struct {
	cfg      Config
	digester SecretDigester
	tokens   TokenGenerator
	clock    Clock
	mailer   Mailer
	sink     ActivitySink
	provider LoggerProvider
	logger   Logger
}

func newCore(name string, cfg Config, opts []Option) core {
	cfg = cfg.withDefaults()
	c := core{
		cfg:      cfg,
		digester: NewBcryptDigester(cfg.HashCost),
		tokens:   RandomTokenGenerator{},
		clock:    time.Now,
		mailer:   noopMailer{},
		sink:     noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	c.provider, c.logger = ResolveLogger(name, c.provider, c.logger)
	return c
}

// issueToken returns a fresh plaintext token and its digest.
func (c core) issueToken() (string, string, error) {
	token, err := c.tokens.NewToken()
	if err != nil {
		return "", "", err
	}

	digest, err := c.digester.Digest(token)
	if err != nil {
		return "", "", err
	}

	return token, digest, nil
}

// verify checks candidate against the digest stored in field, logging
// corrupt digests with the account id.
func (c core) verify(account *Account, field, stored, candidate string) (bool, error) {
	ok, err := c.digester.Verify(stored, candidate)
	if err != nil {
		var de *digestError
		if errors.As(err, &de) {
			c.logger.Error("corrupt digest on account", "account_id", accountID(account), "field", field, "error", de.cause)
			return false, corruptDigest(field, de.cause)
		}
		if IsCorruptDigest(err) {
			c.logger.Error("corrupt digest on account", "account_id", accountID(account), "field", field)
		}
		return false, err
	}
	return ok, nil
}

func (c core) events() emitter {
	return emitter{sink: c.sink, logger: c.logger, clock: c.clock}
}

func (c core) now() time.Time {
	return c.clock.now()
}
