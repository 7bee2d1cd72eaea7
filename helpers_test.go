package identity_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "foobar123"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	kind  string
	email string
	token string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendActivationEmail(_ context.Context, account *identity.Account, token string) error {
	return m.record("activation", account, token)
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, account *identity.Account, token string) error {
	return m.record("reset", account, token)
}

func (m *recordingMailer) record(kind string, account *identity.Account, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, email: account.Email, token: token})
	return m.err
}

func (m *recordingMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

type recordingSink struct {
	mu     sync.Mutex
	events []identity.ActivityEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, event identity.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) types() []identity.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identity.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *recordingSink) find(eventType identity.ActivityEventType) (identity.ActivityEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.EventType == eventType {
			return e, true
		}
	}
	return identity.ActivityEvent{}, false
}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Trace(message string, args ...any) { l.record("trace", message, args...) }
func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }
func (l *captureLogger) Fatal(message string, args ...any) { l.record("fatal", message, args...) }
func (l *captureLogger) WithContext(context.Context) identity.Logger {
	return l
}

func (l *captureLogger) has(level, fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.calls {
		if c.level == level && strings.Contains(c.message, fragment) {
			return true
		}
	}
	return false
}

// argFor returns the value logged under key by the first call at level.
func (l *captureLogger) argFor(level, key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.calls {
		if c.level != level {
			continue
		}
		for i := 0; i+1 < len(c.args); i += 2 {
			if k, ok := c.args[i].(string); ok && k == key {
				return c.args[i+1], true
			}
		}
	}
	return nil, false
}

type fixture struct {
	ctx    context.Context
	cfg    identity.Config
	store  *repository.Manager
	clock  *testClock
	mailer *recordingMailer
	sink   *recordingSink
	logger *captureLogger
	id     *identity.Identity
}

func testConfig() identity.Config {
	cfg := identity.DefaultConfig()
	cfg.HashCost = bcrypt.MinCost
	return cfg
}

func newStore(t *testing.T) *repository.Manager {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	store := repository.NewManager(db)
	require.NoError(t, store.CreateSchema(context.Background()))
	return store
}

func newFixture(t *testing.T, mutate ...func(*identity.Config)) *fixture {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	f := &fixture{
		ctx:    context.Background(),
		cfg:    cfg,
		store:  newStore(t),
		clock:  newTestClock(),
		mailer: &recordingMailer{},
		sink:   &recordingSink{},
		logger: &captureLogger{},
	}

	f.id = identity.New(f.store, cfg, f.options()...)
	return f
}

func (f *fixture) options() []identity.Option {
	return []identity.Option{
		identity.WithClock(f.clock.Now),
		identity.WithMailer(f.mailer),
		identity.WithActivitySink(f.sink),
		identity.WithLogger(f.logger),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *identity.Account {
	t.Helper()

	account, err := f.id.Accounts.Register(f.ctx, identity.RegisterAccountMessage{
		Name:                 name,
		Email:                email,
		Password:             testPassword,
		PasswordConfirmation: testPassword,
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) registerActivated(t *testing.T, name, email string) *identity.Account {
	t.Helper()

	account := f.register(t, name, email)
	activated, err := f.id.Activation.ActivateWithToken(f.ctx, email, account.ActivationToken)
	require.NoError(t, err)
	return activated
}

func (f *fixture) reload(t *testing.T, account *identity.Account) *identity.Account {
	t.Helper()

	fresh, err := f.store.FindByID(f.ctx, account.ID)
	require.NoError(t, err)
	return fresh
}

func assertPassword(t *testing.T, digest, password string) {
	t.Helper()

	ok, err := identity.NewBcryptDigester(bcrypt.MinCost).Verify(digest, password)
	require.NoError(t, err)
	assert.True(t, ok, "digest does not match %q", password)
}
