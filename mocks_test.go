package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore implements identity.Store
type MockStore struct {
	mock.Mock
}

var _ identity.Store = (*MockStore)(nil)

func (m *MockStore) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockStore) FindByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, account *identity.Account) (*identity.Account, error) {
	args := m.Called(ctx, account)
	if fn, ok := args.Get(0).(func(context.Context, *identity.Account) *identity.Account); ok {
		return fn(ctx, account), args.Error(1)
	}
	created, _ := args.Get(0).(*identity.Account)
	return created, args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, account *identity.Account, columns ...string) error {
	args := m.Called(ctx, account, columns)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, account *identity.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStore) InsertEdge(ctx context.Context, followerID, followedID uuid.UUID) error {
	args := m.Called(ctx, followerID, followedID)
	return args.Error(0)
}

func (m *MockStore) DeleteEdge(ctx context.Context, followerID, followedID uuid.UUID) error {
	args := m.Called(ctx, followerID, followedID)
	return args.Error(0)
}

func (m *MockStore) EdgeExists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followedID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) FollowingIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, followerID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *MockStore) FollowerIDs(ctx context.Context, followedID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, followedID)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *MockStore) CountFollowing(ctx context.Context, followerID uuid.UUID) (int, error) {
	args := m.Called(ctx, followerID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) CountFollowers(ctx context.Context, followedID uuid.UUID) (int, error) {
	args := m.Called(ctx, followedID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) QueryFeed(ctx context.Context, q identity.FeedQuery) ([]*identity.Micropost, error) {
	args := m.Called(ctx, q)
	posts, _ := args.Get(0).([]*identity.Micropost)
	return posts, args.Error(1)
}

// MockTokenGenerator implements identity.TokenGenerator
type MockTokenGenerator struct {
	mock.Mock
}

func (m *MockTokenGenerator) NewToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

var errStoreDown = errors.New("connection refused")

func TestAuthenticateStoreErrorIsNotAuthFailure(t *testing.T) {
	store := new(MockStore)
	store.On("FindByEmail", mock.Anything, "user@example.com").Return(nil, errStoreDown)

	sink := &recordingSink{}
	authn := identity.NewAuthenticator(store, testConfig(), identity.WithActivitySink(sink), identity.WithLogger(&captureLogger{}))

	_, err := authn.Login(context.Background(), identity.LoginRequest{Email: "User@example.com", Password: testPassword})
	require.Error(t, err)
	assert.False(t, identity.IsAuthFailure(err))

	event, ok := sink.find(identity.ActivityEventLoginFailure)
	require.True(t, ok)
	assert.Equal(t, "error", event.Metadata["reason"])
	assert.Equal(t, "user@example.com", event.Metadata["identifier"])

	store.AssertExpectations(t)
}

func TestRegisterReportsInsertRaceAsTaken(t *testing.T) {
	store := new(MockStore)
	store.On("EmailTaken", mock.Anything, "user@example.com", mock.Anything).Return(false, nil)
	store.On("Create", mock.Anything, mock.AnythingOfType("*identity.Account")).Return(nil, identity.ErrEmailTaken)

	mailer := &recordingMailer{}
	service := identity.NewAccountService(store, testConfig(), identity.WithMailer(mailer))

	_, err := service.Register(context.Background(), identity.RegisterAccountMessage{
		Name:                 "Example User",
		Email:                "user@example.com",
		Password:             testPassword,
		PasswordConfirmation: testPassword,
	})
	assert.Equal(t, identity.ReasonTaken, reasons(t, err)["email"])
	assert.Empty(t, mailer.sent)

	store.AssertExpectations(t)
}

func TestRegisterPersistsOnlyDigests(t *testing.T) {
	store := new(MockStore)
	store.On("EmailTaken", mock.Anything, "user@example.com", mock.Anything).Return(false, nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(a *identity.Account) bool {
		return a.Password == "" &&
			a.PasswordConfirmation == "" &&
			a.PasswordDigest != "" &&
			a.PasswordDigest != testPassword &&
			a.ActivationDigest != "" &&
			a.ActivationToken == ""
	})).Return(func(_ context.Context, a *identity.Account) *identity.Account { return a }, nil)

	service := identity.NewAccountService(store, testConfig())
	account, err := service.Register(context.Background(), identity.RegisterAccountMessage{
		Name:                 "Example User",
		Email:                "user@example.com",
		Password:             testPassword,
		PasswordConfirmation: testPassword,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, account.ActivationToken)

	store.AssertExpectations(t)
}

func TestActivateRollsBackOnStoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Update", mock.Anything, mock.Anything, []string{"activated", "activated_at", "updated_at"}).Return(errStoreDown)

	sink := &recordingSink{}
	workflow := identity.NewActivationWorkflow(store, testConfig(), identity.WithActivitySink(sink))

	account := &identity.Account{ID: uuid.New(), Email: "user@example.com"}
	err := workflow.Activate(context.Background(), account)
	require.Error(t, err)
	assert.False(t, account.Activated)
	assert.Nil(t, account.ActivatedAt)
	assert.Empty(t, sink.events)

	store.AssertExpectations(t)
}

func TestRememberFailsWhenTokenGenerationFails(t *testing.T) {
	store := new(MockStore)
	tokens := new(MockTokenGenerator)
	tokens.On("NewToken").Return("", identity.ErrTokenGeneration)

	sessions := identity.NewRememberManager(store, testConfig(), identity.WithTokenGenerator(tokens))

	account := &identity.Account{ID: uuid.New()}
	_, err := sessions.Remember(context.Background(), account)
	require.Error(t, err)
	assert.Empty(t, account.RememberDigest)

	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	tokens.AssertExpectations(t)
}

func TestFeedStoreError(t *testing.T) {
	store := new(MockStore)
	owner := &identity.Account{ID: uuid.New()}
	store.On("FollowingIDs", mock.Anything, owner.ID).Return(nil, errStoreDown)

	graph := identity.NewFollowGraph(store, testConfig())
	feed := graph.Feed(owner)

	_, err := feed.Page(context.Background(), 1)
	assert.Error(t, err)

	calls := 0
	for post, err := range feed.All(context.Background()) {
		calls++
		assert.Nil(t, post)
		assert.Error(t, err)
	}
	assert.Equal(t, 1, calls)
}

func TestMailFailureDoesNotUndoRegistration(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp unavailable")

	account := f.register(t, "Example User", "user@example.com")
	stored := f.reload(t, account)
	assert.NotEmpty(t, stored.ActivationDigest)

	assert.True(t, f.logger.has("error", "mail delivery failed"))
	event, ok := f.sink.find(identity.ActivityEventMailDeliveryError)
	require.True(t, ok)
	assert.Equal(t, "account_activation", event.Metadata["kind"])
	assert.Equal(t, "smtp unavailable", event.Metadata["error"])
}

func TestSinkFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("sink offline")

	f.register(t, "Example User", "user@example.com")

	assert.True(t, f.logger.has("warn", "activity sink record error"))
	event, ok := f.logger.argFor("warn", "event")
	require.True(t, ok)
	assert.Equal(t, string(identity.ActivityEventRegistered), event)
}
