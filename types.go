package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore persists accounts. Lookups return ErrAccountNotFound when no
// row matches. FindByEmail expects an already normalized email.
type AccountStore interface {
	EmailChecker
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	// Update writes the named columns only; no columns means every column.
	Update(ctx context.Context, account *Account, columns ...string) error
	// Delete removes the account with its relationships and microposts.
	Delete(ctx context.Context, account *Account) error
}

// RelationshipStore persists follow edges.
type RelationshipStore interface {
	InsertEdge(ctx context.Context, followerID, followedID uuid.UUID) error
	DeleteEdge(ctx context.Context, followerID, followedID uuid.UUID) error
	EdgeExists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error)
	FollowingIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)
	FollowerIDs(ctx context.Context, followedID uuid.UUID) ([]uuid.UUID, error)
	CountFollowing(ctx context.Context, followerID uuid.UUID) (int, error)
	CountFollowers(ctx context.Context, followedID uuid.UUID) (int, error)
}

// FeedQuery selects microposts owned by OwnerID or any of FollowedIDs.
type FeedQuery struct {
	OwnerID     uuid.UUID
	FollowedIDs []uuid.UUID
	Limit       int
	Offset      int
}

// FeedStore runs feed queries. Results are ordered newest first with the
// id as tie breaker.
type FeedStore interface {
	QueryFeed(ctx context.Context, q FeedQuery) ([]*Micropost, error)
}

// Store is everything the package needs from persistence.
type Store interface {
	AccountStore
	RelationshipStore
	FeedStore
}

// Clock returns the current time. Tests inject fixed clocks.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
