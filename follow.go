package identity

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// FollowStats are the counters shown on a profile.
type FollowStats struct {
	Following int `json:"following"`
	Followers int `json:"followers"`
}

// GraphStore is what FollowGraph needs from persistence.
type GraphStore interface {
	RelationshipStore
	FeedStore
}

// FollowGraph manages follower -> followed edges and builds feeds from them.
// Self follows are not rejected here.
type FollowGraph struct {
	core
	store GraphStore
}

// NewFollowGraph creates a graph backed by store.
func NewFollowGraph(store GraphStore, cfg Config, opts ...Option) *FollowGraph {
	return &FollowGraph{
		core:  newCore("identity.graph", cfg, opts),
		store: store,
	}
}

// Follow adds the edge follower -> followed. A second call surfaces
// ErrAlreadyFollowing from the store.
func (g *FollowGraph) Follow(ctx context.Context, follower, followed *Account) error {
	if follower == nil || followed == nil {
		return ErrAccountNotFound
	}

	if err := g.store.InsertEdge(ctx, follower.ID, followed.ID); err != nil {
		if errors.Is(err, ErrAlreadyFollowing) {
			return ErrAlreadyFollowing
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to follow account")
	}

	g.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventFollowed,
		Actor:     accountActor(follower),
		AccountID: accountID(followed),
	})

	return nil
}

// Unfollow removes the edge follower -> followed if it exists.
func (g *FollowGraph) Unfollow(ctx context.Context, follower, followed *Account) error {
	if follower == nil || followed == nil {
		return ErrAccountNotFound
	}

	if err := g.store.DeleteEdge(ctx, follower.ID, followed.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to unfollow account")
	}

	g.events().emit(ctx, ActivityEvent{
		EventType: ActivityEventUnfollowed,
		Actor:     accountActor(follower),
		AccountID: accountID(followed),
	})

	return nil
}

// IsFollowing reports whether the edge follower -> followed exists.
func (g *FollowGraph) IsFollowing(ctx context.Context, follower, followed *Account) (bool, error) {
	if follower == nil || followed == nil {
		return false, nil
	}

	ok, err := g.store.EdgeExists(ctx, follower.ID, followed.ID)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check relationship")
	}
	return ok, nil
}

// Following returns the ids account follows.
func (g *FollowGraph) Following(ctx context.Context, account *Account) ([]uuid.UUID, error) {
	if account == nil {
		return nil, ErrAccountNotFound
	}

	ids, err := g.store.FollowingIDs(ctx, account.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list followed accounts")
	}
	return ids, nil
}

// Followers returns the ids following account.
func (g *FollowGraph) Followers(ctx context.Context, account *Account) ([]uuid.UUID, error) {
	if account == nil {
		return nil, ErrAccountNotFound
	}

	ids, err := g.store.FollowerIDs(ctx, account.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list followers")
	}
	return ids, nil
}

func (g *FollowGraph) Stats(ctx context.Context, account *Account) (FollowStats, error) {
	if account == nil {
		return FollowStats{}, ErrAccountNotFound
	}

	following, err := g.store.CountFollowing(ctx, account.ID)
	if err != nil {
		return FollowStats{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count followed accounts")
	}

	followers, err := g.store.CountFollowers(ctx, account.ID)
	if err != nil {
		return FollowStats{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count followers")
	}

	return FollowStats{Following: following, Followers: followers}, nil
}

// Feed returns the feed of account: its own microposts and those of every
// account it follows. The feed of a nil account fails every read with
// ErrAccountNotFound.
func (g *FollowGraph) Feed(account *Account) *Feed {
	if account == nil {
		return &Feed{store: g.store, pageSize: DefaultFeedPageSize, err: ErrAccountNotFound}
	}
	return &Feed{
		store:    g.store,
		ownerID:  account.ID,
		pageSize: DefaultFeedPageSize,
	}
}
