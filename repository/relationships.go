package repository

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InsertEdge stores follower -> followed. The unique index turns duplicates
// into identity.ErrAlreadyFollowing.
func (m *Manager) InsertEdge(ctx context.Context, followerID, followedID uuid.UUID) error {
	rel := &identity.Relationship{
		ID:         uuid.New(),
		FollowerID: followerID,
		FollowedID: followedID,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := m.db.NewInsert().Model(rel).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return identity.ErrAlreadyFollowing
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert relationship")
	}

	return nil
}

// DeleteEdge removes follower -> followed. A missing edge is not an error.
func (m *Manager) DeleteEdge(ctx context.Context, followerID, followedID uuid.UUID) error {
	_, err := m.db.NewDelete().
		Model((*identity.Relationship)(nil)).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete relationship")
	}
	return nil
}

func (m *Manager) EdgeExists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error) {
	return m.db.NewSelect().
		Model((*identity.Relationship)(nil)).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Exists(ctx)
}

func (m *Manager) FollowingIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	rels, err := m.edges(ctx, "follower_id", followerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.FollowedID)
	}
	return ids, nil
}

func (m *Manager) FollowerIDs(ctx context.Context, followedID uuid.UUID) ([]uuid.UUID, error) {
	rels, err := m.edges(ctx, "followed_id", followedID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.FollowerID)
	}
	return ids, nil
}

func (m *Manager) CountFollowing(ctx context.Context, followerID uuid.UUID) (int, error) {
	return m.db.NewSelect().
		Model((*identity.Relationship)(nil)).
		Where("follower_id = ?", followerID).
		Count(ctx)
}

func (m *Manager) CountFollowers(ctx context.Context, followedID uuid.UUID) (int, error) {
	return m.db.NewSelect().
		Model((*identity.Relationship)(nil)).
		Where("followed_id = ?", followedID).
		Count(ctx)
}

func (m *Manager) edges(ctx context.Context, column string, id uuid.UUID) ([]identity.Relationship, error) {
	var rels []identity.Relationship
	err := m.db.NewSelect().
		Model(&rels).
		Where("? = ?", bun.Ident(column), id).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to select relationships")
	}
	return rels, nil
}
