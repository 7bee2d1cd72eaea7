package repository

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Microposts writes feed content. The identity core only reads it.
type Microposts struct {
	db *bun.DB
}

func NewMicropostsRepository(db *bun.DB) *Microposts {
	return &Microposts{db: db}
}

func (r *Microposts) Create(ctx context.Context, post *identity.Micropost) (*identity.Micropost, error) {
	return r.CreateTx(ctx, r.db, post)
}

func (r *Microposts) CreateTx(ctx context.Context, tx bun.IDB, post *identity.Micropost) (*identity.Micropost, error) {
	if strings.TrimSpace(post.Content) == "" {
		return nil, identity.NewValidationError("content", identity.ReasonRequired)
	}

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	if _, err := tx.NewInsert().Model(post).Returning("*").Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert micropost")
	}

	return post, nil
}

// CountByAccount returns how many microposts account owns.
func (r *Microposts) CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*identity.Micropost)(nil)).
		Where("account_id = ?", accountID).
		Count(ctx)
}

// QueryFeed selects microposts owned by q.OwnerID or any of q.FollowedIDs,
// newest first with the id as tie breaker.
func (m *Manager) QueryFeed(ctx context.Context, q identity.FeedQuery) ([]*identity.Micropost, error) {
	posts := []*identity.Micropost{}

	sel := m.db.NewSelect().
		Model(&posts).
		WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			sq = sq.Where("?TableAlias.account_id = ?", q.OwnerID)
			if len(q.FollowedIDs) > 0 {
				sq = sq.WhereOr("?TableAlias.account_id IN (?)", bun.In(q.FollowedIDs))
			}
			return sq
		}).
		OrderExpr("?TableAlias.created_at DESC").
		OrderExpr("?TableAlias.id DESC")

	if q.Limit > 0 {
		sel = sel.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sel = sel.Offset(q.Offset)
	}

	if err := sel.Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query feed")
	}

	return posts, nil
}
