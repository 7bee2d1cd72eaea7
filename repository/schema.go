package repository

import (
	"context"

	"github.com/goliatone/go-identity"
	"github.com/uptrace/bun"
)

var models = []any{
	(*identity.Account)(nil),
	(*identity.Relationship)(nil),
	(*identity.Micropost)(nil),
}

// CreateSchema creates the tables and indexes used by the store. It is safe
// to run against an existing schema.
func (m *Manager) CreateSchema(ctx context.Context) error {
	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range models {
			if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		if _, err := tx.NewCreateIndex().
			Model((*identity.Relationship)(nil)).
			Index("idx_relationships_followed_id").
			Column("followed_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewCreateIndex().
			Model((*identity.Micropost)(nil)).
			Index("idx_microposts_account_id_created_at").
			Column("account_id", "created_at").
			IfNotExists().
			Exec(ctx)
		return err
	})
}
