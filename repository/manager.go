package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Manager implements identity.Store on top of Bun.
type Manager struct {
	db         *bun.DB
	accounts   repository.Repository[*identity.Account]
	microposts *Microposts
}

var _ identity.Store = (*Manager)(nil)

// NewManager wires the repositories to db.
func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:         db,
		accounts:   NewAccountsRepository(db),
		microposts: NewMicropostsRepository(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database")
	}

	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.microposts == nil {
		return errors.New("repository microposts should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// DB returns the underlying database handle.
func (m *Manager) DB() *bun.DB {
	return m.db
}

func (m *Manager) Accounts() repository.Repository[*identity.Account] {
	return m.accounts
}

func (m *Manager) Microposts() *Microposts {
	return m.microposts
}
