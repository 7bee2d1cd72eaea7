package repository

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewAccountsRepository returns the generic repository for accounts.
func NewAccountsRepository(db *bun.DB) repository.Repository[*identity.Account] {
	handlers := repository.ModelHandlers[*identity.Account]{
		NewRecord: func() *identity.Account {
			return &identity.Account{}
		},
		GetID: func(record *identity.Account) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *identity.Account, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}

// FindByEmail expects a lower cased email.
func (m *Manager) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	return m.FindByEmailTx(ctx, m.db, email)
}

func (m *Manager) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*identity.Account, error) {
	if strings.TrimSpace(email) == "" {
		return nil, identity.ErrAccountNotFound
	}

	account := &identity.Account{}
	err := tx.NewSelect().
		Model(account).
		Where("?TableAlias.email = ?", identity.NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to select account by email")
	}

	return account, nil
}

func (m *Manager) FindByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	if id == uuid.Nil {
		return nil, identity.ErrAccountNotFound
	}

	account, err := m.accounts.GetByID(ctx, id.String())
	if err != nil {
		if isNotFound(err) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to select account by id")
	}

	return account, nil
}

// EmailTaken reports whether another account already uses email.
func (m *Manager) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	q := m.db.NewSelect().
		Model((*identity.Account)(nil)).
		Where("lower(?TableAlias.email) = ?", identity.NormalizeEmail(email))

	if excludeID != uuid.Nil {
		q = q.Where("?TableAlias.id <> ?", excludeID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}
	return exists, nil
}

func (m *Manager) Create(ctx context.Context, account *identity.Account) (*identity.Account, error) {
	return m.CreateTx(ctx, m.db, account)
}

func (m *Manager) CreateTx(ctx context.Context, tx bun.IDB, account *identity.Account) (*identity.Account, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.Email = identity.NormalizeEmail(account.Email)
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}

	created, err := m.accounts.CreateTx(ctx, tx, account)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, identity.ErrEmailTaken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to insert account")
	}

	return created, nil
}

// Update writes columns, or every column but the key and creation time when
// none are named.
func (m *Manager) Update(ctx context.Context, account *identity.Account, columns ...string) error {
	return m.UpdateTx(ctx, m.db, account, columns...)
}

func (m *Manager) UpdateTx(ctx context.Context, tx bun.IDB, account *identity.Account, columns ...string) error {
	q := tx.NewUpdate().Model(account).WherePK()
	if len(columns) > 0 {
		q = q.Column(columns...)
	} else {
		q = q.ExcludeColumn("id", "created_at")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailTaken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return identity.ErrAccountNotFound
	}

	return nil
}

// Delete removes the account, every relationship it takes part in and its
// microposts in one transaction.
func (m *Manager) Delete(ctx context.Context, account *identity.Account) error {
	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.DeleteTx(ctx, tx, account)
	})
}

func (m *Manager) DeleteTx(ctx context.Context, tx bun.IDB, account *identity.Account) error {
	id := account.ID

	if _, err := tx.NewDelete().
		Model((*identity.Micropost)(nil)).
		Where("account_id = ?", id).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete account microposts")
	}

	if _, err := tx.NewDelete().
		Model((*identity.Relationship)(nil)).
		Where("follower_id = ? OR followed_id = ?", id, id).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete account relationships")
	}

	res, err := tx.NewDelete().
		Model((*identity.Account)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete account")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return identity.ErrAccountNotFound
	}

	return nil
}
