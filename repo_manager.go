package gqlauth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager bundles the persistence surface the command handlers
// operate on: account storage, password reset records, and transactions.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	PasswordResets() repository.Repository[*PasswordReset]
}

// NewPasswordResetsRepository builds the reset-record repository. Reset
// records are addressed by the token that opened them, so token_id doubles
// as the natural identifier.
func NewPasswordResetsRepository(db *bun.DB) repository.Repository[*PasswordReset] {
	handlers := repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset {
			return &PasswordReset{}
		},
		GetID: func(record *PasswordReset) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordReset, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token_id"
		},
	}
	return repository.NewRepository(db, handlers)
}

type repoManager struct {
	db             *bun.DB
	users          Users
	passwordResets repository.Repository[*PasswordReset]
}

func NewRepositoryManager(db *bun.DB, opts ...UsersOption) RepositoryManager {
	return &repoManager{
		db:             db,
		users:          NewUsersRepository(db, opts...),
		passwordResets: NewPasswordResetsRepository(db),
	}
}

func (m repoManager) Validate() error {
	if m.users == nil {
		return errors.New("users repository should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("password resets repository should be initialized")
	}

	return nil
}

func (m repoManager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m repoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m repoManager) Users() Users {
	return m.users
}

func (m repoManager) PasswordResets() repository.Repository[*PasswordReset] {
	return m.passwordResets
}
