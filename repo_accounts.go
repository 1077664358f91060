package credentials

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var resetAccountPasswordSQL = `UPDATE "accounts" AS "acct"
SET
	"password_hash" = ?,
	"password_changed_at" = CURRENT_TIMESTAMP
WHERE
	"acct"."deleted_at" IS NULL
AND (
	"acct"."id" = ?
) RETURNING *;`

var updateAccountEmailSQL = `UPDATE "accounts" AS "acct"
SET
	"email" = ?,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acct"."deleted_at" IS NULL
AND (
	"acct"."id" = ?
) RETURNING *;`

// Accounts is the persistence surface for identity records. It satisfies
// the Directory boundary the verifier consumes.
type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)

	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	UpdateEmail(ctx context.Context, id uuid.UUID, newEmail string) (*Account, error)
	UpdateEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ Directory                       = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

// NewAccountsRepository wires the shared repository helpers for Account
// records. The identifier column is the email, matching the subject carried
// by every token.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	return a.GetByIdentifierTx(ctx, tx, email)
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	return a.CreateTx(ctx, tx, account)
}

func (a *accounts) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accounts) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	if _, err := a.RawTx(ctx, tx, resetAccountPasswordSQL, passwordHash, id.String()); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
	}
	return nil
}

func (a *accounts) UpdateEmail(ctx context.Context, id uuid.UUID, newEmail string) (*Account, error) {
	return a.UpdateEmailTx(ctx, a.db, id, newEmail)
}

func (a *accounts) UpdateEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) (*Account, error) {
	records, err := a.RawTx(ctx, tx, updateAccountEmailSQL, newEmail, id.String())
	if err != nil {
		// the unique email constraint is the usual cause here
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, ErrEmailConflict.Message).
			WithTextCode(ErrEmailConflict.TextCode)
	}

	if len(records) == 0 {
		return nil, goerrors.New("account not found for email update", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	return records[0], nil
}
