package credentials_test

import (
	"context"
	"database/sql"
	"testing"

	credentials "github.com/goliatone/go-credentials"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    phone_number TEXT,
    password_hash TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    password_changed_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`

func setupAccountsRepo(t *testing.T) (credentials.RepositoryManager, func()) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateAccounts)
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return credentials.NewRepositoryManager(bunDB), cleanup
}

func registerTestAccount(t *testing.T, repo credentials.RepositoryManager, email string) *credentials.Account {
	t.Helper()

	account, err := repo.Accounts().Register(context.Background(), &credentials.Account{
		Email:        email,
		PasswordHash: testPasswordHash(),
		Active:       true,
	})
	require.NoError(t, err)
	require.NotNil(t, account)

	return account
}

func TestAccountsRegisterAndGetByEmail(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()
	created := registerTestAccount(t, repo, "pepe.rone@example.com")

	assert.NotEmpty(t, created.ID)

	found, err := repo.Accounts().GetByEmail(ctx, "pepe.rone@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "pepe.rone@example.com", found.Email)
	assert.True(t, found.CanAuthenticate())

	_, err = repo.Accounts().GetByEmail(ctx, "unknown@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAccountsResetPassword(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()
	created := registerTestAccount(t, repo, "pepe.rone@example.com")

	newHash, err := credentials.HashPassword("brand-new-password")
	require.NoError(t, err)

	err = repo.Accounts().ResetPassword(ctx, created.ID, newHash)
	require.NoError(t, err)

	found, err := repo.Accounts().GetByEmail(ctx, "pepe.rone@example.com")
	require.NoError(t, err)
	assert.Equal(t, newHash, found.PasswordHash)
	assert.NotNil(t, found.PasswordChangedAt)
	assert.True(t, credentials.VerifyPassword("brand-new-password", found.PasswordHash))
}

func TestAccountsUpdateEmail(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()
	created := registerTestAccount(t, repo, "pepe.rone@example.com")

	updated, err := repo.Accounts().UpdateEmail(ctx, created.ID, "new.email@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new.email@example.com", updated.Email)

	found, err := repo.Accounts().GetByEmail(ctx, "new.email@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.Accounts().GetByEmail(ctx, "pepe.rone@example.com")
	assert.Error(t, err)
}

func TestAccountsUpdateEmailConflict(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()
	created := registerTestAccount(t, repo, "pepe.rone@example.com")
	registerTestAccount(t, repo, "taken@example.com")

	_, err := repo.Accounts().UpdateEmail(ctx, created.ID, "taken@example.com")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryConflict, richErr.Category)
}

func TestRepositoryManagerValidate(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	assert.NoError(t, repo.Validate())
	assert.NotPanics(t, func() { repo.MustValidate() })
}

func TestRepositoryManagerRunInTxHonorsContext(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		t.Fatal("transaction body should not run on a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegisterAccountCommand(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()

	var created *credentials.Account
	handler := credentials.NewRegisterAccountHandler(repo).WithLogger(&captureLogger{})

	err := handler.Execute(ctx, credentials.RegisterAccountMessage{
		Email:    "pepe.rone@example.com",
		Phone:    "2125550179",
		Password: "some_secret_word",
		OnResponse: func(account *credentials.Account) {
			created = account
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "pepe.rone@example.com", created.Email)
	assert.Equal(t, "2125550179", created.Phone)
	assert.True(t, created.Active)
	assert.True(t, credentials.VerifyPassword("some_secret_word", created.PasswordHash))
}

func TestRegisterAccountCommandRejectsDuplicateEmail(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()
	registerTestAccount(t, repo, "pepe.rone@example.com")

	handler := credentials.NewRegisterAccountHandler(repo)

	err := handler.Execute(ctx, credentials.RegisterAccountMessage{
		Email:    "pepe.rone@example.com",
		Password: "some_secret_word",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrEmailConflict)
}

func TestRegisterAccountCommandCancelledContext(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := credentials.NewRegisterAccountHandler(repo)

	err := handler.Execute(ctx, credentials.RegisterAccountMessage{
		Email:    "pepe.rone@example.com",
		Password: "some_secret_word",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAccountsDirectoryRoundTrip(t *testing.T) {
	repo, cleanup := setupAccountsRepo(t)
	defer cleanup()

	ctx := context.Background()
	registerTestAccount(t, repo, "pepe.rone@example.com")

	// the repository doubles as the verifier's directory
	var directory credentials.Directory = repo.Accounts()

	verifier, err := credentials.NewVerifier(directory, testTokenConfig())
	require.NoError(t, err)

	pair, err := verifier.Authenticate(ctx, "pepe.rone@example.com", "secret-password")
	require.NoError(t, err)
	require.NotNil(t, pair)

	account, err := verifier.ResolveIdentity(ctx, pair.AccessToken, credentials.PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "pepe.rone@example.com", account.Email)

	_, err = verifier.Authenticate(ctx, "pepe.rone@example.com", "wrong")
	assert.ErrorIs(t, err, credentials.ErrInvalidCredentials)
}
