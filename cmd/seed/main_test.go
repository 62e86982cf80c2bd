package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bienesraices/internal/auth"
	"bienesraices/internal/db/testdb"
	apperrors "bienesraices/internal/errors"
	"bienesraices/internal/repository"
)

func TestSeedAccounts(t *testing.T) {
	repo := repository.NewAccountRepository(testdb.Open(t))
	hasher := auth.NewBcryptHasher()
	ctx := context.Background()

	seeded, updated, err := seedAccounts(ctx, repo, hasher, []SeedAccountData{
		{Name: "Ana", Email: "ana@x.com", Password: "secret1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	assert.Equal(t, 0, updated)

	seeded, updated, err = seedAccounts(ctx, repo, hasher, []SeedAccountData{
		{Name: "Ana María", Email: "ana@x.com", Password: "nueva123"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, seeded)
	assert.Equal(t, 1, updated)

	account, err := repo.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", account.Name)
	assert.True(t, account.Confirmed)
	assert.Nil(t, account.Token)
	assert.True(t, hasher.Verify("nueva123", account.PasswordHash))
}

func TestSeedAccounts_RejectsInvalidEntries(t *testing.T) {
	valid := SeedAccountData{Name: "Ana", Email: "ana@x.com", Password: "secret1"}

	tests := []struct {
		name      string
		entry     SeedAccountData
		wantField string
	}{
		{name: "malformed email", entry: SeedAccountData{Name: "Luis", Email: "luis", Password: "secret1"}, wantField: "email"},
		{name: "short password", entry: SeedAccountData{Name: "Luis", Email: "luis@x.com", Password: "abc"}, wantField: "password"},
		{name: "password over 72 bytes", entry: SeedAccountData{Name: "Luis", Email: "luis@x.com", Password: strings.Repeat("a", 73)}, wantField: "password"},
		{name: "blank name", entry: SeedAccountData{Name: "  ", Email: "luis@x.com", Password: "secret1"}, wantField: "nombre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewAccountRepository(testdb.Open(t))

			seeded, updated, err := seedAccounts(context.Background(), repo, auth.NewBcryptHasher(), []SeedAccountData{valid, tt.entry})

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.Has(tt.wantField))
			assert.Zero(t, seeded)
			assert.Zero(t, updated)

			_, err = repo.FindByEmail(context.Background(), "ana@x.com")
			assert.Error(t, err, "valid entries are not written either")
		})
	}
}

func TestSeedAccounts_TrimsEntries(t *testing.T) {
	repo := repository.NewAccountRepository(testdb.Open(t))

	seeded, _, err := seedAccounts(context.Background(), repo, auth.NewBcryptHasher(), []SeedAccountData{
		{Name: " Ana ", Email: " ana@x.com ", Password: "secret1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)

	account, err := repo.FindByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", account.Name)
}

func TestLoadSeedData(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"nombre":"Ana","email":"ana@x.com","password":"secret1"}]`), 0o600))
		t.Setenv("SEED_FILE", path)

		accounts, err := loadSeedData()
		require.NoError(t, err)
		assert.Equal(t, []SeedAccountData{{Name: "Ana", Email: "ana@x.com", Password: "secret1"}}, accounts)
	})

	t.Run("from env", func(t *testing.T) {
		t.Setenv("SEED_FILE", "")
		t.Setenv("SEED_NAME", "")
		t.Setenv("SEED_EMAIL", "admin@x.com")
		t.Setenv("SEED_PASSWORD", "secret1")

		accounts, err := loadSeedData()
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "admin@x.com", accounts[0].Name)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("SEED_FILE", "")
		t.Setenv("SEED_EMAIL", "")
		t.Setenv("SEED_PASSWORD", "")

		_, err := loadSeedData()
		assert.Error(t, err)
	})
}
