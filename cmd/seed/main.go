package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bienesraices/internal/auth"
	"bienesraices/internal/config"
	"bienesraices/internal/db"
	"bienesraices/internal/logging"
	"bienesraices/internal/model"
	"bienesraices/internal/repository"
	"bienesraices/internal/service"
)

// SeedAccountData is one account to load. Seeded accounts are confirmed.
type SeedAccountData struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	accounts, err := loadSeedData()
	if err != nil {
		log.Fatal("load seed data", zap.Error(err))
	}

	gormDB, err := db.Open(db.Config{
		Driver: cfg.DB.Driver,
		DSN:    cfg.DB.MySQLDSN(),
		Path:   cfg.DB.Path,
	})
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}

	repo := repository.NewAccountRepository(gormDB)
	seeded, updated, err := seedAccounts(context.Background(), repo, auth.NewBcryptHasher(), accounts)
	if err != nil {
		log.Fatal("seed accounts", zap.Error(err))
	}

	log.Info("seed completed",
		zap.Int("created", seeded),
		zap.Int("updated", updated),
	)
}

// loadSeedData reads a JSON array from SEED_FILE, or a single account from
// SEED_NAME, SEED_EMAIL and SEED_PASSWORD.
func loadSeedData() ([]SeedAccountData, error) {
	if path := os.Getenv("SEED_FILE"); path != "" {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var accounts []SeedAccountData
		if err := json.Unmarshal(body, &accounts); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return accounts, nil
	}

	account := SeedAccountData{
		Name:     os.Getenv("SEED_NAME"),
		Email:    os.Getenv("SEED_EMAIL"),
		Password: os.Getenv("SEED_PASSWORD"),
	}
	if account.Email == "" || account.Password == "" {
		return nil, errors.New("set SEED_FILE or SEED_EMAIL and SEED_PASSWORD")
	}
	if account.Name == "" {
		account.Name = account.Email
	}
	return []SeedAccountData{account}, nil
}

// validateSeedData applies the sign-up rules to every entry and trims them.
// Nothing is written when any entry fails.
func validateSeedData(accounts []SeedAccountData) error {
	for i := range accounts {
		item := &accounts[i]
		item.Name = strings.TrimSpace(item.Name)
		item.Email = strings.TrimSpace(item.Email)

		err := service.ValidateRegistration(service.RegisterInput{
			Name:                 item.Name,
			Email:                item.Email,
			Password:             item.Password,
			PasswordConfirmation: item.Password,
		})
		if err != nil {
			return fmt.Errorf("seed entry %d (%s): %w", i, item.Email, err)
		}
	}
	return nil
}

// seedAccounts creates missing accounts and resets existing ones to the
// seeded name and password.
func seedAccounts(ctx context.Context, repo repository.AccountRepository, hasher auth.Hasher, accounts []SeedAccountData) (seeded int, updated int, err error) {
	if err := validateSeedData(accounts); err != nil {
		return 0, 0, err
	}

	for _, item := range accounts {
		hash, err := hasher.Hash(item.Password)
		if err != nil {
			return seeded, updated, fmt.Errorf("hash password for %s: %w", item.Email, err)
		}

		existing, err := repo.FindByEmail(ctx, item.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return seeded, updated, fmt.Errorf("check account %s: %w", item.Email, err)
		}

		if existing != nil {
			existing.Name = item.Name
			existing.PasswordHash = hash
			existing.Confirmed = true
			existing.Token = nil
			if err := repo.Update(ctx, existing); err != nil {
				return seeded, updated, fmt.Errorf("update account %s: %w", item.Email, err)
			}
			updated++
			continue
		}

		account := &model.Account{
			Name:         item.Name,
			Email:        item.Email,
			PasswordHash: hash,
			Confirmed:    true,
		}
		if err := repo.Create(ctx, account); err != nil {
			return seeded, updated, fmt.Errorf("create account %s: %w", item.Email, err)
		}
		seeded++
	}

	return seeded, updated, nil
}
