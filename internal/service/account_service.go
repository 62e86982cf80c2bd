package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bienesraices/internal/auth"
	"bienesraices/internal/cache"
	apperrors "bienesraices/internal/errors"
	"bienesraices/internal/model"
	"bienesraices/internal/repository"
)

const accountCacheTTL = 5 * time.Minute

// fallbackPassword is hashed once at construction for logins to unknown emails.
const fallbackPassword = "not-a-real-password"

// Notifier sends the emails of the account lifecycle.
type Notifier interface {
	SendConfirmation(ctx context.Context, account *model.Account) error
	SendRecovery(ctx context.Context, account *model.Account) error
}

// SessionIssuer issues session tokens for authenticated accounts.
type SessionIssuer interface {
	GenerateSessionToken(accountID uuid.UUID) (string, error)
}

// AccountService handles registration, confirmation, login and password resets.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*model.Account, error)
	Confirm(ctx context.Context, token string) (*model.Account, error)
	Authenticate(ctx context.Context, in LoginInput) (sessionToken string, account *model.Account, err error)
	RequestPasswordReset(ctx context.Context, in RecoverInput) (*model.Account, error)
	CheckResetToken(ctx context.Context, token string) error
	CompletePasswordReset(ctx context.Context, token string, in ResetInput) error
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

// Option customizes an account service.
type Option func(*accountService)

// WithTokenFunc replaces the pending token source.
func WithTokenFunc(fn auth.TokenFunc) Option {
	return func(s *accountService) {
		s.newToken = fn
	}
}

type accountService struct {
	repo     repository.AccountRepository
	hasher   auth.Hasher
	sessions SessionIssuer
	notifier Notifier
	cache    *cache.Client
	logger   *zap.Logger
	validate *validator.Validate
	newToken auth.TokenFunc

	// fallbackHash is compared against when no account matches a login, so
	// the response takes as long as a real password check.
	fallbackHash string
}

// NewAccountService creates a new account service. It fails when the hasher
// cannot produce the hash used for logins to unknown emails.
func NewAccountService(
	repo repository.AccountRepository,
	hasher auth.Hasher,
	sessions SessionIssuer,
	notifier Notifier,
	cache *cache.Client,
	logger *zap.Logger,
	opts ...Option,
) (AccountService, error) {
	fallback, err := hasher.Hash(fallbackPassword)
	if err != nil {
		return nil, fmt.Errorf("generate fallback hash: %w", err)
	}

	s := &accountService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
		validate: newValidator(),
		newToken: auth.NewToken,

		fallbackHash: fallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *accountService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("account:%s", id.String())
}

// Register validates the sign-up form, stores an unconfirmed account and
// emails its confirmation link. A taken email is reported as a conflict even
// when other fields are invalid.
func (s *accountService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	verr := validateInput(s.validate, in)
	var fieldErrs *apperrors.ValidationError
	if verr != nil && !errors.As(verr, &fieldErrs) {
		return nil, fmt.Errorf("validate registration: %w", verr)
	}

	if fieldErrs == nil || !fieldErrs.Has("email") {
		_, err := s.repo.FindByEmail(ctx, in.Email)
		if err == nil {
			return nil, apperrors.ErrAccountExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check account existence: %w", err)
		}
	}
	if fieldErrs != nil {
		return nil, fieldErrs
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	token := s.newToken()
	account := &model.Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Token:        &token,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.logger.Info("account registered", zap.String("account_id", account.ID.String()))

	if err := s.notifier.SendConfirmation(ctx, account); err != nil {
		return nil, fmt.Errorf("send confirmation: %w", err)
	}
	return account, nil
}

// Confirm marks the account holding token as confirmed and consumes the token.
func (s *accountService) Confirm(ctx context.Context, token string) (*model.Account, error) {
	var confirmed *model.Account
	err := s.consumeToken(ctx, token, func(account *model.Account) error {
		account.Confirmed = true
		confirmed = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account confirmed", zap.String("account_id", confirmed.ID.String()))
	return confirmed, nil
}

// Authenticate checks credentials and issues a session token. Unknown
// emails, wrong passwords and unconfirmed accounts fail identically.
func (s *accountService) Authenticate(ctx context.Context, in LoginInput) (string, *model.Account, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(s.validate, in); err != nil {
		return "", nil, err
	}

	account, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("find account: %w", err)
		}
		// Spend the same time as a real comparison.
		s.hasher.Verify(in.Password, s.fallbackHash)
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if !account.Confirmed {
		s.logger.Debug("login to unconfirmed account", zap.String("account_id", account.ID.String()))
		return "", nil, apperrors.ErrInvalidCredentials
	}

	sessionToken, err := s.sessions.GenerateSessionToken(account.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}
	return sessionToken, account, nil
}

// RequestPasswordReset assigns a fresh token to the account and emails the
// recovery link. Unconfirmed accounts keep their confirmation token, get the
// confirmation email again and ErrAccountNotConfirmed is returned.
func (s *accountService) RequestPasswordReset(ctx context.Context, in RecoverInput) (*model.Account, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	account, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !account.Confirmed {
		return nil, s.resendConfirmation(ctx, account)
	}

	token, err := s.newToken.Except(account.PendingToken())
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	account.Token = &token
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(account.ID))
	s.logger.Info("password reset requested", zap.String("account_id", account.ID.String()))

	if err := s.notifier.SendRecovery(ctx, account); err != nil {
		return nil, fmt.Errorf("send recovery: %w", err)
	}
	return account, nil
}

// resendConfirmation emails the confirmation link of an unconfirmed account
// again. It returns ErrAccountNotConfirmed once the email is out.
func (s *accountService) resendConfirmation(ctx context.Context, account *model.Account) error {
	if account.PendingToken() == "" {
		token := s.newToken()
		account.Token = &token
		if err := s.repo.Update(ctx, account); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
	}
	s.logger.Info("password reset refused for unconfirmed account", zap.String("account_id", account.ID.String()))

	if err := s.notifier.SendConfirmation(ctx, account); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return apperrors.ErrAccountNotConfirmed
}

// CheckResetToken reports whether token is held by a confirmed account.
// Confirmation tokens of unconfirmed accounts are not accepted.
func (s *accountService) CheckResetToken(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.ErrInvalidToken
	}
	account, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		return fmt.Errorf("find account by token: %w", err)
	}
	if !account.Confirmed {
		return apperrors.ErrInvalidToken
	}
	return nil
}

// CompletePasswordReset stores the new password of the confirmed account
// holding token and consumes the token.
func (s *accountService) CompletePasswordReset(ctx context.Context, token string, in ResetInput) error {
	if err := validateInput(s.validate, in); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	var accountID uuid.UUID
	err = s.consumeToken(ctx, token, func(account *model.Account) error {
		if !account.Confirmed {
			return apperrors.ErrInvalidToken
		}
		account.PasswordHash = hash
		accountID = account.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("password reset", zap.String("account_id", accountID.String()))
	return nil
}

// GetAccount retrieves an account by ID with caching. Cached copies carry
// neither the password hash nor the pending token.
func (s *accountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var cached model.Account
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(id), account, accountCacheTTL)
	return account, nil
}

// consumeToken locks the account holding token, applies mutate, clears the
// token and saves, all in one transaction.
func (s *accountService) consumeToken(ctx context.Context, token string, mutate func(*model.Account) error) error {
	if token == "" {
		return apperrors.ErrInvalidToken
	}

	var accountID uuid.UUID
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.AccountRepository) error {
		account, err := repo.FindByTokenForUpdate(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvalidToken
			}
			return fmt.Errorf("find account by token: %w", err)
		}

		if err := mutate(account); err != nil {
			return err
		}
		account.Token = nil
		if err := repo.Update(ctx, account); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		accountID = account.ID
		return nil
	})
	if err != nil {
		return err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(accountID))
	return nil
}
