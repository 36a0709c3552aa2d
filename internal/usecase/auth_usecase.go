package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/auth"
	"github.com/realestate-platform/property-service/internal/entity"
	"github.com/realestate-platform/property-service/internal/port/repository"
)

// ErrInvalidCredentials is deliberately undifferentiated: a login failure
// never reveals whether the email was registered.
var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
)

type TokenIssuer interface {
	Generate(ownerID string) (string, error)
}

type EmailSender interface {
	SendEmail(to []string, subject, body string) error
}

type AuthUsecase struct {
	ownerRepo repository.OwnerRepository
	tokens    TokenIssuer
	mailer    EmailSender
	logger    *zap.Logger
}

func NewAuthUsecase(or repository.OwnerRepository, tokens TokenIssuer, mailer EmailSender, logger *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		ownerRepo: or,
		tokens:    tokens,
		mailer:    mailer,
		logger:    logger,
	}
}

func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (string, error) {
	owner, err := uc.ownerRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		uc.logger.Error("Failed to get owner by email", zap.Error(err))
		return "", fmt.Errorf("AuthUsecase.Login: failed to get owner by email: %w", err)
	}

	if !auth.VerifyPassword(password, owner.PasswordHash, owner.PasswordSalt) {
		uc.logger.Warn("Login attempt with wrong password", zap.String("owner_id", owner.ID))
		return "", ErrInvalidCredentials
	}

	token, err := uc.tokens.Generate(owner.ID)
	if err != nil {
		uc.logger.Error("Failed to generate token", zap.Error(err), zap.String("owner_id", owner.ID))
		return "", fmt.Errorf("AuthUsecase.Login: failed to generate token: %w", err)
	}

	return token, nil
}

type RegisterInput struct {
	Name     string
	Address  string
	Email    string
	Password string
}

func (uc *AuthUsecase) Register(ctx context.Context, input RegisterInput) (string, error) {
	hash, salt, err := auth.HashPassword(input.Password)
	if err != nil {
		uc.logger.Error("Failed to hash password", zap.Error(err))
		return "", fmt.Errorf("AuthUsecase.Register: failed to hash password: %w", err)
	}

	owner := &entity.Owner{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Address:      input.Address,
		Email:        input.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
	}

	if err := uc.ownerRepo.Create(ctx, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", ErrEmailAlreadyRegistered
		}
		uc.logger.Error("Failed to create owner in repository", zap.Error(err))
		return "", fmt.Errorf("AuthUsecase.Register: failed to create owner in repo: %w", err)
	}

	if uc.mailer != nil {
		if mailErr := uc.mailer.SendEmail([]string{input.Email}, "Welcome to the property catalog",
			"Your account has been created. You can now list your properties."); mailErr != nil {
			uc.logger.Warn("Failed to send welcome email", zap.Error(mailErr), zap.String("owner_id", owner.ID))
		}
	}

	uc.logger.Info("Owner registered", zap.String("owner_id", owner.ID))
	return owner.ID, nil
}
