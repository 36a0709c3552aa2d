package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/realestate-platform/property-service/internal/config"
)

var ErrInvalidJWTConfig = errors.New("invalid jwt configuration")

// TokenManager issues and validates the HS256 bearer tokens that carry an
// owner id in the subject claim.
type TokenManager struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenManager validates the settings once at construction; a service
// misconfigured here must not start.
func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: key must not be empty", ErrInvalidJWTConfig)
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("%w: issuer must not be empty", ErrInvalidJWTConfig)
	}
	if cfg.Audience == "" {
		return nil, fmt.Errorf("%w: audience must not be empty", ErrInvalidJWTConfig)
	}
	if cfg.ExpiresMinutes <= 0 {
		return nil, fmt.Errorf("%w: expires_minutes must be greater than zero", ErrInvalidJWTConfig)
	}

	return &TokenManager{
		key:      []byte(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      time.Duration(cfg.ExpiresMinutes) * time.Minute,
	}, nil
}

// Generate creates a signed token for the given owner id.
func (m *TokenManager) Generate(ownerID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   ownerID,
		Issuer:    m.issuer,
		Audience:  jwt.ClaimStrings{m.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})

	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token string and returns the owner id from its subject
// claim.
func (m *TokenManager) Parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.key, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(m.audience))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("token is invalid")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject claim")
	}
	return claims.Subject, nil
}
