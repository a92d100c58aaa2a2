// Package auth verifies bearer tokens issued by the external auth
// service. This service never issues or refreshes tokens; it only
// extracts the authenticated user identity from them.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/config"
)

// Common authentication errors
var (
	// ErrInvalidToken indicates the token failed signature or claims validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the validated identity carried by a bearer token.
type Claims struct {
	UserID uuid.UUID
}

// JWTService validates bearer tokens.
type JWTService interface {
	// ValidateToken verifies the token signature and standard claims and
	// returns the authenticated user's identity.
	// Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// hmacJWTService validates HS256 tokens with a shared secret.
type hmacJWTService struct {
	secret []byte
}

// NewJWTService creates a JWTService from the auth configuration.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes")
	}
	return &hmacJWTService{secret: []byte(cfg.JWTSecret)}, nil
}

// ValidateToken implements JWTService.ValidateToken.
func (s *hmacJWTService) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user ID", ErrInvalidToken)
	}

	return &Claims{UserID: userID}, nil
}
