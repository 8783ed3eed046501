package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token together with the identifiers needed to revoke it.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// GenerateToken issues an access token.
func GenerateToken(secret, userID string, ttl time.Duration) (string, error) {
	issued, err := issue(secret, userID, TokenAccess, ttl)
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

func GenerateRefreshToken(secret, userID string, ttl time.Duration) (IssuedToken, error) {
	return issue(secret, userID, TokenRefresh, ttl)
}

// ParseToken verifies the signature and expiry of an access token.
func ParseToken(secret, token string) (*Claims, error) {
	return parseTyped(secret, token, TokenAccess)
}

func ParseRefreshToken(secret, token string) (*Claims, error) {
	return parseTyped(secret, token, TokenRefresh)
}

func issue(secret, userID, tokenType string, ttl time.Duration) (IssuedToken, error) {
	now := time.Now()
	jti, err := uuid.NewRandom()
	if err != nil {
		return IssuedToken{}, err
	}
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: signed, ID: jti.String(), ExpiresAt: expiresAt}, nil
}

func parseTyped(secret, token, tokenType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
