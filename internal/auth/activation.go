package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const activationPurpose = "activation"

var (
	ErrInvalidUID             = errors.New("invalid uid")
	ErrInvalidActivationToken = errors.New("invalid activation token")
)

type activationClaims struct {
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// EncodeUID makes a user id safe for a single URL path segment.
func EncodeUID(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func DecodeUID(uid string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidUID
	}
	return string(raw), nil
}

// GenerateActivationToken binds the token to the user's current password hash
// and last login, so a password change or the first login invalidates links
// already sent.
func GenerateActivationToken(secret, userID, passwordHash string, lastLogin *time.Time, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := activationClaims{
		Purpose:     activationPurpose,
		Fingerprint: fingerprint(passwordHash, lastLogin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func VerifyActivationToken(secret, token, userID, passwordHash string, lastLogin *time.Time) error {
	claims := &activationClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return ErrInvalidActivationToken
	}
	if claims.Purpose != activationPurpose || claims.Subject != userID {
		return ErrInvalidActivationToken
	}
	if subtle.ConstantTimeCompare([]byte(claims.Fingerprint), []byte(fingerprint(passwordHash, lastLogin))) != 1 {
		return ErrInvalidActivationToken
	}
	return nil
}

// fingerprint uses whole seconds of lastLogin so database rounding does not
// change it.
func fingerprint(passwordHash string, lastLogin *time.Time) string {
	login := ""
	if lastLogin != nil {
		login = strconv.FormatInt(lastLogin.Unix(), 10)
	}
	sum := sha256.Sum256([]byte(passwordHash + "|" + login))
	return hex.EncodeToString(sum[:16])
}
