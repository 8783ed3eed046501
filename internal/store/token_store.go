package store

import (
	"context"
	"time"

	"bankledger/internal/db"
)

// TokenStore holds revoked refresh token ids until they would have expired anyway.
type TokenStore struct {
	db DB
}

func NewTokenStore(db DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) Blacklist(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO token_blacklist (jti, user_id, expires_at)
		VALUES (?, ?, ?)
	`), jti, userID, expiresAt.UTC())
	if err != nil && db.IsUniqueViolation(err) {
		return nil
	}
	return err
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(1) FROM token_blacklist WHERE jti = ?`), jti)
	return count > 0, err
}

func (s *TokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM token_blacklist WHERE expires_at < ?`), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
