package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bankledger/internal/models"
)

type AdminStore struct {
	db DB
}

func NewAdminStore(db DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) IsStaff(ctx context.Context, userID string) (bool, error) {
	var isStaff bool
	err := s.db.GetContext(ctx, &isStaff, s.db.Rebind(`
		SELECT is_staff
		FROM users
		WHERE id = ? AND is_active = ?
	`), userID, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return isStaff, nil
}

// IsActive reports false for a missing user.
func (s *AdminStore) IsActive(ctx context.Context, userID string) (bool, error) {
	var isActive bool
	err := s.db.GetContext(ctx, &isActive, s.db.Rebind(`SELECT is_active FROM users WHERE id = ?`), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return isActive, nil
}

// ListUsers matches search against email, nickname and name, ordered by email.
func (s *AdminStore) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if term := strings.TrimSpace(search); term != "" {
		pattern := containsPattern(term)
		query += ` WHERE (LOWER(email) LIKE ? OR LOWER(nickname) LIKE ? OR LOWER(name) LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY email LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	var rows []models.User
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

type UserFlags struct {
	IsActive *bool
	IsStaff  *bool
}

func (s *AdminStore) SetUserFlags(ctx context.Context, tx Execer, userID string, flags UserFlags) (bool, error) {
	sets := []string{}
	args := []any{}
	if flags.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *flags.IsActive)
	}
	if flags.IsStaff != nil {
		sets = append(sets, "is_staff = ?")
		args = append(args, *flags.IsStaff)
	}
	if len(sets) == 0 {
		return false, nil
	}
	args = append(args, userID)
	res, err := tx.ExecContext(ctx, s.db.Rebind(`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}
