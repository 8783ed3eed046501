package store

import (
	"context"
	"time"

	"bankledger/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, password_hash, nickname, name, phone_number, is_active, is_staff, last_login, created_at`

func (s *UserStore) Create(ctx context.Context, tx Execer, user models.User) error {
	query := s.db.Rebind(`
		INSERT INTO users (id, email, password_hash, nickname, name, phone_number, is_active, is_staff)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := tx.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Nickname, user.Name, user.PhoneNumber, user.IsActive, user.IsStaff,
	)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	return row, err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), userID)
	return row, err
}

func (s *UserStore) Activate(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET is_active = ? WHERE id = ?`), true, userID)
	return err
}

func (s *UserStore) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`), at, userID)
	return err
}

// UpdateProfile writes the self-service fields. Flags are not touched.
func (s *UserStore) UpdateProfile(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users
		SET email = ?, password_hash = ?, nickname = ?, name = ?, phone_number = ?
		WHERE id = ?
	`), user.Email, user.PasswordHash, user.Nickname, user.Name, user.PhoneNumber, user.ID)
	return err
}

func (s *UserStore) Delete(ctx context.Context, tx Execer, userID string) (bool, error) {
	res, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}
