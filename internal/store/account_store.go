package store

import (
	"context"

	"github.com/shopspring/decimal"

	"bankledger/internal/models"
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `id, user_id, account_number, bank_code, account_type, balance, created_at`

func (s *AccountStore) Create(ctx context.Context, tx Execer, account models.Account) error {
	query := s.db.Rebind(`
		INSERT INTO accounts (id, user_id, account_number, bank_code, account_type, balance)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := tx.ExecContext(ctx, query,
		account.ID, account.UserID, account.AccountNumber, account.BankCode, account.AccountType, account.Balance,
	)
	return err
}

// ListByUser returns the user's accounts, most recent first.
func (s *AccountStore) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	var rows []models.Account
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = ?
		ORDER BY id DESC
	`), userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AccountStore) GetForUser(ctx context.Context, accountID, userID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ? AND user_id = ?
	`), accountID, userID)
	return row, err
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ?
		FOR UPDATE
	`), accountID)
	return row, err
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(`
		UPDATE accounts
		SET balance = ?
		WHERE id = ?
	`), balance, accountID)
	return err
}

// DeleteForUser removes the account and, through the foreign key, its transactions.
func (s *AccountStore) DeleteForUser(ctx context.Context, tx Execer, accountID, userID string) (bool, error) {
	res, err := tx.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM accounts
		WHERE id = ? AND user_id = ?
	`), accountID, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}
