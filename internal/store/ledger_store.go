package store

import (
	"context"

	"bankledger/internal/models"
)

// LedgerStore answers consistency questions over the transactions table.
type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const signedAmount = `CASE WHEN t.deposit_and_withdrawal_type = 'DEPOSIT' THEN t.transaction_amount ELSE -t.transaction_amount END`

// Consistency reports stored balance against the ledger sum for one user's
// accounts, or for every account when userID is empty.
func (s *LedgerStore) Consistency(ctx context.Context, userID string) ([]models.Consistency, error) {
	query := `
		SELECT a.id AS account_id,
		       a.account_number,
		       a.balance,
		       COALESCE(SUM(` + signedAmount + `), 0) AS ledger_sum
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
	`
	args := []any{}
	if userID != "" {
		query += ` WHERE a.user_id = ?`
		args = append(args, userID)
	}
	query += `
		GROUP BY a.id, a.account_number, a.balance
		ORDER BY a.id DESC
	`
	var rows []models.Consistency
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}
