package store

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankledger/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `t.id, t.account_id, t.transaction_amount, t.amount_after_transaction, t.account_factor_history,
		       t.deposit_and_withdrawal_type, t.transaction_type, t.transaction_timestamp`

// OrderColumns lists the fields a caller may sort transactions by.
var OrderColumns = map[string]string{
	"transaction_amount":    "t.transaction_amount",
	"transaction_timestamp": "t.transaction_timestamp",
}

type TransactionFilter struct {
	AccountID string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Method    string
	Direction string
	After     *time.Time
	Before    *time.Time
	Search    []string
	// Ordering holds OrderColumns keys, each optionally prefixed with "-".
	Ordering []string
	Limit    int
	Offset   int
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input models.Transaction) error {
	query := s.db.Rebind(`
		INSERT INTO transactions (id, account_id, transaction_amount, amount_after_transaction, account_factor_history,
		                          deposit_and_withdrawal_type, transaction_type, transaction_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.AccountID, input.Amount, input.AmountAfter, input.History,
		input.Direction, input.Method, input.Timestamp,
	)
	return err
}

func (s *TransactionStore) GetForUser(ctx context.Context, transactionID, userID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.id = ? AND a.user_id = ?
	`), transactionID, userID)
	return row, err
}

func (s *TransactionStore) GetForUserForUpdate(ctx context.Context, tx Getter, transactionID, userID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, s.db.Rebind(`
		SELECT `+transactionColumns+`
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.id = ? AND a.user_id = ?
		FOR UPDATE
	`), transactionID, userID)
	return row, err
}

// Update rewrites the mutable fields. The timestamp and account are never changed.
func (s *TransactionStore) Update(ctx context.Context, tx Execer, input models.Transaction) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(`
		UPDATE transactions
		SET transaction_amount = ?, amount_after_transaction = ?, account_factor_history = ?,
		    deposit_and_withdrawal_type = ?, transaction_type = ?
		WHERE id = ?
	`), input.Amount, input.AmountAfter, input.History, input.Direction, input.Method, input.ID)
	return err
}

func (s *TransactionStore) Delete(ctx context.Context, tx Execer, transactionID string) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(`DELETE FROM transactions WHERE id = ?`), transactionID)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = ?`
	args := []any{userID}
	if filter.AccountID != "" {
		query += " AND t.account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.MinAmount != nil {
		query += " AND t.transaction_amount >= ?"
		args = append(args, *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query += " AND t.transaction_amount <= ?"
		args = append(args, *filter.MaxAmount)
	}
	if filter.Method != "" {
		query += " AND t.transaction_type = ?"
		args = append(args, filter.Method)
	}
	if filter.Direction != "" {
		query += " AND t.deposit_and_withdrawal_type = ?"
		args = append(args, filter.Direction)
	}
	if filter.After != nil {
		query += " AND t.transaction_timestamp >= ?"
		args = append(args, *filter.After)
	}
	if filter.Before != nil {
		query += " AND t.transaction_timestamp <= ?"
		args = append(args, *filter.Before)
	}
	for _, term := range filter.Search {
		pattern := containsPattern(term)
		query += " AND (LOWER(t.transaction_type) LIKE ? OR LOWER(t.deposit_and_withdrawal_type) LIKE ?)"
		args = append(args, pattern, pattern)
	}
	query += " ORDER BY " + orderClause(filter.Ordering)
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	var rows []models.Transaction
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func orderClause(ordering []string) string {
	parts := make([]string, 0, len(ordering)+1)
	for _, field := range ordering {
		direction := "ASC"
		if strings.HasPrefix(field, "-") {
			direction = "DESC"
			field = field[1:]
		}
		column, ok := OrderColumns[field]
		if !ok {
			continue
		}
		parts = append(parts, column+" "+direction)
	}
	if len(parts) == 0 {
		parts = append(parts, "t.transaction_timestamp DESC")
	}
	return strings.Join(append(parts, "t.id DESC"), ", ")
}
