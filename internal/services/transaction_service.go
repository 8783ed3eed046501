package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bankledger/internal/db"
	"bankledger/internal/models"
	"bankledger/internal/money"
	"bankledger/internal/store"
	"bankledger/internal/validator"
	"bankledger/internal/websocket"
)

type TransactionService struct {
	txRunner     db.TxRunner
	accountStore AccountStore
	txStore      TransactionStore
	auditStore   AuditStore
	hub          BalanceHub
}

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, account models.Account) error
	ListByUser(ctx context.Context, userID string) ([]models.Account, error)
	GetForUser(ctx context.Context, accountID, userID string) (models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error
	DeleteForUser(ctx context.Context, tx store.Execer, accountID, userID string) (bool, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input models.Transaction) error
	GetForUser(ctx context.Context, transactionID, userID string) (models.Transaction, error)
	GetForUserForUpdate(ctx context.Context, tx store.Getter, transactionID, userID string) (models.Transaction, error)
	Update(ctx context.Context, tx store.Execer, input models.Transaction) error
	Delete(ctx context.Context, tx store.Execer, transactionID string) error
	ListByUser(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

func NewTransactionService(txRunner db.TxRunner, accountStore AccountStore, txStore TransactionStore, auditStore AuditStore, hub BalanceHub) *TransactionService {
	return &TransactionService{
		txRunner:     txRunner,
		accountStore: accountStore,
		txStore:      txStore,
		auditStore:   auditStore,
		hub:          hub,
	}
}

type CreateTransactionInput struct {
	AccountID string
	Amount    decimal.Decimal
	Direction string
	Method    string
	History   string
}

// UpdateTransactionInput carries the fields to change; nil leaves a field as is.
type UpdateTransactionInput struct {
	AccountID *string
	Amount    *decimal.Decimal
	Direction *string
	Method    *string
	History   *string
}

func (s *TransactionService) Create(ctx context.Context, userID string, in CreateTransactionInput) (models.Transaction, error) {
	if in.AccountID == "" {
		return models.Transaction{}, requiredField("account")
	}
	if err := validateTransactionFields(in.Amount, in.Direction, in.Method, in.History); err != nil {
		return models.Transaction{}, err
	}
	var created models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accountStore.GetForUpdate(ctx, tx, in.AccountID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAccountNotFound
			}
			return err
		}
		if account.UserID != userID {
			return ErrUnauthorizedAccount
		}
		newBalance, err := applyDelta(account.Balance, models.Effect(in.Direction, in.Amount))
		if err != nil {
			return err
		}
		if err := s.accountStore.UpdateBalance(ctx, tx, account.ID, newBalance); err != nil {
			return err
		}
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		created = models.Transaction{
			ID:          id.String(),
			AccountID:   account.ID,
			Amount:      in.Amount,
			AmountAfter: newBalance,
			History:     in.History,
			Direction:   in.Direction,
			Method:      in.Method,
			Timestamp:   time.Now().UTC().Truncate(time.Microsecond),
		}
		if err := s.txStore.Create(ctx, tx, created); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "transaction.create", created)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.broadcast(userID, "transaction.create", created.AccountID, created.ID, created.AmountAfter)
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, transactionID string, in UpdateTransactionInput) (models.Transaction, error) {
	var updated models.Transaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.txStore.GetForUserForUpdate(ctx, tx, transactionID, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTransactionNotFound
			}
			return err
		}
		if in.AccountID != nil && *in.AccountID != current.AccountID {
			return ErrAccountReassignment
		}
		updated = current
		if in.Amount != nil {
			updated.Amount = *in.Amount
		}
		if in.Direction != nil {
			updated.Direction = *in.Direction
		}
		if in.Method != nil {
			updated.Method = *in.Method
		}
		if in.History != nil {
			updated.History = *in.History
		}
		if err := validateTransactionFields(updated.Amount, updated.Direction, updated.Method, updated.History); err != nil {
			return err
		}
		account, err := s.accountStore.GetForUpdate(ctx, tx, current.AccountID)
		if err != nil {
			return err
		}
		newBalance, err := applyDelta(account.Balance, updated.Effect().Sub(current.Effect()))
		if err != nil {
			return err
		}
		if err := s.accountStore.UpdateBalance(ctx, tx, account.ID, newBalance); err != nil {
			return err
		}
		updated.AmountAfter = newBalance
		if err := s.txStore.Update(ctx, tx, updated); err != nil {
			return err
		}
		return s.audit(ctx, tx, userID, "transaction.update", updated)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.broadcast(userID, "transaction.update", updated.AccountID, updated.ID, updated.AmountAfter)
	return updated, nil
}

// Delete reverses the transaction's effect before removing it.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID string) error {
	var removed models.Transaction
	var balance decimal.Decimal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.txStore.GetForUserForUpdate(ctx, tx, transactionID, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTransactionNotFound
			}
			return err
		}
		account, err := s.accountStore.GetForUpdate(ctx, tx, current.AccountID)
		if err != nil {
			return err
		}
		balance, err = applyDelta(account.Balance, current.Effect().Neg())
		if err != nil {
			return err
		}
		if err := s.accountStore.UpdateBalance(ctx, tx, account.ID, balance); err != nil {
			return err
		}
		if err := s.txStore.Delete(ctx, tx, current.ID); err != nil {
			return err
		}
		removed = current
		return s.audit(ctx, tx, userID, "transaction.delete", current)
	})
	if err != nil {
		return err
	}
	s.broadcast(userID, "transaction.delete", removed.AccountID, removed.ID, balance)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	row, err := s.txStore.GetForUser(ctx, transactionID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, ErrTransactionNotFound
		}
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	return s.txStore.ListByUser(ctx, userID, filter)
}

func (s *TransactionService) audit(ctx context.Context, tx store.Execer, userID, action string, t models.Transaction) error {
	data, _ := json.Marshal(map[string]string{
		"account_id":                  t.AccountID,
		"transaction_amount":          money.Format(t.Amount),
		"amount_after_transaction":    money.Format(t.AmountAfter),
		"deposit_and_withdrawal_type": t.Direction,
		"transaction_type":            t.Method,
	})
	return s.auditStore.Log(ctx, tx, userID, action, "transaction", t.ID, string(data))
}

func (s *TransactionService) broadcast(userID, event, accountID, transactionID string, balance decimal.Decimal) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		Event:         event,
		AccountID:     accountID,
		TransactionID: transactionID,
		Balance:       money.Format(balance),
	})
}

// applyDelta returns balance+delta, refusing any result below zero or beyond NUMERIC(18,2).
func applyDelta(balance, delta decimal.Decimal) (decimal.Decimal, error) {
	next := balance.Add(delta)
	if delta.IsNegative() && next.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}
	if !money.Fits(next) {
		return decimal.Zero, ErrInvalidAmount
	}
	return next, nil
}

func validateTransactionFields(amount decimal.Decimal, direction, method, history string) error {
	if !amount.IsPositive() || !money.Fits(amount) {
		return ErrInvalidAmount
	}
	if !models.ValidDirection(direction) {
		return validationError(errors.New("deposit_and_withdrawal_type must be DEPOSIT or WITHDRAWAL"))
	}
	if !models.ValidMethod(method) {
		return validationError(errors.New("transaction_type must be one of TRANSFER, ATM, AUTO_TRANSFER, CARD, CASH"))
	}
	if err := validator.ValidateHistory(history); err != nil {
		return validationError(err)
	}
	return nil
}
