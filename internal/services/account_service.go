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
	"bankledger/internal/validator"
)

const openingBalanceNote = "opening balance"

type AccountService struct {
	txRunner     db.TxRunner
	accountStore AccountStore
	txStore      TransactionStore
	ledgerStore  LedgerStore
	auditStore   AuditStore
}

type LedgerStore interface {
	Consistency(ctx context.Context, userID string) ([]models.Consistency, error)
}

func NewAccountService(txRunner db.TxRunner, accountStore AccountStore, txStore TransactionStore, ledgerStore LedgerStore, auditStore AuditStore) *AccountService {
	return &AccountService{
		txRunner:     txRunner,
		accountStore: accountStore,
		txStore:      txStore,
		ledgerStore:  ledgerStore,
		auditStore:   auditStore,
	}
}

type CreateAccountInput struct {
	AccountNumber  string
	BankCode       string
	AccountType    string
	OpeningBalance decimal.Decimal
}

// Create always assigns the account to userID. A positive opening balance is
// booked as a deposit so the balance matches the sum of its transactions.
func (s *AccountService) Create(ctx context.Context, userID string, in CreateAccountInput) (models.Account, error) {
	if err := validator.ValidateAccountNumber(in.AccountNumber); err != nil {
		return models.Account{}, validationError(err)
	}
	if !models.ValidBankCode(in.BankCode) {
		return models.Account{}, validationError(errors.New("unknown bank_code"))
	}
	if !models.ValidAccountType(in.AccountType) {
		return models.Account{}, validationError(errors.New("account_type must be one of CHECKING, SAVINGS, INSTALLMENT_SAVINGS, TIME_DEPOSIT, FOREIGN_CURRENCY"))
	}
	if in.OpeningBalance.IsNegative() || !money.Fits(in.OpeningBalance) {
		return models.Account{}, ErrInvalidAmount
	}
	id, err := uuid.NewV7()
	if err != nil {
		return models.Account{}, err
	}
	account := models.Account{
		ID:            id.String(),
		UserID:        userID,
		AccountNumber: in.AccountNumber,
		BankCode:      in.BankCode,
		AccountType:   in.AccountType,
		Balance:       in.OpeningBalance,
		CreatedAt:     time.Now().UTC(),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.accountStore.Create(ctx, tx, account); err != nil {
			if db.IsUniqueViolation(err) {
				return ErrAccountNumberTaken
			}
			return err
		}
		if account.Balance.IsPositive() {
			txID, err := uuid.NewV7()
			if err != nil {
				return err
			}
			opening := models.Transaction{
				ID:          txID.String(),
				AccountID:   account.ID,
				Amount:      account.Balance,
				AmountAfter: account.Balance,
				History:     openingBalanceNote,
				Direction:   models.DirectionDeposit,
				Method:      models.MethodTransfer,
				Timestamp:   account.CreatedAt.Truncate(time.Microsecond),
			}
			if err := s.txStore.Create(ctx, tx, opening); err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]string{
			"account_number": account.AccountNumber,
			"bank_code":      account.BankCode,
			"balance":        money.Format(account.Balance),
		})
		return s.auditStore.Log(ctx, tx, userID, "account.create", "account", account.ID, string(data))
	})
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	return s.accountStore.ListByUser(ctx, userID)
}

func (s *AccountService) Get(ctx context.Context, userID, accountID string) (models.Account, error) {
	account, err := s.accountStore.GetForUser(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

func (s *AccountService) Delete(ctx context.Context, userID, accountID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		deleted, err := s.accountStore.DeleteForUser(ctx, tx, accountID, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}
		return s.auditStore.Log(ctx, tx, userID, "account.delete", "account", accountID, "{}")
	})
}

func (s *AccountService) SelfCheck(ctx context.Context, userID string) ([]models.Consistency, error) {
	return s.ledgerStore.Consistency(ctx, userID)
}

// Reconcile reports every account, or only the ones whose stored balance
// differs from their ledger when mismatchedOnly is set.
func (s *AccountService) Reconcile(ctx context.Context, mismatchedOnly bool) ([]models.Consistency, error) {
	rows, err := s.ledgerStore.Consistency(ctx, "")
	if err != nil || !mismatchedOnly {
		return rows, err
	}
	mismatched := make([]models.Consistency, 0)
	for _, row := range rows {
		if !row.Difference().IsZero() {
			mismatched = append(mismatched, row)
		}
	}
	return mismatched, nil
}
