package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionDeposit    = "DEPOSIT"
	DirectionWithdrawal = "WITHDRAWAL"
)

const (
	MethodTransfer     = "TRANSFER"
	MethodATM          = "ATM"
	MethodAutoTransfer = "AUTO_TRANSFER"
	MethodCard         = "CARD"
	MethodCash         = "CASH"
)

const (
	AccountChecking           = "CHECKING"
	AccountSavings            = "SAVINGS"
	AccountInstallmentSavings = "INSTALLMENT_SAVINGS"
	AccountTimeDeposit        = "TIME_DEPOSIT"
	AccountForeignCurrency    = "FOREIGN_CURRENCY"
)

// BankCodes maps the supported clearing codes to display names.
var BankCodes = map[string]string{
	"002": "KDB",
	"003": "IBK",
	"004": "KB Kookmin",
	"011": "NH",
	"020": "Woori",
	"023": "SC First",
	"027": "Citi",
	"031": "iM Bank",
	"032": "Busan",
	"045": "Saemaul",
	"048": "Shinhyup",
	"071": "Post Office",
	"081": "Hana",
	"088": "Shinhan",
	"089": "K Bank",
	"090": "Kakao Bank",
	"092": "Toss Bank",
}

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Nickname     string     `db:"nickname" json:"nickname"`
	Name         string     `db:"name" json:"name"`
	PhoneNumber  *string    `db:"phone_number" json:"phone_number,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	IsStaff      bool       `db:"is_staff" json:"is_staff"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

type Account struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	AccountNumber string          `db:"account_number" json:"account_number"`
	BankCode      string          `db:"bank_code" json:"bank_code"`
	AccountType   string          `db:"account_type" json:"account_type"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID          string          `db:"id" json:"id"`
	AccountID   string          `db:"account_id" json:"account_id"`
	Amount      decimal.Decimal `db:"transaction_amount" json:"transaction_amount"`
	AmountAfter decimal.Decimal `db:"amount_after_transaction" json:"amount_after_transaction"`
	History     string          `db:"account_factor_history" json:"account_factor_history"`
	Direction   string          `db:"deposit_and_withdrawal_type" json:"deposit_and_withdrawal_type"`
	Method      string          `db:"transaction_type" json:"transaction_type"`
	Timestamp   time.Time       `db:"transaction_timestamp" json:"transaction_timestamp"`
}

// Effect is the signed change the transaction applies to its account balance.
func (t Transaction) Effect() decimal.Decimal {
	return Effect(t.Direction, t.Amount)
}

func Effect(direction string, amount decimal.Decimal) decimal.Decimal {
	if direction == DirectionDeposit {
		return amount
	}
	return amount.Neg()
}

type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	ActorUserID *string   `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	EntityID    *string   `db:"entity_id" json:"entity_id,omitempty"`
	Data        string    `db:"data" json:"data"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Consistency compares a stored balance with the sum of its transactions' effects.
type Consistency struct {
	AccountID     string          `db:"account_id" json:"account_id"`
	AccountNumber string          `db:"account_number" json:"account_number"`
	Balance       decimal.Decimal `db:"balance" json:"balance"`
	LedgerSum     decimal.Decimal `db:"ledger_sum" json:"ledger_sum"`
}

func (c Consistency) Difference() decimal.Decimal {
	return c.Balance.Sub(c.LedgerSum)
}

func ValidDirection(value string) bool {
	return value == DirectionDeposit || value == DirectionWithdrawal
}

func ValidMethod(value string) bool {
	switch value {
	case MethodTransfer, MethodATM, MethodAutoTransfer, MethodCard, MethodCash:
		return true
	}
	return false
}

func ValidAccountType(value string) bool {
	switch value {
	case AccountChecking, AccountSavings, AccountInstallmentSavings, AccountTimeDeposit, AccountForeignCurrency:
		return true
	}
	return false
}

func ValidBankCode(value string) bool {
	_, ok := BankCodes[value]
	return ok
}
