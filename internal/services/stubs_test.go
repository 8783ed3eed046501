package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bankledger/internal/mailer"
	"bankledger/internal/models"
	"bankledger/internal/store"
	"bankledger/internal/websocket"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubAccountStore struct {
	createFn        func(ctx context.Context, tx store.Execer, account models.Account) error
	listByUserFn    func(ctx context.Context, userID string) ([]models.Account, error)
	getForUserFn    func(ctx context.Context, accountID, userID string) (models.Account, error)
	getForUpdateFn  func(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	updateBalanceFn func(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error
	deleteFn        func(ctx context.Context, tx store.Execer, accountID, userID string) (bool, error)
}

func (s stubAccountStore) Create(ctx context.Context, tx store.Execer, account models.Account) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, account)
}

func (s stubAccountStore) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubAccountStore) GetForUser(ctx context.Context, accountID, userID string) (models.Account, error) {
	if s.getForUserFn == nil {
		return models.Account{}, sql.ErrNoRows
	}
	return s.getForUserFn(ctx, accountID, userID)
}

func (s stubAccountStore) GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (models.Account, error) {
	return s.getForUpdateFn(ctx, tx, accountID)
}

func (s stubAccountStore) UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance decimal.Decimal) error {
	if s.updateBalanceFn == nil {
		return nil
	}
	return s.updateBalanceFn(ctx, tx, accountID, balance)
}

func (s stubAccountStore) DeleteForUser(ctx context.Context, tx store.Execer, accountID, userID string) (bool, error) {
	if s.deleteFn == nil {
		return true, nil
	}
	return s.deleteFn(ctx, tx, accountID, userID)
}

type stubTransactionStore struct {
	createFn func(ctx context.Context, tx store.Execer, input models.Transaction) error
}

func (s stubTransactionStore) Create(ctx context.Context, tx store.Execer, input models.Transaction) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubTransactionStore) GetForUser(ctx context.Context, transactionID, userID string) (models.Transaction, error) {
	return models.Transaction{}, sql.ErrNoRows
}

func (s stubTransactionStore) GetForUserForUpdate(ctx context.Context, tx store.Getter, transactionID, userID string) (models.Transaction, error) {
	return models.Transaction{}, sql.ErrNoRows
}

func (s stubTransactionStore) Update(ctx context.Context, tx store.Execer, input models.Transaction) error {
	return nil
}

func (s stubTransactionStore) Delete(ctx context.Context, tx store.Execer, transactionID string) error {
	return nil
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	return nil, nil
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubLedgerStore struct {
	consistencyFn func(ctx context.Context, userID string) ([]models.Consistency, error)
}

func (s stubLedgerStore) Consistency(ctx context.Context, userID string) ([]models.Consistency, error) {
	return s.consistencyFn(ctx, userID)
}

type stubHub struct {
	mu      sync.Mutex
	updates []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
}

type stubUserStore struct {
	createFn          func(ctx context.Context, tx store.Execer, user models.User) error
	getByEmailFn      func(ctx context.Context, email string) (models.User, error)
	getByIDFn         func(ctx context.Context, userID string) (models.User, error)
	activateFn        func(ctx context.Context, userID string) error
	updateLastLoginFn func(ctx context.Context, userID string, at time.Time) error
	updateProfileFn   func(ctx context.Context, user models.User) error
	deleteFn          func(ctx context.Context, tx store.Execer, userID string) (bool, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, user models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) Activate(ctx context.Context, userID string) error {
	if s.activateFn == nil {
		return nil
	}
	return s.activateFn(ctx, userID)
}

func (s stubUserStore) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	if s.updateLastLoginFn == nil {
		return nil
	}
	return s.updateLastLoginFn(ctx, userID, at)
}

func (s stubUserStore) UpdateProfile(ctx context.Context, user models.User) error {
	if s.updateProfileFn == nil {
		return nil
	}
	return s.updateProfileFn(ctx, user)
}

func (s stubUserStore) Delete(ctx context.Context, tx store.Execer, userID string) (bool, error) {
	if s.deleteFn == nil {
		return true, nil
	}
	return s.deleteFn(ctx, tx, userID)
}

type stubTokenStore struct {
	blacklistFn     func(ctx context.Context, jti, userID string, expiresAt time.Time) error
	isBlacklistedFn func(ctx context.Context, jti string) (bool, error)
}

func (s stubTokenStore) Blacklist(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	if s.blacklistFn == nil {
		return nil
	}
	return s.blacklistFn(ctx, jti, userID, expiresAt)
}

func (s stubTokenStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if s.isBlacklistedFn == nil {
		return false, nil
	}
	return s.isBlacklistedFn(ctx, jti)
}

func (s stubTokenStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type stubAdminStore struct {
	listUsersFn func(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	setFlagsFn  func(ctx context.Context, tx store.Execer, userID string, flags store.UserFlags) (bool, error)
}

func (s stubAdminStore) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	if s.listUsersFn == nil {
		return nil, nil
	}
	return s.listUsersFn(ctx, search, limit, offset)
}

func (s stubAdminStore) SetUserFlags(ctx context.Context, tx store.Execer, userID string, flags store.UserFlags) (bool, error) {
	if s.setFlagsFn == nil {
		return true, nil
	}
	return s.setFlagsFn(ctx, tx, userID, flags)
}

type stubMailer struct {
	sendFn func(ctx context.Context, msg mailer.Message) error
}

func (s stubMailer) Send(ctx context.Context, msg mailer.Message) error {
	if s.sendFn == nil {
		return nil
	}
	return s.sendFn(ctx, msg)
}

// memoryLedger keeps accounts and transactions in memory so balance rules can be
// checked across a sequence of operations. It implements AccountStore and
// TransactionStore; a failed unit leaves no trace because writes are staged
// until the fake runner commits.
type memoryLedger struct {
	mu           sync.Mutex
	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	staged       []func()
}

func newMemoryLedger(accounts ...models.Account) *memoryLedger {
	m := &memoryLedger{
		accounts:     map[string]models.Account{},
		transactions: map[string]models.Transaction{},
	}
	for _, account := range accounts {
		m.accounts[account.ID] = account
	}
	return m
}

func (m *memoryLedger) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = nil
	if err := fn(nil); err != nil {
		m.staged = nil
		return err
	}
	for _, apply := range m.staged {
		apply()
	}
	m.staged = nil
	return nil
}

func (m *memoryLedger) Create(ctx context.Context, tx store.Execer, input models.Transaction) error {
	m.staged = append(m.staged, func() { m.transactions[input.ID] = input })
	return nil
}

func (m *memoryLedger) ownedBy(accountID, userID string) bool {
	account, ok := m.accounts[accountID]
	return ok && account.UserID == userID
}

func (m *memoryLedger) GetForUser(ctx context.Context, transactionID, userID string) (models.Transaction, error) {
	row, ok := m.transactions[transactionID]
	if !ok || !m.ownedBy(row.AccountID, userID) {
		return models.Transaction{}, sql.ErrNoRows
	}
	return row, nil
}

func (m *memoryLedger) GetForUserForUpdate(ctx context.Context, tx store.Getter, transactionID, userID string) (models.Transaction, error) {
	return m.GetForUser(ctx, transactionID, userID)
}

func (m *memoryLedger) Update(ctx context.Context, tx store.Execer, input models.Transaction) error {
	m.staged = append(m.staged, func() { m.transactions[input.ID] = input })
	return nil
}

func (m *memoryLedger) Delete(ctx context.Context, tx store.Execer, transactionID string) error {
	m.staged = append(m.staged, func() { delete(m.transactions, transactionID) })
	return nil
}

func (m *memoryLedger) ListByUser(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	rows := []models.Transaction{}
	for _, row := range m.transactions {
		if m.ownedBy(row.AccountID, userID) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	return rows, nil
}

func (m *memoryLedger) getForUpdate(accountID string) (models.Account, error) {
	account, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (m *memoryLedger) updateBalance(accountID string, balance decimal.Decimal) {
	m.staged = append(m.staged, func() {
		account := m.accounts[accountID]
		account.Balance = balance
		m.accounts[accountID] = account
	})
}

func (m *memoryLedger) balance(accountID string) decimal.Decimal {
	return m.accounts[accountID].Balance
}

func (m *memoryLedger) ledgerSum(accountID string) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range m.transactions {
		if row.AccountID == accountID {
			sum = sum.Add(row.Effect())
		}
	}
	return sum
}

// accountStore adapts the ledger to the AccountStore interface.
func (m *memoryLedger) accountStore() AccountStore {
	return stubAccountStore{
		getForUpdateFn: func(_ context.Context, _ store.Getter, accountID string) (models.Account, error) {
			return m.getForUpdate(accountID)
		},
		updateBalanceFn: func(_ context.Context, _ store.Execer, accountID string, balance decimal.Decimal) error {
			m.updateBalance(accountID, balance)
			return nil
		},
	}
}
