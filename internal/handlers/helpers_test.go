package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bankledger/internal/auth"
	"bankledger/internal/config"
	"bankledger/internal/models"
	"bankledger/internal/services"
	"bankledger/internal/store"
	"bankledger/internal/websocket"
)

const testSecret = "secret"

type stubUserService struct {
	registerFn      func(ctx context.Context, in services.RegisterInput) (models.User, error)
	activateFn      func(ctx context.Context, uid, token string) error
	authenticateFn  func(ctx context.Context, email, password string) (services.Tokens, error)
	refreshFn       func(ctx context.Context, refreshToken string) (string, error)
	logoutFn        func(ctx context.Context, refreshToken string) error
	profileFn       func(ctx context.Context, userID string) (models.User, error)
	updateProfileFn func(ctx context.Context, userID string, in services.ProfileInput, partial bool) (models.User, error)
	deleteProfileFn func(ctx context.Context, userID string) error
	listUsersFn     func(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	setUserFlagsFn  func(ctx context.Context, actorID, userID string, flags store.UserFlags) (models.User, error)
}

func (s stubUserService) Register(ctx context.Context, in services.RegisterInput) (models.User, error) {
	if s.registerFn == nil {
		return models.User{}, nil
	}
	return s.registerFn(ctx, in)
}

func (s stubUserService) Activate(ctx context.Context, uid, token string) error {
	if s.activateFn == nil {
		return nil
	}
	return s.activateFn(ctx, uid, token)
}

func (s stubUserService) Authenticate(ctx context.Context, email, password string) (services.Tokens, error) {
	if s.authenticateFn == nil {
		return services.Tokens{}, services.ErrInvalidCredentials
	}
	return s.authenticateFn(ctx, email, password)
}

func (s stubUserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if s.refreshFn == nil {
		return "", services.ErrInvalidToken
	}
	return s.refreshFn(ctx, refreshToken)
}

func (s stubUserService) Logout(ctx context.Context, refreshToken string) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, refreshToken)
}

func (s stubUserService) Profile(ctx context.Context, userID string) (models.User, error) {
	if s.profileFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.profileFn(ctx, userID)
}

func (s stubUserService) UpdateProfile(ctx context.Context, userID string, in services.ProfileInput, partial bool) (models.User, error) {
	if s.updateProfileFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.updateProfileFn(ctx, userID, in, partial)
}

func (s stubUserService) DeleteProfile(ctx context.Context, userID string) error {
	if s.deleteProfileFn == nil {
		return nil
	}
	return s.deleteProfileFn(ctx, userID)
}

func (s stubUserService) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	if s.listUsersFn == nil {
		return nil, nil
	}
	return s.listUsersFn(ctx, search, limit, offset)
}

func (s stubUserService) SetUserFlags(ctx context.Context, actorID, userID string, flags store.UserFlags) (models.User, error) {
	if s.setUserFlagsFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.setUserFlagsFn(ctx, actorID, userID, flags)
}

type stubAccountService struct {
	createFn    func(ctx context.Context, userID string, in services.CreateAccountInput) (models.Account, error)
	listFn      func(ctx context.Context, userID string) ([]models.Account, error)
	getFn       func(ctx context.Context, userID, accountID string) (models.Account, error)
	deleteFn    func(ctx context.Context, userID, accountID string) error
	selfCheckFn func(ctx context.Context, userID string) ([]models.Consistency, error)
	reconcileFn func(ctx context.Context, mismatchedOnly bool) ([]models.Consistency, error)
}

func (s stubAccountService) Create(ctx context.Context, userID string, in services.CreateAccountInput) (models.Account, error) {
	if s.createFn == nil {
		return models.Account{}, nil
	}
	return s.createFn(ctx, userID, in)
}

func (s stubAccountService) List(ctx context.Context, userID string) ([]models.Account, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s stubAccountService) Get(ctx context.Context, userID, accountID string) (models.Account, error) {
	if s.getFn == nil {
		return models.Account{}, services.ErrNotFound
	}
	return s.getFn(ctx, userID, accountID)
}

func (s stubAccountService) Delete(ctx context.Context, userID, accountID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, accountID)
}

func (s stubAccountService) SelfCheck(ctx context.Context, userID string) ([]models.Consistency, error) {
	if s.selfCheckFn == nil {
		return nil, nil
	}
	return s.selfCheckFn(ctx, userID)
}

func (s stubAccountService) Reconcile(ctx context.Context, mismatchedOnly bool) ([]models.Consistency, error) {
	if s.reconcileFn == nil {
		return nil, nil
	}
	return s.reconcileFn(ctx, mismatchedOnly)
}

type stubTransactionService struct {
	createFn func(ctx context.Context, userID string, in services.CreateTransactionInput) (models.Transaction, error)
	updateFn func(ctx context.Context, userID, transactionID string, in services.UpdateTransactionInput) (models.Transaction, error)
	deleteFn func(ctx context.Context, userID, transactionID string) error
	getFn    func(ctx context.Context, userID, transactionID string) (models.Transaction, error)
	listFn   func(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error)
}

func (s stubTransactionService) Create(ctx context.Context, userID string, in services.CreateTransactionInput) (models.Transaction, error) {
	if s.createFn == nil {
		return models.Transaction{}, nil
	}
	return s.createFn(ctx, userID, in)
}

func (s stubTransactionService) Update(ctx context.Context, userID, transactionID string, in services.UpdateTransactionInput) (models.Transaction, error) {
	if s.updateFn == nil {
		return models.Transaction{}, nil
	}
	return s.updateFn(ctx, userID, transactionID, in)
}

func (s stubTransactionService) Delete(ctx context.Context, userID, transactionID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, transactionID)
}

func (s stubTransactionService) Get(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	if s.getFn == nil {
		return models.Transaction{}, services.ErrTransactionNotFound
	}
	return s.getFn(ctx, userID, transactionID)
}

func (s stubTransactionService) List(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, filter)
}

type stubAdminStore struct {
	isStaffFn  func(ctx context.Context, userID string) (bool, error)
	isActiveFn func(ctx context.Context, userID string) (bool, error)
}

// IsActive treats every user as active unless isActiveFn says otherwise.
func (s stubAdminStore) IsActive(ctx context.Context, userID string) (bool, error) {
	if s.isActiveFn == nil {
		return true, nil
	}
	return s.isActiveFn(ctx, userID)
}

func (s stubAdminStore) IsStaff(ctx context.Context, userID string) (bool, error) {
	if s.isStaffFn == nil {
		return false, sql.ErrNoRows
	}
	return s.isStaffFn(ctx, userID)
}

type stubAuditStore struct {
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type testDeps struct {
	users        stubUserService
	accounts     stubAccountService
	transactions stubTransactionService
	admin        stubAdminStore
	audit        stubAuditStore
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      testSecret,
		TokenTTL:       time.Minute,
		RefreshTTL:     time.Hour,
		AllowedOrigins: "*",
		AuthRateLimit:  100,
	}
}

func newTestHandler(deps testDeps) *Handler {
	return New(testConfig(), deps.users, deps.accounts, deps.transactions, deps.admin, deps.audit, websocket.NewHub())
}

func accessToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// serve sends a request through the full router. An empty userID sends no credentials.
func serve(t *testing.T, h *Handler, method, path string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken(t, userID))
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var payload T
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
