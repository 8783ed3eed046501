package handlers

import (
	"context"

	"bankledger/internal/models"
	"bankledger/internal/services"
	"bankledger/internal/store"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (models.User, error)
	Activate(ctx context.Context, uid, token string) error
	Authenticate(ctx context.Context, email, password string) (services.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, in services.ProfileInput, partial bool) (models.User, error)
	DeleteProfile(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	SetUserFlags(ctx context.Context, actorID, userID string, flags store.UserFlags) (models.User, error)
}

type AccountService interface {
	Create(ctx context.Context, userID string, in services.CreateAccountInput) (models.Account, error)
	List(ctx context.Context, userID string) ([]models.Account, error)
	Get(ctx context.Context, userID, accountID string) (models.Account, error)
	Delete(ctx context.Context, userID, accountID string) error
	SelfCheck(ctx context.Context, userID string) ([]models.Consistency, error)
	Reconcile(ctx context.Context, mismatchedOnly bool) ([]models.Consistency, error)
}

type TransactionService interface {
	Create(ctx context.Context, userID string, in services.CreateTransactionInput) (models.Transaction, error)
	Update(ctx context.Context, userID, transactionID string, in services.UpdateTransactionInput) (models.Transaction, error)
	Delete(ctx context.Context, userID, transactionID string) error
	Get(ctx context.Context, userID, transactionID string) (models.Transaction, error)
	List(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error)
}

type AdminStore interface {
	IsStaff(ctx context.Context, userID string) (bool, error)
	IsActive(ctx context.Context, userID string) (bool, error)
}

type AuditStore interface {
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
}
