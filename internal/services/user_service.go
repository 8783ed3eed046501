package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bankledger/internal/auth"
	"bankledger/internal/db"
	"bankledger/internal/mailer"
	"bankledger/internal/models"
	"bankledger/internal/store"
	"bankledger/internal/validator"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	Activate(ctx context.Context, userID string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdateProfile(ctx context.Context, user models.User) error
	Delete(ctx context.Context, tx store.Execer, userID string) (bool, error)
}

type TokenStore interface {
	Blacklist(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type AdminStore interface {
	ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	SetUserFlags(ctx context.Context, tx store.Execer, userID string, flags store.UserFlags) (bool, error)
}

type UserServiceConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration
	PublicBaseURL string
}

type UserService struct {
	txRunner   db.TxRunner
	userStore  UserStore
	tokenStore TokenStore
	adminStore AdminStore
	auditStore AuditStore
	mailer     mailer.Mailer
	cfg        UserServiceConfig
}

func NewUserService(txRunner db.TxRunner, userStore UserStore, tokenStore TokenStore, adminStore AdminStore, auditStore AuditStore, m mailer.Mailer, cfg UserServiceConfig) *UserService {
	return &UserService{
		txRunner:   txRunner,
		userStore:  userStore,
		tokenStore: tokenStore,
		adminStore: adminStore,
		auditStore: auditStore,
		mailer:     m,
		cfg:        cfg,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Nickname string
	Name     string
	Phone    *string
}

// Tokens is the result of a successful login.
type Tokens struct {
	Access           string
	Refresh          string
	RefreshExpiresAt time.Time
}

// Register creates an inactive user and mails the activation link once the
// insert has committed. When the mail cannot be sent the user is removed again,
// so the address stays free.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	email := validator.NormalizeEmail(in.Email)
	if err := validateProfile(email, in.Password, in.Nickname, in.Name, in.Phone); err != nil {
		return models.User{}, err
	}
	if _, err := s.userStore.GetByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:           id.String(),
		Email:        email,
		PasswordHash: hash,
		Nickname:     strings.TrimSpace(in.Nickname),
		Name:         strings.TrimSpace(in.Name),
		PhoneNumber:  normalizePhone(in.Phone),
		CreatedAt:    time.Now().UTC(),
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.userStore.Create(ctx, tx, user); err != nil {
			if db.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		return s.auditStore.Log(ctx, tx, user.ID, "user.register", "user", user.ID, "{}")
	})
	if err != nil {
		return models.User{}, err
	}
	if err := s.sendActivation(ctx, user); err != nil {
		if undoErr := s.discardRegistration(ctx, user.ID); undoErr != nil {
			return models.User{}, errors.Join(err, undoErr)
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) discardRegistration(ctx context.Context, userID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.userStore.Delete(ctx, tx, userID); err != nil {
			return fmt.Errorf("discard registration %s: %w", userID, err)
		}
		return s.auditStore.Log(ctx, tx, userID, "user.register_discarded", "user", userID, "{}")
	})
}

// ActivationLink builds the URL mailed to a new user.
func (s *UserService) ActivationLink(user models.User) (string, error) {
	token, err := auth.GenerateActivationToken(s.cfg.JWTSecret, user.ID, user.PasswordHash, user.LastLogin, s.cfg.ActivationTTL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/activate/%s/%s", s.cfg.PublicBaseURL, auth.EncodeUID(user.ID), token), nil
}

func (s *UserService) sendActivation(ctx context.Context, user models.User) error {
	link, err := s.ActivationLink(user)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Hello %s,\n\nPlease activate your account by opening the link below:\n\n%s\n", user.Nickname, link)
	if err := s.mailer.Send(ctx, mailer.Message{To: user.Email, Subject: "Activate your account", Body: body}); err != nil {
		return fmt.Errorf("send activation email: %w", err)
	}
	return nil
}

// Activate is idempotent: a valid token for an already active user succeeds.
// Links stop working after the user's first login.
func (s *UserService) Activate(ctx context.Context, uid, token string) error {
	userID, err := auth.DecodeUID(uid)
	if err != nil {
		return ErrInvalidLink
	}
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidLink
		}
		return err
	}
	if err := auth.VerifyActivationToken(s.cfg.JWTSecret, token, user.ID, user.PasswordHash, user.LastLogin); err != nil {
		return ErrInvalidActivationToken
	}
	if user.IsActive {
		return nil
	}
	return s.userStore.Activate(ctx, user.ID)
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (Tokens, error) {
	user, err := s.userStore.GetByEmail(ctx, validator.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tokens{}, ErrInvalidCredentials
		}
		return Tokens{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) || !user.IsActive {
		return Tokens{}, ErrInvalidCredentials
	}
	access, err := auth.GenerateToken(s.cfg.JWTSecret, user.ID, s.cfg.TokenTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := auth.GenerateRefreshToken(s.cfg.JWTSecret, user.ID, s.cfg.RefreshTTL)
	if err != nil {
		return Tokens{}, err
	}
	if err := s.userStore.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh.Token, RefreshExpiresAt: refresh.ExpiresAt}, nil
}

// Refresh exchanges a live refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingRefreshToken
	}
	claims, err := auth.ParseRefreshToken(s.cfg.JWTSecret, refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	revoked, err := s.tokenStore.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		return "", ErrInvalidToken
	}
	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidToken
	}
	return auth.GenerateToken(s.cfg.JWTSecret, user.ID, s.cfg.TokenTTL)
}

func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingRefreshToken
	}
	claims, err := auth.ParseRefreshToken(s.cfg.JWTSecret, refreshToken)
	if err != nil {
		return ErrInvalidToken
	}
	expiresAt := time.Now().Add(s.cfg.RefreshTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.tokenStore.Blacklist(ctx, claims.ID, claims.UserID, expiresAt); err != nil {
		return err
	}
	if _, err := s.tokenStore.PurgeExpired(ctx, time.Now()); err != nil {
		log.Printf("purge expired refresh tokens: %v", err)
	}
	return nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// ProfileInput holds self-service changes. A nil field is left unchanged on a
// partial update and is required on a full one, except Phone which is cleared.
type ProfileInput struct {
	Email    *string
	Password *string
	Nickname *string
	Name     *string
	Phone    *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput, partial bool) (models.User, error) {
	if !partial {
		required := []struct {
			name  string
			value *string
		}{{"email", in.Email}, {"password", in.Password}, {"nickname", in.Nickname}, {"name", in.Name}}
		for _, field := range required {
			if field.value == nil {
				return models.User{}, requiredField(field.name)
			}
		}
	}
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	password := ""
	if in.Email != nil {
		user.Email = validator.NormalizeEmail(*in.Email)
	}
	if in.Password != nil {
		password = *in.Password
	}
	if in.Nickname != nil {
		user.Nickname = strings.TrimSpace(*in.Nickname)
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil || !partial {
		user.PhoneNumber = normalizePhone(in.Phone)
	}
	if err := validator.ValidateEmail(user.Email); err != nil {
		return models.User{}, validationError(err)
	}
	if err := validator.ValidateNickname(user.Nickname); err != nil {
		return models.User{}, validationError(err)
	}
	if err := validator.ValidateName(user.Name); err != nil {
		return models.User{}, validationError(err)
	}
	if user.PhoneNumber != nil {
		if err := validator.ValidatePhone(*user.PhoneNumber); err != nil {
			return models.User{}, validationError(err)
		}
	}
	if in.Password != nil {
		if err := validator.ValidatePassword(password); err != nil {
			return models.User{}, validationError(err)
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = hash
	}
	if existing, err := s.userStore.GetByEmail(ctx, user.Email); err == nil && existing.ID != user.ID {
		return models.User{}, ErrEmailTaken
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}
	if err := s.userStore.UpdateProfile(ctx, user); err != nil {
		if db.IsUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// DeleteProfile removes the user together with their accounts and transactions.
func (s *UserService) DeleteProfile(ctx context.Context, userID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		deleted, err := s.userStore.Delete(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}
		return s.auditStore.Log(ctx, tx, userID, "user.delete", "user", userID, "{}")
	})
}

func (s *UserService) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	return s.adminStore.ListUsers(ctx, search, limit, offset)
}

func (s *UserService) SetUserFlags(ctx context.Context, actorID, userID string, flags store.UserFlags) (models.User, error) {
	if flags.IsActive == nil && flags.IsStaff == nil {
		return models.User{}, validationError(errors.New("is_active or is_staff is required"))
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		updated, err := s.adminStore.SetUserFlags(ctx, tx, userID, flags)
		if err != nil {
			return err
		}
		if !updated {
			return ErrNotFound
		}
		data, _ := json.Marshal(map[string]*bool{"is_active": flags.IsActive, "is_staff": flags.IsStaff})
		return s.auditStore.Log(ctx, tx, actorID, "user.flags", "user", userID, string(data))
	})
	if err != nil {
		return models.User{}, err
	}
	return s.Profile(ctx, userID)
}

func validateProfile(email, password, nickname, name string, phone *string) error {
	if err := validator.ValidateEmail(email); err != nil {
		return validationError(err)
	}
	if err := validator.ValidatePassword(password); err != nil {
		return validationError(err)
	}
	if err := validator.ValidateNickname(nickname); err != nil {
		return validationError(err)
	}
	if err := validator.ValidateName(name); err != nil {
		return validationError(err)
	}
	if p := normalizePhone(phone); p != nil {
		if err := validator.ValidatePhone(*p); err != nil {
			return validationError(err)
		}
	}
	return nil
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
