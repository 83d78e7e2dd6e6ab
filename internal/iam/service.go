package iam

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YeyeJames/jiale15/internal/store"
	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/config"
	"github.com/YeyeJames/jiale15/pkg/logger"
	"github.com/YeyeJames/jiale15/pkg/monitoring"
	"github.com/YeyeJames/jiale15/pkg/types"
)

// Service authenticates clinic staff and manages their accounts
type Service struct {
	store     *store.Store
	passwords *PasswordManager
	tokens    *TokenManager
	limiter   *LoginLimiter
	logger    *logger.Logger
	metrics   *monitoring.MetricsCollector
}

// NewService creates the account service. metrics may be nil.
func NewService(st *store.Store, cfg config.AuthConfig, log *logger.Logger, metrics *monitoring.MetricsCollector) *Service {
	return &Service{
		store:     st,
		passwords: NewPasswordManager(),
		tokens:    NewTokenManager(cfg.JWTSecret, cfg.Issuer, time.Duration(cfg.TokenTTL)*time.Second),
		limiter:   NewLoginLimiter(cfg.MaxLoginAttempts, time.Duration(cfg.LoginWindow)*time.Second),
		logger:    log,
		metrics:   metrics,
	}
}

// Tokens exposes the token manager used by the middleware
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Authenticate returns the account matching the credentials. A plain text
// password that matches is replaced with its hash.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*types.Account, error) {
	username = strings.TrimSpace(username)

	var account *types.Account
	for _, a := range s.store.Accounts() {
		if a.Username == username {
			a := a
			account = &a
			break
		}
	}

	if account == nil {
		s.recordAttempt("failure")
		s.logger.Security("login_failed", username, map[string]interface{}{"reason": "unknown user"})
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "invalid username or password")
	}

	ok, err := s.passwords.VerifyPassword(account.Password, password)
	if err != nil {
		s.recordAttempt("error")
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to verify password", err)
	}
	if !ok {
		s.recordAttempt("failure")
		s.logger.Security("login_failed", username, map[string]interface{}{"reason": "bad password"})
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "invalid username or password")
	}

	if !IsHashed(account.Password) {
		s.upgradePassword(ctx, account.ID, password)
	}

	s.recordAttempt("success")
	return account, nil
}

// upgradePassword stores the hash of a plain text password. Failure only
// delays the upgrade to the next login.
func (s *Service) upgradePassword(ctx context.Context, id, password string) {
	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to hash legacy password")
		return
	}

	err = s.store.Update(ctx, []types.Slot{types.SlotAccounts}, func(snap *store.Snapshot) error {
		for i := range snap.Accounts {
			if snap.Accounts[i].ID == id {
				snap.Accounts[i].Password = hash
			}
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", id).Warn("Failed to store upgraded password")
		return
	}
	s.logger.WithField("user_id", id).Info("Upgraded plain text password")
}

// Login authenticates and issues an access token. Repeated attempts for
// one username are throttled until a login succeeds.
func (s *Service) Login(ctx context.Context, credentials *types.Credentials) (*types.AuthToken, error) {
	key := strings.ToLower(strings.TrimSpace(credentials.Username))
	if !s.limiter.Allow(key) {
		s.recordAttempt("throttled")
		s.logger.Security("login_throttled", credentials.Username, nil)
		return nil, types.NewRateLimitedError(types.ErrCodeTooManyAttempts, "too many login attempts, try again later")
	}

	account, err := s.Authenticate(ctx, credentials.Username, credentials.Password)
	if err != nil {
		return nil, err
	}
	s.limiter.Reset(key)

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to issue token", err)
	}

	s.logger.Audit(account.ID, "login", "session", true, map[string]interface{}{"username": account.Username})
	return token, nil
}

// ListAccounts returns every account without passwords
func (s *Service) ListAccounts() []types.AccountView {
	accounts := s.store.Accounts()
	views := make([]types.AccountView, len(accounts))
	for i, a := range accounts {
		views[i] = a.View()
	}
	return views
}

// AddAccount creates an account with a hashed password
func (s *Service) AddAccount(ctx context.Context, input *types.AccountInput) (*types.AccountView, error) {
	username := strings.TrimSpace(input.Username)
	name := strings.TrimSpace(input.Name)

	if username == "" || input.Password == "" || name == "" {
		return nil, types.NewValidationError(types.ErrCodeValidationFailed, "username, password and name are required", nil)
	}
	if !input.Role.Valid() {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unknown role", map[string]interface{}{"role": input.Role})
	}

	hash, err := s.passwords.HashPassword(input.Password)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to hash password", err)
	}

	account := types.Account{
		ID:       "u_" + uuid.New().String(),
		Username: username,
		Password: hash,
		Name:     name,
		Role:     input.Role,
	}

	err = s.store.Update(ctx, []types.Slot{types.SlotAccounts}, func(snap *store.Snapshot) error {
		for _, a := range snap.Accounts {
			if a.Username == username {
				return types.NewConflictError(types.ErrCodeDuplicate, "username already exists", map[string]interface{}{"username": username})
			}
		}
		snap.Accounts = append(snap.Accounts, account)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(api.ActorID(ctx), "add_account", account.ID, true, map[string]interface{}{
		"username": account.Username,
		"role":     account.Role,
	})

	view := account.View()
	return &view, nil
}

// RemoveAccount deletes an account. The last admin account cannot be removed.
func (s *Service) RemoveAccount(ctx context.Context, id string) error {
	err := s.store.Update(ctx, []types.Slot{types.SlotAccounts}, func(snap *store.Snapshot) error {
		idx := -1
		admins := 0
		for i, a := range snap.Accounts {
			if a.ID == id {
				idx = i
			}
			if a.Role == types.RoleAdmin {
				admins++
			}
		}
		if idx < 0 {
			return types.NewNotFoundError(types.ErrCodeNotFound, "account not found")
		}
		if snap.Accounts[idx].Role == types.RoleAdmin && admins == 1 {
			return types.NewConflictError(types.ErrCodeLastAdmin, "cannot remove the last admin account", map[string]interface{}{"id": id})
		}
		snap.Accounts = append(snap.Accounts[:idx], snap.Accounts[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Audit(api.ActorID(ctx), "remove_account", id, true, nil)
	return nil
}

func (s *Service) recordAttempt(status string) {
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt("password", status)
	}
}
