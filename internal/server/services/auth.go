// Package services implements the application logic of the storefront
// server on top of the resolved providers: account and session
// management, the cached catalog, and readiness reporting.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/common"
	"storefront/internal/logging"
	"storefront/internal/server/auth"
	"storefront/internal/server/kvcache"
	"storefront/internal/server/models"
	"storefront/internal/server/queue"
	"storefront/internal/server/repositories/users"
)

const (
	blacklistKeyPrefix = "blacklist:"
	minPasswordLength  = 8
)

// AuthService manages accounts and session tokens. Revocation is backed
// by the cache; when the cache resolved degraded, logout still succeeds
// but the revocation is not durable and the service says so.
type AuthService struct {
	users            users.Repository
	cache            kvcache.Cache
	queue            queue.Queue
	log              logging.Logger
	secretKey        []byte
	tokenValidity    time.Duration
	bcryptCost       int
	blacklistDurable bool
}

func NewAuthService(
	repo users.Repository,
	cache kvcache.Cache,
	q queue.Queue,
	log logging.Logger,
	secretKey []byte,
	tokenValidity time.Duration,
	bcryptCost int,
	blacklistDurable bool,
) *AuthService {
	return &AuthService{
		users:            repo,
		cache:            cache,
		queue:            q,
		log:              log,
		secretKey:        secretKey,
		tokenValidity:    tokenValidity,
		bcryptCost:       bcryptCost,
		blacklistDurable: blacklistDurable,
	}
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (in RegisterInput) validate() error {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", common.ErrValidation)
	}
	return nil
}

// Register creates an account and announces it on the events exchange.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
	})
	if err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, models.EventUserCreated, user)
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown email
// and wrong password both come back as common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Token, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.secretKey, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	s.publishUserEvent(ctx, models.EventUserLogin, user)

	return &models.Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenValidity.Seconds()),
	}, nil
}

// VerifyToken validates a session token. Checks run in a fixed order
// and each failure is terminal: malformed, then expired, then revoked.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(tokenString, s.secretKey)
	if err != nil {
		return nil, err
	}

	id, err := auth.TokenID(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.cache.Exists(ctx, blacklistKeyPrefix+id)
	if err != nil {
		// A failing blacklist lookup fails open: the signed, unexpired
		// token stays valid rather than locking every caller out.
		s.log.Warn(ctx, "blacklist lookup failed, accepting token", "error", err)
		return claims, nil
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}

	return claims, nil
}

// Logout revokes a session token by blacklisting it until its natural
// expiry. The returned flag reports whether the revocation is durable;
// it is false when the cache resolved degraded.
func (s *AuthService) Logout(ctx context.Context, tokenString string) (revoked bool, err error) {
	claims, err := auth.ParseToken(tokenString, s.secretKey)
	if err != nil {
		return false, err
	}

	id, err := auth.TokenID(tokenString)
	if err != nil {
		return false, err
	}

	// Keep the entry only as long as the token could still be presented.
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return false, common.ErrTokenExpired
	}

	if err := s.cache.Set(ctx, blacklistKeyPrefix+id, []byte("1"), ttl); err != nil {
		return false, fmt.Errorf("blacklisting token: %w", err)
	}

	s.publishUserEvent(ctx, models.EventUserLogout, &models.User{ID: claims.UserID, Email: claims.Email})
	return s.blacklistDurable, nil
}

// Profile returns the account record for id.
func (s *AuthService) Profile(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies the non-nil fields of upd to the account.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, upd users.ProfileUpdate) (*models.User, error) {
	if upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) == "" {
		return nil, fmt.Errorf("%w: first name cannot be blank", common.ErrValidation)
	}
	if upd.LastName != nil && strings.TrimSpace(*upd.LastName) == "" {
		return nil, fmt.Errorf("%w: last name cannot be blank", common.ErrValidation)
	}
	return s.users.UpdateProfile(ctx, id, upd)
}

// ChangePassword verifies the current password before storing the new
// one.
func (s *AuthService) ChangePassword(ctx context.Context, id, current, next string) error {
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

// Users lists registered accounts, newest first.
func (s *AuthService) Users(ctx context.Context, limit, offset int) ([]*models.User, error) {
	limit, offset = clampPage(limit, offset)
	return s.users.List(ctx, limit, offset)
}

func (s *AuthService) publishUserEvent(ctx context.Context, event string, user *models.User) {
	data, err := json.Marshal(models.UserEventData{UserID: user.ID, Email: user.Email})
	if err != nil {
		s.log.Error(ctx, "marshaling event payload", "event", event, "error", err)
		return
	}
	publishEvent(ctx, s.queue, s.log, event, data)
}

// publishEvent wraps data in the shared envelope and publishes it.
// Delivery is best effort; a failure is logged and the triggering
// operation still succeeds.
func publishEvent(ctx context.Context, q queue.Queue, log logging.Logger, event string, data json.RawMessage) {
	body, err := json.Marshal(models.Event{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		log.Error(ctx, "marshaling event envelope", "event", event, "error", err)
		return
	}
	if err := q.Publish(ctx, event, body); err != nil {
		log.Warn(ctx, "event publish failed", "event", event, "error", err)
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
