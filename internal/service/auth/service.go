package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/commutehq/corp-rides/internal/domain/user"
	apperrors "github.com/commutehq/corp-rides/pkg/errors"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/monitoring"
)

// Service handles registration, login and credential management
type Service struct {
	users         user.Repository
	tokens        *TokenManager
	redis         *redis.Client
	logger        *logger.Logger
	nr            *monitoring.NewRelicApp
	resetTokenTTL time.Duration
}

// NewService creates a new auth service
func NewService(users user.Repository, tokens *TokenManager, redisClient *redis.Client, logger *logger.Logger, nr *monitoring.NewRelicApp, resetTokenTTL time.Duration) *Service {
	if resetTokenTTL == 0 {
		resetTokenTTL = 30 * time.Minute
	}
	return &Service{
		users:         users,
		tokens:        tokens,
		redis:         redisClient,
		logger:        logger,
		nr:            nr,
		resetTokenTTL: resetTokenTTL,
	}
}

// RegisterInput carries new-account fields
type RegisterInput struct {
	Email      string
	EmployeeID string
	FirstName  string
	LastName   string
	Phone      string
	Department string
	Password   string
}

// Register creates a new employee account
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	if err := validateRegisterInput(&input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		EmployeeID:   strings.TrimSpace(input.EmployeeID),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		Department:   user.Department(input.Department),
		Role:         user.RoleEmployee,
		Active:       true,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		switch err {
		case user.ErrDuplicateEmail:
			return nil, apperrors.ErrDuplicateEmail
		case user.ErrDuplicateEmployee:
			return nil, apperrors.ErrDuplicateEmployeeID
		}
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.logger.Info("User registered",
		logger.String("user_id", u.ID.String()),
		logger.String("department", string(u.Department)),
	)
	return u, nil
}

// Login verifies credentials and issues a session token
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == user.ErrUserNotFound {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", apperrors.Internal("Failed to load user", err)
	}
	if !u.Active {
		return nil, "", apperrors.ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, "", apperrors.Internal("Failed to issue token", err)
	}

	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		// Not fatal for login
		s.logger.Warn("Failed to refresh last login", logger.Err(err))
	}

	s.logger.Info("User logged in", logger.String("user_id", u.ID.String()))
	if s.nr != nil {
		s.nr.RecordUserLogin(string(u.Role))
	}
	return u, token, nil
}

// ResolveToken maps a bearer token to an active user, for the auth guard
func (s *Service) ResolveToken(ctx context.Context, tokenStr string) (*user.User, error) {
	claims, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid or expired token", err)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if err == user.ErrUserNotFound {
			return nil, apperrors.Unauthorized("Token does not map to a known user", nil)
		}
		return nil, apperrors.Internal("Failed to load user", err)
	}
	if !u.Active {
		return nil, apperrors.ErrAccountInactive
	}
	return u, nil
}

// ChangePassword verifies the current password and stores a new hash
func (s *Service) ChangePassword(ctx context.Context, u *user.User, current, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperrors.Unauthorized("Current password is incorrect", nil)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	u.PasswordHash = string(hash)
	if err := s.users.Update(ctx, u); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}

	s.logger.Info("Password changed", logger.String("user_id", u.ID.String()))
	return nil
}

// ForgotPassword issues a reset token. Only its SHA-256 digest is stored,
// keyed by the user id in Redis with a TTL. The response never reveals
// whether the email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == user.ErrUserNotFound {
			return "", nil
		}
		return "", apperrors.Internal("Failed to load user", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", apperrors.Internal("Failed to generate reset token", err)
	}
	token := hex.EncodeToString(raw)
	digest := sha256.Sum256([]byte(token))

	key := resetTokenKey(u.ID)
	if err := s.redis.Set(ctx, key, hex.EncodeToString(digest[:]), s.resetTokenTTL).Err(); err != nil {
		return "", apperrors.Internal("Failed to store reset token", err)
	}

	s.logger.Info("Password reset token issued", logger.String("user_id", u.ID.String()))
	return token, nil
}

// ResetPassword consumes a reset token and stores the new password hash
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == user.ErrUserNotFound {
			return apperrors.Unauthorized("Invalid reset token", nil)
		}
		return apperrors.Internal("Failed to load user", err)
	}

	key := resetTokenKey(u.ID)
	stored, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return apperrors.Unauthorized("Invalid or expired reset token", nil)
	}
	if err != nil {
		return apperrors.Internal("Failed to load reset token", err)
	}

	digest := sha256.Sum256([]byte(token))
	if stored != hex.EncodeToString(digest[:]) {
		return apperrors.Unauthorized("Invalid or expired reset token", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	u.PasswordHash = string(hash)
	if err := s.users.Update(ctx, u); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}

	// Token is single-use
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("Failed to delete reset token", logger.Err(err))
	}

	s.logger.Info("Password reset", logger.String("user_id", u.ID.String()))
	return nil
}

func resetTokenKey(userID uuid.UUID) string {
	return "auth:reset_token:" + userID.String()
}

func validateRegisterInput(input *RegisterInput) error {
	var fields []apperrors.FieldError

	if strings.TrimSpace(input.Email) == "" {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "must not be empty"})
	}
	if strings.TrimSpace(input.EmployeeID) == "" {
		fields = append(fields, apperrors.FieldError{Field: "employee_id", Message: "must not be empty"})
	}
	if strings.TrimSpace(input.FirstName) == "" {
		fields = append(fields, apperrors.FieldError{Field: "first_name", Message: "must not be empty"})
	}
	if strings.TrimSpace(input.LastName) == "" {
		fields = append(fields, apperrors.FieldError{Field: "last_name", Message: "must not be empty"})
	}
	if !user.Department(input.Department).IsValid() {
		fields = append(fields, apperrors.FieldError{Field: "department", Message: "unknown department"})
	}
	if len(input.Password) < 8 {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}

	if len(fields) > 0 {
		return apperrors.Validation("Invalid registration request", fields...)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.Validation("Invalid password").
			WithField("password", "must be at least 8 characters")
	}
	return nil
}
