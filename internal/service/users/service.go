package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/domain/audit"
	"github.com/commutehq/corp-rides/internal/domain/user"
	auditsvc "github.com/commutehq/corp-rides/internal/service/audit"
	apperrors "github.com/commutehq/corp-rides/pkg/errors"
	"github.com/commutehq/corp-rides/pkg/logger"
)

// Service handles profile updates and admin user management
type Service struct {
	users   user.Repository
	auditor *auditsvc.Recorder
	logger  *logger.Logger
}

// NewService creates a new users service
func NewService(users user.Repository, auditor *auditsvc.Recorder, logger *logger.Logger) *Service {
	return &Service{users: users, auditor: auditor, logger: logger}
}

// ProfileInput carries the fields a user may change on their own profile.
// Nil means leave the field unchanged.
type ProfileInput struct {
	FirstName  *string
	LastName   *string
	Phone      *string
	Department *string
}

// UpdateProfile applies profile changes for the caller
func (s *Service) UpdateProfile(ctx context.Context, caller *user.User, input ProfileInput) (*user.User, error) {
	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, apperrors.Validation("Invalid profile").
				WithField("first_name", "must not be empty")
		}
		caller.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, apperrors.Validation("Invalid profile").
				WithField("last_name", "must not be empty")
		}
		caller.LastName = name
	}
	if input.Phone != nil {
		caller.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Department != nil {
		dept := user.Department(*input.Department)
		if !dept.IsValid() {
			return nil, apperrors.Validation("Invalid profile").
				WithField("department", "unknown department")
		}
		caller.Department = dept
	}

	if err := s.users.Update(ctx, caller); err != nil {
		return nil, apperrors.Internal("Failed to update profile", err)
	}

	s.logger.Info("Profile updated", logger.String("user_id", caller.ID.String()))
	return caller, nil
}

// List returns a page of users, newest-first. Admin only.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*user.User, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := s.users.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list users", err)
	}
	return users, total, nil
}

// SetActive activates or deactivates an account. Users are never hard
// deleted. Admin only; audited.
func (s *Service) SetActive(ctx context.Context, admin *user.User, userID uuid.UUID, active bool, reason string) (*user.User, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == user.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal("Failed to load user", err)
	}

	if target.ID == admin.ID && !active {
		return nil, apperrors.Validation("Admins cannot deactivate their own account")
	}

	prev := target.Active
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return nil, apperrors.Internal("Failed to update account status", err)
	}
	target.Active = active

	action := audit.ActionDeactivateUser
	if active {
		action = audit.ActionActivateUser
	}
	s.auditor.Log(ctx, auditsvc.Entry{
		AdminID:       admin.ID,
		Action:        action,
		TargetType:    audit.TargetUser,
		TargetID:      &target.ID,
		Reason:        strings.TrimSpace(reason),
		PreviousValue: fmt.Sprintf("active=%t", prev),
		NewValue:      fmt.Sprintf("active=%t", active),
		Success:       true,
	})

	s.logger.Info("Account status changed",
		logger.String("user_id", target.ID.String()),
		logger.String("admin_id", admin.ID.String()),
		logger.Bool("active", active),
	)
	return target, nil
}
