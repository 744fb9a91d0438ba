package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActionType is the closed set of logged administrative actions
type ActionType string

const (
	ActionApproveRide    ActionType = "approve_ride"
	ActionRejectRide     ActionType = "reject_ride"
	ActionCancelRide     ActionType = "cancel_ride"
	ActionStartRide      ActionType = "start_ride"
	ActionCompleteRide   ActionType = "complete_ride"
	ActionCreateUser     ActionType = "create_user"
	ActionUpdateUser     ActionType = "update_user"
	ActionActivateUser   ActionType = "activate_user"
	ActionDeactivateUser ActionType = "deactivate_user"
	ActionViewAnalytics  ActionType = "view_analytics"
	ActionViewAuditTrail ActionType = "view_audit_trail"
)

// TargetType identifies what kind of resource an action touched
type TargetType string

const (
	TargetRide      TargetType = "ride"
	TargetUser      TargetType = "user"
	TargetSystem    TargetType = "system"
	TargetAnalytics TargetType = "analytics"
)

// Action is one immutable audit record. Records are append-only; nothing
// updates or deletes them after creation.
type Action struct {
	ID            uuid.UUID  `json:"id"`
	AdminID       uuid.UUID  `json:"admin_id"`
	Action        ActionType `json:"action"`
	TargetType    TargetType `json:"target_type"`
	TargetID      *uuid.UUID `json:"target_id,omitempty"`
	Details       string     `json:"details,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	PreviousValue string     `json:"previous_value,omitempty"`
	NewValue      string     `json:"new_value,omitempty"`
	IP            string     `json:"ip,omitempty"`
	UserAgent     string     `json:"user_agent,omitempty"`
	Success       bool       `json:"success"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

var ErrActionNotFound = errors.New("admin action not found")

// IsValid validates the action type
func (a ActionType) IsValid() bool {
	switch a {
	case ActionApproveRide, ActionRejectRide, ActionCancelRide,
		ActionStartRide, ActionCompleteRide,
		ActionCreateUser, ActionUpdateUser, ActionActivateUser, ActionDeactivateUser,
		ActionViewAnalytics, ActionViewAuditTrail:
		return true
	}
	return false
}

// RequiresTargetID returns true when the target type demands a target id
func (t TargetType) RequiresTargetID() bool {
	return t == TargetRide || t == TargetUser
}

// QueryFilter narrows audit trail queries
type QueryFilter struct {
	AdminID *uuid.UUID
	Action  *ActionType
	From    *time.Time
	To      *time.Time
}

// Repository defines the interface for audit record access. There is no
// update or delete on purpose.
type Repository interface {
	Create(ctx context.Context, action *Action) error
	Query(ctx context.Context, filter QueryFilter, page, pageSize int) ([]*Action, int, error)
}
