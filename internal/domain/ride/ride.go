package ride

import (
	"time"

	"github.com/google/uuid"
)

// Status represents ride status. The set is canonical: every layer of the
// system uses exactly these values.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// DriverInfo is the driver sub-record attached to a ride at approval time
type DriverInfo struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Vehicle string  `json:"vehicle"`
	Rating  float64 `json:"rating"`
}

// Feedback is the rider's post-completion rating, settable exactly once
type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Ride represents a single pickup-to-drop transportation request tied to
// one employee and one scheduled time
type Ride struct {
	ID                 uuid.UUID   `json:"id"`
	UserID             uuid.UUID   `json:"user_id"`
	PickupLocation     string      `json:"pickup_location"`
	DropLocation       string      `json:"drop_location"`
	ScheduleTime       time.Time   `json:"schedule_time"`
	Status             Status      `json:"status"`
	EstimatedFare      float64     `json:"estimated_fare"`
	ActualFare         *float64    `json:"actual_fare,omitempty"`
	Driver             *DriverInfo `json:"driver,omitempty"`
	ApprovedBy         *uuid.UUID  `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time  `json:"approved_at,omitempty"`
	RejectedBy         *uuid.UUID  `json:"rejected_by,omitempty"`
	RejectedAt         *time.Time  `json:"rejected_at,omitempty"`
	RejectionReason    string      `json:"rejection_reason,omitempty"`
	CancelledBy        *uuid.UUID  `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
	StartedAt          *time.Time  `json:"started_at,omitempty"`
	CompletedAt        *time.Time  `json:"completed_at,omitempty"`
	Feedback           *Feedback   `json:"feedback,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses that admit no further transitions
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanApprove checks if the ride can be approved
func (r *Ride) CanApprove() bool {
	return r.Status == StatusPending
}

// CanReject checks if the ride can be rejected
func (r *Ride) CanReject() bool {
	return r.Status == StatusPending
}

// CanCancel checks if the ride can be cancelled
func (r *Ride) CanCancel() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}

// CanEdit checks if pickup/drop/schedule may still be changed
func (r *Ride) CanEdit() bool {
	return r.Status == StatusPending
}

// CanStart checks if the ride can move to in_progress
func (r *Ride) CanStart() bool {
	return r.Status == StatusApproved
}

// CanComplete checks if the ride can be completed
func (r *Ride) CanComplete() bool {
	return r.Status == StatusInProgress
}

// CanAttachFeedback checks if feedback may be recorded
func (r *Ride) CanAttachFeedback() bool {
	return r.Status == StatusCompleted && r.Feedback == nil
}

// IsOwnedBy returns true if the ride belongs to the given user
func (r *Ride) IsOwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}
