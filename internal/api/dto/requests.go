package dto

import "time"

// RegisterRequest creates a new employee account
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	EmployeeID string `json:"employee_id" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Phone      string `json:"phone"`
	Department string `json:"department" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
}

// LoginRequest resolves a credential and issues a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// UpdateProfileRequest edits the caller's own profile
type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
}

// ChangePasswordRequest rotates the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// CreateRideRequest creates a new pending ride
type CreateRideRequest struct {
	PickupLocation string    `json:"pickup_location" binding:"required"`
	DropLocation   string    `json:"drop_location" binding:"required"`
	ScheduleTime   time.Time `json:"schedule_time" binding:"required"`
}

// UpdateRideRequest edits a pending ride; omitted fields are unchanged
type UpdateRideRequest struct {
	PickupLocation *string    `json:"pickup_location"`
	DropLocation   *string    `json:"drop_location"`
	ScheduleTime   *time.Time `json:"schedule_time"`
}

// CancelRideRequest cancels a ride with an optional reason
type CancelRideRequest struct {
	Reason string `json:"reason"`
}

// ApproveRideRequest approves a pending ride, optionally assigning a driver
type ApproveRideRequest struct {
	Driver *DriverRequest `json:"driver"`
}

// DriverRequest is the driver sub-record attached at approval
type DriverRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   string  `json:"phone" binding:"required"`
	Vehicle string  `json:"vehicle" binding:"required"`
	Rating  float64 `json:"rating" binding:"omitempty,min=0,max=5"`
}

// RejectRideRequest rejects a pending ride; a reason is mandatory
type RejectRideRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CompleteRideRequest completes an in_progress ride with the actual fare
type CompleteRideRequest struct {
	ActualFare float64 `json:"actual_fare" binding:"required,min=0"`
}

// FeedbackRequest attaches a rating to a completed ride
type FeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// SetUserStatusRequest activates or deactivates an account
type SetUserStatusRequest struct {
	Active *bool  `json:"active" binding:"required"`
	Reason string `json:"reason"`
}
