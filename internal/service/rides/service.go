package rides

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/domain/audit"
	"github.com/commutehq/corp-rides/internal/domain/ride"
	"github.com/commutehq/corp-rides/internal/domain/user"
	auditsvc "github.com/commutehq/corp-rides/internal/service/audit"
	apperrors "github.com/commutehq/corp-rides/pkg/errors"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/monitoring"
	"github.com/commutehq/corp-rides/pkg/websocket"
)

// Events is the broadcast surface for ride lifecycle notifications. A nil
// Events is allowed and means no feed is attached.
type Events interface {
	Broadcast(event websocket.Event)
}

// Config holds ride service configuration
type Config struct {
	BaseFare        float64
	MaxLocationLen  int
	MaxReasonLen    int
	DefaultPageSize int
	MaxPageSize     int
}

// Service owns every state transition of a ride record. Each operation
// reads the ride, checks preconditions against its current status, and
// writes it back as one atomic update.
type Service struct {
	rides   ride.Repository
	auditor *auditsvc.Recorder
	events  Events
	logger  *logger.Logger
	nr      *monitoring.NewRelicApp
	config  Config
}

// NewService creates a new ride lifecycle service
func NewService(rides ride.Repository, auditor *auditsvc.Recorder, events Events, logger *logger.Logger, nr *monitoring.NewRelicApp, config Config) *Service {
	if config.MaxLocationLen == 0 {
		config.MaxLocationLen = 255
	}
	if config.MaxReasonLen == 0 {
		config.MaxReasonLen = 500
	}
	if config.DefaultPageSize == 0 {
		config.DefaultPageSize = 20
	}
	if config.MaxPageSize == 0 {
		config.MaxPageSize = 100
	}
	return &Service{
		rides:   rides,
		auditor: auditor,
		events:  events,
		logger:  logger,
		nr:      nr,
		config:  config,
	}
}

// CreateInput carries the fields of a new ride request
type CreateInput struct {
	PickupLocation string
	DropLocation   string
	ScheduleTime   time.Time
}

// Create creates a new ride in pending status for the caller
func (s *Service) Create(ctx context.Context, caller *user.User, input CreateInput) (*ride.Ride, error) {
	if err := s.validateRideFields(input.PickupLocation, input.DropLocation, input.ScheduleTime); err != nil {
		return nil, err
	}

	now := time.Now()
	rd := &ride.Ride{
		ID:             uuid.New(),
		UserID:         caller.ID,
		PickupLocation: strings.TrimSpace(input.PickupLocation),
		DropLocation:   strings.TrimSpace(input.DropLocation),
		ScheduleTime:   input.ScheduleTime,
		Status:         ride.StatusPending,
		EstimatedFare:  s.config.BaseFare,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.rides.Create(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to create ride", err)
	}

	s.logger.Info("Ride created",
		logger.String("ride_id", rd.ID.String()),
		logger.String("user_id", caller.ID.String()),
	)
	if s.nr != nil {
		s.nr.RecordRideCreated(rd.ID.String(), string(caller.Department))
	}
	s.broadcast("ride_created", rd)

	return rd, nil
}

// Get fetches one ride. Non-admin callers may only read their own rides.
func (s *Service) Get(ctx context.Context, caller *user.User, rideID uuid.UUID) (*ride.Ride, error) {
	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(rd.UserID) {
		return nil, apperrors.ErrNotRideOwner
	}
	return rd, nil
}

// EditInput carries the mutable fields of a pending ride. Nil means leave
// the field unchanged.
type EditInput struct {
	PickupLocation *string
	DropLocation   *string
	ScheduleTime   *time.Time
}

// Edit updates pickup/drop/schedule on a pending ride owned by the caller
func (s *Service) Edit(ctx context.Context, caller *user.User, rideID uuid.UUID, input EditInput) (*ride.Ride, error) {
	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.IsOwnedBy(caller.ID) {
		return nil, apperrors.ErrNotRideOwner
	}
	if !rd.CanEdit() {
		return nil, apperrors.ErrRideNotPending
	}

	pickup := rd.PickupLocation
	drop := rd.DropLocation
	schedule := rd.ScheduleTime
	if input.PickupLocation != nil {
		pickup = strings.TrimSpace(*input.PickupLocation)
	}
	if input.DropLocation != nil {
		drop = strings.TrimSpace(*input.DropLocation)
	}
	if input.ScheduleTime != nil {
		schedule = *input.ScheduleTime
	}
	if err := s.validateRideFields(pickup, drop, schedule); err != nil {
		return nil, err
	}

	rd.PickupLocation = pickup
	rd.DropLocation = drop
	rd.ScheduleTime = schedule

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to update ride", err)
	}

	s.logger.Info("Ride edited",
		logger.String("ride_id", rd.ID.String()),
		logger.String("user_id", caller.ID.String()),
	)
	return rd, nil
}

// Cancel moves a pending or approved ride to cancelled. Owners cancel their
// own rides; admins may cancel any, which is audited.
func (s *Service) Cancel(ctx context.Context, caller *user.User, rideID uuid.UUID, reason string) (*ride.Ride, error) {
	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(rd.UserID) {
		return nil, apperrors.ErrNotRideOwner
	}
	if !rd.CanCancel() {
		return nil, apperrors.ErrRideNotCancellable
	}
	if len(reason) > s.config.MaxReasonLen {
		return nil, apperrors.Validation("Invalid cancellation reason").
			WithField("reason", fmt.Sprintf("must be at most %d characters", s.config.MaxReasonLen))
	}

	prevStatus := rd.Status
	now := time.Now()
	rd.Status = ride.StatusCancelled
	rd.CancelledBy = &caller.ID
	rd.CancelledAt = &now
	rd.CancellationReason = strings.TrimSpace(reason)

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to cancel ride", err)
	}

	s.logger.Info("Ride cancelled",
		logger.String("ride_id", rd.ID.String()),
		logger.String("cancelled_by", caller.ID.String()),
	)
	if s.nr != nil {
		s.nr.RecordRideTransition(rd.ID.String(), string(prevStatus), string(rd.Status))
	}
	if caller.IsAdmin() && !rd.IsOwnedBy(caller.ID) {
		s.auditor.Log(ctx, auditsvc.Entry{
			AdminID:       caller.ID,
			Action:        audit.ActionCancelRide,
			TargetType:    audit.TargetRide,
			TargetID:      &rd.ID,
			Reason:        rd.CancellationReason,
			PreviousValue: string(prevStatus),
			NewValue:      string(rd.Status),
			Success:       true,
		})
	}
	s.broadcast("ride_cancelled", rd)

	return rd, nil
}

// Approve moves a pending ride to approved and optionally attaches the
// driver sub-record. Admin only; always audited.
func (s *Service) Approve(ctx context.Context, admin *user.User, rideID uuid.UUID, driver *ride.DriverInfo) (*ride.Ride, error) {
	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.CanApprove() {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("Only pending rides can be approved, current status is %s", rd.Status))
	}

	now := time.Now()
	rd.Status = ride.StatusApproved
	rd.ApprovedBy = &admin.ID
	rd.ApprovedAt = &now
	if driver != nil {
		rd.Driver = driver
	}

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to approve ride", err)
	}

	s.logger.Info("Ride approved",
		logger.String("ride_id", rd.ID.String()),
		logger.String("admin_id", admin.ID.String()),
	)
	if s.nr != nil {
		s.nr.RecordRideTransition(rd.ID.String(), string(ride.StatusPending), string(rd.Status))
	}
	s.auditor.Log(ctx, auditsvc.Entry{
		AdminID:       admin.ID,
		Action:        audit.ActionApproveRide,
		TargetType:    audit.TargetRide,
		TargetID:      &rd.ID,
		PreviousValue: string(ride.StatusPending),
		NewValue:      string(rd.Status),
		Success:       true,
	})
	s.broadcast("ride_approved", rd)

	return rd, nil
}

// Reject moves a pending ride to rejected. A reason is mandatory. Admin
// only; always audited.
func (s *Service) Reject(ctx context.Context, admin *user.User, rideID uuid.UUID, reason string) (*ride.Ride, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.Validation("Rejection reason is required").
			WithField("reason", "must not be blank")
	}
	if len(reason) > s.config.MaxReasonLen {
		return nil, apperrors.Validation("Invalid rejection reason").
			WithField("reason", fmt.Sprintf("must be at most %d characters", s.config.MaxReasonLen))
	}

	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.CanReject() {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("Only pending rides can be rejected, current status is %s", rd.Status))
	}

	now := time.Now()
	rd.Status = ride.StatusRejected
	rd.RejectedBy = &admin.ID
	rd.RejectedAt = &now
	rd.RejectionReason = reason

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to reject ride", err)
	}

	s.logger.Info("Ride rejected",
		logger.String("ride_id", rd.ID.String()),
		logger.String("admin_id", admin.ID.String()),
	)
	if s.nr != nil {
		s.nr.RecordRideTransition(rd.ID.String(), string(ride.StatusPending), string(rd.Status))
	}
	s.auditor.Log(ctx, auditsvc.Entry{
		AdminID:       admin.ID,
		Action:        audit.ActionRejectRide,
		TargetType:    audit.TargetRide,
		TargetID:      &rd.ID,
		Reason:        reason,
		PreviousValue: string(ride.StatusPending),
		NewValue:      string(rd.Status),
		Success:       true,
	})
	s.broadcast("ride_rejected", rd)

	return rd, nil
}

// Start moves an approved ride to in_progress. Admin only; audited.
func (s *Service) Start(ctx context.Context, admin *user.User, rideID uuid.UUID) (*ride.Ride, error) {
	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.CanStart() {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("Only approved rides can be started, current status is %s", rd.Status))
	}

	now := time.Now()
	rd.Status = ride.StatusInProgress
	rd.StartedAt = &now

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to start ride", err)
	}

	s.logger.Info("Ride started",
		logger.String("ride_id", rd.ID.String()),
		logger.String("admin_id", admin.ID.String()),
	)
	if s.nr != nil {
		s.nr.RecordRideTransition(rd.ID.String(), string(ride.StatusApproved), string(rd.Status))
	}
	s.auditor.Log(ctx, auditsvc.Entry{
		AdminID:       admin.ID,
		Action:        audit.ActionStartRide,
		TargetType:    audit.TargetRide,
		TargetID:      &rd.ID,
		PreviousValue: string(ride.StatusApproved),
		NewValue:      string(rd.Status),
		Success:       true,
	})
	s.broadcast("ride_started", rd)

	return rd, nil
}

// Complete moves an in_progress ride to completed and records the actual
// fare. Admin only; audited.
func (s *Service) Complete(ctx context.Context, admin *user.User, rideID uuid.UUID, actualFare float64) (*ride.Ride, error) {
	if actualFare < 0 {
		return nil, apperrors.Validation("Invalid actual fare").
			WithField("actual_fare", "must not be negative")
	}

	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.CanComplete() {
		return nil, apperrors.InvalidState(
			fmt.Sprintf("Only in_progress rides can be completed, current status is %s", rd.Status))
	}

	now := time.Now()
	rd.Status = ride.StatusCompleted
	rd.CompletedAt = &now
	rd.ActualFare = &actualFare

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to complete ride", err)
	}

	s.logger.Info("Ride completed",
		logger.String("ride_id", rd.ID.String()),
		logger.Float64("actual_fare", actualFare),
	)
	if s.nr != nil {
		s.nr.RecordRideCompleted(rd.ID.String(), actualFare)
	}
	s.auditor.Log(ctx, auditsvc.Entry{
		AdminID:       admin.ID,
		Action:        audit.ActionCompleteRide,
		TargetType:    audit.TargetRide,
		TargetID:      &rd.ID,
		Details:       fmt.Sprintf("actual fare %.2f", actualFare),
		PreviousValue: string(ride.StatusInProgress),
		NewValue:      string(rd.Status),
		Success:       true,
	})
	s.broadcast("ride_completed", rd)

	return rd, nil
}

// AttachFeedback records the owner's rating on a completed ride. Feedback
// may be attached exactly once.
func (s *Service) AttachFeedback(ctx context.Context, caller *user.User, rideID uuid.UUID, rating int, comment string) (*ride.Ride, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.Validation("Invalid rating").
			WithField("rating", "must be between 1 and 5")
	}

	rd, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !rd.IsOwnedBy(caller.ID) {
		return nil, apperrors.ErrNotRideOwner
	}
	if !rd.CanAttachFeedback() {
		if rd.Feedback != nil {
			return nil, apperrors.InvalidState("Feedback has already been submitted for this ride")
		}
		return nil, apperrors.ErrRideNotCompleted
	}

	rd.Feedback = &ride.Feedback{
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
		SubmittedAt: time.Now(),
	}

	if err := s.rides.Update(ctx, rd); err != nil {
		return nil, apperrors.Internal("Failed to save feedback", err)
	}

	s.logger.Info("Feedback attached",
		logger.String("ride_id", rd.ID.String()),
		logger.Int("rating", rating),
	)
	return rd, nil
}

// ListParams narrows and pages a ride listing
type ListParams struct {
	UserID     *uuid.UUID
	Status     *ride.Status
	From       *time.Time
	To         *time.Time
	Department string
	Page       int
	PageSize   int
}

// List returns a page of rides, newest-first. Non-admin callers are always
// scoped to their own rides regardless of the requested filter.
func (s *Service) List(ctx context.Context, caller *user.User, params ListParams) ([]*ride.Ride, int, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, 0, apperrors.Validation("Invalid status filter").
			WithField("status", "unknown ride status")
	}

	filter := ride.ListFilter{
		UserID:     params.UserID,
		Status:     params.Status,
		From:       params.From,
		To:         params.To,
		Department: params.Department,
	}
	if !caller.IsAdmin() {
		filter.UserID = &caller.ID
		filter.Department = ""
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = s.config.DefaultPageSize
	}
	if pageSize > s.config.MaxPageSize {
		pageSize = s.config.MaxPageSize
	}

	rides, total, err := s.rides.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.Internal("Failed to list rides", err)
	}
	return rides, total, nil
}

func (s *Service) getRide(ctx context.Context, rideID uuid.UUID) (*ride.Ride, error) {
	rd, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if err == ride.ErrRideNotFound {
			return nil, apperrors.ErrRideNotFound
		}
		return nil, apperrors.Internal("Failed to load ride", err)
	}
	return rd, nil
}

func (s *Service) validateRideFields(pickup, drop string, schedule time.Time) error {
	var fields []apperrors.FieldError

	pickup = strings.TrimSpace(pickup)
	drop = strings.TrimSpace(drop)
	if pickup == "" {
		fields = append(fields, apperrors.FieldError{Field: "pickup_location", Message: "must not be empty"})
	} else if len(pickup) > s.config.MaxLocationLen {
		fields = append(fields, apperrors.FieldError{
			Field:   "pickup_location",
			Message: fmt.Sprintf("must be at most %d characters", s.config.MaxLocationLen),
		})
	}
	if drop == "" {
		fields = append(fields, apperrors.FieldError{Field: "drop_location", Message: "must not be empty"})
	} else if len(drop) > s.config.MaxLocationLen {
		fields = append(fields, apperrors.FieldError{
			Field:   "drop_location",
			Message: fmt.Sprintf("must be at most %d characters", s.config.MaxLocationLen),
		})
	}
	// schedule_time == now must fail, only strictly future is allowed
	if !schedule.After(time.Now()) {
		fields = append(fields, apperrors.FieldError{Field: "schedule_time", Message: "must be in the future"})
	}

	if len(fields) > 0 {
		return apperrors.Validation("Invalid ride request", fields...)
	}
	return nil
}

func (s *Service) broadcast(eventType string, rd *ride.Ride) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(websocket.Event{Type: eventType, Data: rd})
}
