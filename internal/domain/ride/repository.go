package ride

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors
var (
	ErrRideNotFound  = errors.New("ride not found")
	ErrInvalidStatus = errors.New("invalid status transition")
)

// ListFilter narrows List results. A nil field means "no constraint";
// non-admin callers always get UserID forced to their own id.
type ListFilter struct {
	UserID     *uuid.UUID
	Status     *Status
	From       *time.Time
	To         *time.Time
	Department string
}

// StatusCounts aggregates ride counts per status
type StatusCounts map[Status]int

// FareStats aggregates fares over completed rides
type FareStats struct {
	TotalActualFare   float64 `json:"total_actual_fare"`
	AverageActualFare float64 `json:"average_actual_fare"`
	CompletedRides    int     `json:"completed_rides"`
}

// Repository defines the interface for ride data access
type Repository interface {
	// Create inserts a new ride
	Create(ctx context.Context, ride *Ride) error

	// GetByID retrieves a ride by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)

	// Update writes the full ride document back as one atomic update
	Update(ctx context.Context, ride *Ride) error

	// List returns a page of rides matching the filter, newest-first,
	// together with the total match count
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]*Ride, int, error)

	// CountByStatus aggregates ride counts per status
	CountByStatus(ctx context.Context) (StatusCounts, error)

	// CountByDepartment aggregates ride counts per owning user's department
	CountByDepartment(ctx context.Context) (map[string]int, error)

	// FareStats aggregates actual fares over completed rides
	FareStats(ctx context.Context) (*FareStats, error)
}
