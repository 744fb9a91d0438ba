package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/domain/ride"
)

// RideRepository implements ride.Repository on PostgreSQL
type RideRepository struct {
	db *sql.DB
}

// NewRideRepository creates a new ride repository
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

const rideColumns = `id, user_id, pickup_location, drop_location, schedule_time, status,
	estimated_fare, actual_fare,
	driver_name, driver_phone, driver_vehicle, driver_rating,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	cancelled_by, cancelled_at, cancellation_reason,
	started_at, completed_at,
	feedback_rating, feedback_comment, feedback_submitted_at,
	created_at, updated_at`

func (r *RideRepository) Create(ctx context.Context, rd *ride.Ride) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rides (
			id, user_id, pickup_location, drop_location, schedule_time,
			status, estimated_fare, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rd.ID, rd.UserID, rd.PickupLocation, rd.DropLocation, rd.ScheduleTime,
		rd.Status, rd.EstimatedFare, rd.CreatedAt, rd.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ride: %w", err)
	}
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	return scanRide(row)
}

// Update writes the full ride document back in a single statement, relying
// on the row-level atomicity of the UPDATE.
func (r *RideRepository) Update(ctx context.Context, rd *ride.Ride) error {
	rd.UpdatedAt = time.Now()

	var driverName, driverPhone, driverVehicle sql.NullString
	var driverRating sql.NullFloat64
	if rd.Driver != nil {
		driverName = sql.NullString{String: rd.Driver.Name, Valid: true}
		driverPhone = sql.NullString{String: rd.Driver.Phone, Valid: true}
		driverVehicle = sql.NullString{String: rd.Driver.Vehicle, Valid: true}
		driverRating = sql.NullFloat64{Float64: rd.Driver.Rating, Valid: true}
	}

	var fbRating sql.NullInt64
	var fbComment sql.NullString
	var fbSubmittedAt sql.NullTime
	if rd.Feedback != nil {
		fbRating = sql.NullInt64{Int64: int64(rd.Feedback.Rating), Valid: true}
		fbComment = sql.NullString{String: rd.Feedback.Comment, Valid: true}
		fbSubmittedAt = sql.NullTime{Time: rd.Feedback.SubmittedAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE rides SET
			pickup_location = $2, drop_location = $3, schedule_time = $4,
			status = $5, estimated_fare = $6, actual_fare = $7,
			driver_name = $8, driver_phone = $9, driver_vehicle = $10, driver_rating = $11,
			approved_by = $12, approved_at = $13,
			rejected_by = $14, rejected_at = $15, rejection_reason = $16,
			cancelled_by = $17, cancelled_at = $18, cancellation_reason = $19,
			started_at = $20, completed_at = $21,
			feedback_rating = $22, feedback_comment = $23, feedback_submitted_at = $24,
			updated_at = $25
		WHERE id = $1
	`, rd.ID, rd.PickupLocation, rd.DropLocation, rd.ScheduleTime,
		rd.Status, rd.EstimatedFare, rd.ActualFare,
		driverName, driverPhone, driverVehicle, driverRating,
		rd.ApprovedBy, rd.ApprovedAt,
		rd.RejectedBy, rd.RejectedAt, nullString(rd.RejectionReason),
		rd.CancelledBy, rd.CancelledAt, nullString(rd.CancellationReason),
		rd.StartedAt, rd.CompletedAt,
		fbRating, fbComment, fbSubmittedAt,
		rd.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}
	return checkAffected(res, ride.ErrRideNotFound)
}

func (r *RideRepository) List(ctx context.Context, filter ride.ListFilter, page, pageSize int) ([]*ride.Ride, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != nil {
		where += " AND r.user_id = " + arg(*filter.UserID)
	}
	if filter.Status != nil {
		where += " AND r.status = " + arg(*filter.Status)
	}
	if filter.From != nil {
		where += " AND r.schedule_time >= " + arg(*filter.From)
	}
	if filter.To != nil {
		where += " AND r.schedule_time <= " + arg(*filter.To)
	}
	if filter.Department != "" {
		where += " AND r.user_id IN (SELECT id FROM users WHERE department = " + arg(filter.Department) + ")"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM rides r " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	query := "SELECT " + rideColumns + " FROM rides r " + where +
		" ORDER BY r.created_at DESC LIMIT " + arg(pageSize) + " OFFSET " + arg((page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	defer rows.Close()

	var rides []*ride.Ride
	for rows.Next() {
		rd, err := scanRide(rows)
		if err != nil {
			return nil, 0, err
		}
		rides = append(rides, rd)
	}
	return rides, total, rows.Err()
}

func (r *RideRepository) CountByStatus(ctx context.Context) (ride.StatusCounts, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM rides GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count rides by status: %w", err)
	}
	defer rows.Close()

	counts := ride.StatusCounts{}
	for rows.Next() {
		var status ride.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *RideRepository) CountByDepartment(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.department, COUNT(*)
		FROM rides r
		JOIN users u ON r.user_id = u.id
		GROUP BY u.department
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count rides by department: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var dept string
		var count int
		if err := rows.Scan(&dept, &count); err != nil {
			return nil, fmt.Errorf("failed to scan department count: %w", err)
		}
		counts[dept] = count
	}
	return counts, rows.Err()
}

func (r *RideRepository) FareStats(ctx context.Context) (*ride.FareStats, error) {
	var stats ride.FareStats
	var total, avg sql.NullFloat64

	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(actual_fare), 0), COALESCE(AVG(actual_fare), 0), COUNT(*)
		FROM rides
		WHERE status = 'completed' AND actual_fare IS NOT NULL
	`).Scan(&total, &avg, &stats.CompletedRides)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate fares: %w", err)
	}

	stats.TotalActualFare = total.Float64
	stats.AverageActualFare = avg.Float64
	return &stats, nil
}

func scanRide(row rowScanner) (*ride.Ride, error) {
	var rd ride.Ride
	var actualFare, driverRating sql.NullFloat64
	var driverName, driverPhone, driverVehicle sql.NullString
	var rejectionReason, cancellationReason, fbComment sql.NullString
	var approvedBy, rejectedBy, cancelledBy uuid.NullUUID
	var approvedAt, rejectedAt, cancelledAt, startedAt, completedAt, fbSubmittedAt sql.NullTime
	var fbRating sql.NullInt64

	err := row.Scan(
		&rd.ID, &rd.UserID, &rd.PickupLocation, &rd.DropLocation, &rd.ScheduleTime, &rd.Status,
		&rd.EstimatedFare, &actualFare,
		&driverName, &driverPhone, &driverVehicle, &driverRating,
		&approvedBy, &approvedAt, &rejectedBy, &rejectedAt, &rejectionReason,
		&cancelledBy, &cancelledAt, &cancellationReason,
		&startedAt, &completedAt,
		&fbRating, &fbComment, &fbSubmittedAt,
		&rd.CreatedAt, &rd.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ride.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ride: %w", err)
	}

	if actualFare.Valid {
		rd.ActualFare = &actualFare.Float64
	}
	if driverName.Valid {
		rd.Driver = &ride.DriverInfo{
			Name:    driverName.String,
			Phone:   driverPhone.String,
			Vehicle: driverVehicle.String,
			Rating:  driverRating.Float64,
		}
	}
	if approvedBy.Valid {
		rd.ApprovedBy = &approvedBy.UUID
	}
	if approvedAt.Valid {
		rd.ApprovedAt = &approvedAt.Time
	}
	if rejectedBy.Valid {
		rd.RejectedBy = &rejectedBy.UUID
	}
	if rejectedAt.Valid {
		rd.RejectedAt = &rejectedAt.Time
	}
	rd.RejectionReason = rejectionReason.String
	if cancelledBy.Valid {
		rd.CancelledBy = &cancelledBy.UUID
	}
	if cancelledAt.Valid {
		rd.CancelledAt = &cancelledAt.Time
	}
	rd.CancellationReason = cancellationReason.String
	if startedAt.Valid {
		rd.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		rd.CompletedAt = &completedAt.Time
	}
	if fbRating.Valid {
		rd.Feedback = &ride.Feedback{
			Rating:      int(fbRating.Int64),
			Comment:     fbComment.String,
			SubmittedAt: fbSubmittedAt.Time,
		}
	}
	return &rd, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
