package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/domain/audit"
)

// ActionRepository implements audit.Repository on PostgreSQL. The table is
// insert-only; there are deliberately no UPDATE or DELETE statements here.
type ActionRepository struct {
	db *sql.DB
}

// NewActionRepository creates a new audit action repository
func NewActionRepository(db *sql.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

const actionColumns = `id, admin_id, action, target_type, target_id, details, reason,
	previous_value, new_value, ip, user_agent, success, error_message, created_at`

func (r *ActionRepository) Create(ctx context.Context, a *audit.Action) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_actions (
			id, admin_id, action, target_type, target_id, details, reason,
			previous_value, new_value, ip, user_agent, success, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, a.ID, a.AdminID, a.Action, a.TargetType, a.TargetID,
		nullString(a.Details), nullString(a.Reason),
		nullString(a.PreviousValue), nullString(a.NewValue),
		nullString(a.IP), nullString(a.UserAgent),
		a.Success, nullString(a.ErrorMessage), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert admin action: %w", err)
	}
	return nil
}

func (r *ActionRepository) Query(ctx context.Context, filter audit.QueryFilter, page, pageSize int) ([]*audit.Action, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AdminID != nil {
		where += " AND admin_id = " + arg(*filter.AdminID)
	}
	if filter.Action != nil {
		where += " AND action = " + arg(*filter.Action)
	}
	if filter.From != nil {
		where += " AND created_at >= " + arg(*filter.From)
	}
	if filter.To != nil {
		where += " AND created_at <= " + arg(*filter.To)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_actions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count admin actions: %w", err)
	}

	query := "SELECT " + actionColumns + " FROM admin_actions " + where +
		" ORDER BY created_at DESC LIMIT " + arg(pageSize) + " OFFSET " + arg((page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query admin actions: %w", err)
	}
	defer rows.Close()

	var actions []*audit.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, 0, err
		}
		actions = append(actions, a)
	}
	return actions, total, rows.Err()
}

func scanAction(row rowScanner) (*audit.Action, error) {
	var a audit.Action
	var targetID uuid.NullUUID
	var details, reason, prev, next, ip, userAgent, errMsg sql.NullString

	err := row.Scan(
		&a.ID, &a.AdminID, &a.Action, &a.TargetType, &targetID,
		&details, &reason, &prev, &next, &ip, &userAgent,
		&a.Success, &errMsg, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, audit.ErrActionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan admin action: %w", err)
	}

	if targetID.Valid {
		a.TargetID = &targetID.UUID
	}
	a.Details = details.String
	a.Reason = reason.String
	a.PreviousValue = prev.String
	a.NewValue = next.String
	a.IP = ip.String
	a.UserAgent = userAgent.String
	a.ErrorMessage = errMsg.String
	return &a, nil
}
