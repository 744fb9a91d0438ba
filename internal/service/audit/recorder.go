package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/domain/audit"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/monitoring"
)

// Recorder appends admin actions to the audit trail. Writes are
// best-effort: a failed append is logged and counted but never fails the
// business operation that triggered it.
type Recorder struct {
	repo   audit.Repository
	logger *logger.Logger
	nr     *monitoring.NewRelicApp
}

// Entry describes one action to record
type Entry struct {
	AdminID       uuid.UUID
	Action        audit.ActionType
	TargetType    audit.TargetType
	TargetID      *uuid.UUID
	Details       string
	Reason        string
	PreviousValue string
	NewValue      string
	Success       bool
	ErrorMessage  string
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo audit.Repository, logger *logger.Logger, nr *monitoring.NewRelicApp) *Recorder {
	return &Recorder{repo: repo, logger: logger, nr: nr}
}

// Log appends one audit record. It never returns an error.
func (r *Recorder) Log(ctx context.Context, entry Entry) {
	meta := MetaFromContext(ctx)

	record := &audit.Action{
		ID:            uuid.New(),
		AdminID:       entry.AdminID,
		Action:        entry.Action,
		TargetType:    entry.TargetType,
		TargetID:      entry.TargetID,
		Details:       entry.Details,
		Reason:        entry.Reason,
		PreviousValue: entry.PreviousValue,
		NewValue:      entry.NewValue,
		IP:            meta.IP,
		UserAgent:     meta.UserAgent,
		Success:       entry.Success,
		ErrorMessage:  entry.ErrorMessage,
		CreatedAt:     time.Now(),
	}

	if err := r.repo.Create(ctx, record); err != nil {
		r.logger.Error("Failed to write audit record",
			logger.Err(err),
			logger.String("admin_id", entry.AdminID.String()),
			logger.String("action", string(entry.Action)),
		)
		if r.nr != nil {
			r.nr.RecordAuditWriteFailure()
		}
	}
}

// Query returns a page of audit records, newest-first
func (r *Recorder) Query(ctx context.Context, filter audit.QueryFilter, page, pageSize int) ([]*audit.Action, int, error) {
	return r.repo.Query(ctx, filter, page, pageSize)
}
