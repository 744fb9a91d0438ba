package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commutehq/corp-rides/internal/domain/audit"
	"github.com/commutehq/corp-rides/internal/domain/ride"
	"github.com/commutehq/corp-rides/internal/domain/user"
	auditsvc "github.com/commutehq/corp-rides/internal/service/audit"
	apperrors "github.com/commutehq/corp-rides/pkg/errors"
	"github.com/commutehq/corp-rides/pkg/logger"
)

const cacheKey = "analytics:summary"

// Summary is the aggregate view exposed to admins
type Summary struct {
	TotalRides        int               `json:"total_rides"`
	RidesByStatus     ride.StatusCounts `json:"rides_by_status"`
	RidesByDepartment map[string]int    `json:"rides_by_department"`
	FareStats         *ride.FareStats   `json:"fare_stats"`
	TotalEmployees    int               `json:"total_employees"`
	TotalAdmins       int               `json:"total_admins"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// Service computes aggregate ride analytics, with a short-TTL Redis cache
// in front of the aggregation queries
type Service struct {
	rides   ride.Repository
	users   user.Repository
	auditor *auditsvc.Recorder
	redis   *redis.Client
	logger  *logger.Logger
	ttl     time.Duration
}

// NewService creates a new analytics service
func NewService(rides ride.Repository, users user.Repository, auditor *auditsvc.Recorder, redisClient *redis.Client, logger *logger.Logger, ttl time.Duration) *Service {
	if ttl == 0 {
		ttl = time.Minute
	}
	return &Service{
		rides:   rides,
		users:   users,
		auditor: auditor,
		redis:   redisClient,
		logger:  logger,
		ttl:     ttl,
	}
}

// Summary returns the aggregate view, recording a view_analytics audit
// action for the requesting admin
func (s *Service) Summary(ctx context.Context, admin *user.User) (*Summary, error) {
	summary, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, auditsvc.Entry{
		AdminID:    admin.ID,
		Action:     audit.ActionViewAnalytics,
		TargetType: audit.TargetAnalytics,
		Success:    true,
	})
	return summary, nil
}

func (s *Service) load(ctx context.Context) (*Summary, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var summary Summary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	statusCounts, err := s.rides.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to aggregate ride statuses", err)
	}
	deptCounts, err := s.rides.CountByDepartment(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to aggregate departments", err)
	}
	fareStats, err := s.rides.FareStats(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to aggregate fares", err)
	}
	employees, err := s.users.CountByRole(ctx, user.RoleEmployee)
	if err != nil {
		return nil, apperrors.Internal("Failed to count employees", err)
	}
	admins, err := s.users.CountByRole(ctx, user.RoleAdmin)
	if err != nil {
		return nil, apperrors.Internal("Failed to count admins", err)
	}

	total := 0
	for _, count := range statusCounts {
		total += count
	}

	summary := &Summary{
		TotalRides:        total,
		RidesByStatus:     statusCounts,
		RidesByDepartment: deptCounts,
		FareStats:         fareStats,
		TotalEmployees:    employees,
		TotalAdmins:       admins,
		GeneratedAt:       time.Now(),
	}

	if s.redis != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
				s.logger.Warn("Failed to cache analytics summary", logger.Err(err))
			}
		}
	}
	return summary, nil
}
