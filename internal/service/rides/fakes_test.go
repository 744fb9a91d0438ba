package rides

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/domain/audit"
	"github.com/commutehq/corp-rides/internal/domain/ride"
)

// memRideRepo is an in-memory ride.Repository for tests
type memRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*ride.Ride
}

func newMemRideRepo() *memRideRepo {
	return &memRideRepo{rides: make(map[uuid.UUID]*ride.Ride)}
}

func cloneRide(rd *ride.Ride) *ride.Ride {
	clone := *rd
	if rd.Driver != nil {
		d := *rd.Driver
		clone.Driver = &d
	}
	if rd.Feedback != nil {
		f := *rd.Feedback
		clone.Feedback = &f
	}
	return &clone
}

func (m *memRideRepo) Create(_ context.Context, rd *ride.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[rd.ID] = cloneRide(rd)
	return nil
}

func (m *memRideRepo) GetByID(_ context.Context, id uuid.UUID) (*ride.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rd, ok := m.rides[id]
	if !ok {
		return nil, ride.ErrRideNotFound
	}
	return cloneRide(rd), nil
}

func (m *memRideRepo) Update(_ context.Context, rd *ride.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[rd.ID]; !ok {
		return ride.ErrRideNotFound
	}
	m.rides[rd.ID] = cloneRide(rd)
	return nil
}

func (m *memRideRepo) List(_ context.Context, filter ride.ListFilter, page, pageSize int) ([]*ride.Ride, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*ride.Ride
	for _, rd := range m.rides {
		if filter.UserID != nil && rd.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && rd.Status != *filter.Status {
			continue
		}
		if filter.From != nil && rd.ScheduleTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rd.ScheduleTime.After(*filter.To) {
			continue
		}
		matched = append(matched, cloneRide(rd))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memRideRepo) CountByStatus(_ context.Context) (ride.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := ride.StatusCounts{}
	for _, rd := range m.rides {
		counts[rd.Status]++
	}
	return counts, nil
}

func (m *memRideRepo) CountByDepartment(_ context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *memRideRepo) FareStats(_ context.Context) (*ride.FareStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &ride.FareStats{}
	for _, rd := range m.rides {
		if rd.Status == ride.StatusCompleted && rd.ActualFare != nil {
			stats.TotalActualFare += *rd.ActualFare
			stats.CompletedRides++
		}
	}
	if stats.CompletedRides > 0 {
		stats.AverageActualFare = stats.TotalActualFare / float64(stats.CompletedRides)
	}
	return stats, nil
}

// memAuditRepo is an in-memory audit.Repository for tests
type memAuditRepo struct {
	mu      sync.Mutex
	actions []*audit.Action
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{}
}

func (m *memAuditRepo) Create(_ context.Context, a *audit.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *a
	m.actions = append(m.actions, &clone)
	return nil
}

func (m *memAuditRepo) Query(_ context.Context, filter audit.QueryFilter, page, pageSize int) ([]*audit.Action, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*audit.Action
	for _, a := range m.actions {
		if filter.AdminID != nil && a.AdminID != *filter.AdminID {
			continue
		}
		if filter.Action != nil && a.Action != *filter.Action {
			continue
		}
		clone := *a
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// byAction returns recorded actions of one type
func (m *memAuditRepo) byAction(action audit.ActionType) []*audit.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*audit.Action
	for _, a := range m.actions {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}
