package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/domain/user"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/monitoring"
)

// memUserRepo is an in-memory user.Repository for tests
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func cloneUser(u *user.User) *user.User {
	clone := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		clone.LastLoginAt = &t
	}
	return &clone
}

func (m *memUserRepo) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrDuplicateEmail
		}
		if existing.EmployeeID == u.EmployeeID {
			return user.ErrDuplicateEmployee
		}
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *memUserRepo) Update(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *memUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return user.ErrUserNotFound
	}
	return nil
}

func (m *memUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Active = active
	return nil
}

func (m *memUserRepo) List(_ context.Context, page, pageSize int) ([]*user.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []*user.User
	for _, u := range m.users {
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (m *memUserRepo) CountByRole(_ context.Context, role user.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func newTestService(repo *memUserRepo) *Service {
	nr, _ := monitoring.New(monitoring.Config{Enabled: false})
	tokens := NewTokenManager("test-secret-not-for-production", time.Hour)
	return NewService(repo, tokens, nil, logger.NewNop(), nr, 0)
}
