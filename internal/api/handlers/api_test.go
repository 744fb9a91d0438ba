package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commutehq/corp-rides/internal/api/handlers"
	"github.com/commutehq/corp-rides/internal/api/routes"
	"github.com/commutehq/corp-rides/internal/domain/audit"
	"github.com/commutehq/corp-rides/internal/domain/ride"
	"github.com/commutehq/corp-rides/internal/domain/user"
	analyticssvc "github.com/commutehq/corp-rides/internal/service/analytics"
	auditsvc "github.com/commutehq/corp-rides/internal/service/audit"
	authsvc "github.com/commutehq/corp-rides/internal/service/auth"
	ridesvc "github.com/commutehq/corp-rides/internal/service/rides"
	userssvc "github.com/commutehq/corp-rides/internal/service/users"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/monitoring"
	"github.com/commutehq/corp-rides/pkg/websocket"
)

// In-memory repositories backing the full HTTP stack under test.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
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
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
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
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *memUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID) error { return nil }

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
		clone := *u
		all = append(all, &clone)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, len(all), nil
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

// setRole flips a stored user's role, for seeding admins
func (m *memUserRepo) setRole(id uuid.UUID, role user.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.Role = role
	}
}

type memRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*ride.Ride
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
		matched = append(matched, cloneRide(rd))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return matched, len(matched), nil
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
	return &ride.FareStats{}, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	actions []*audit.Action
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
		if filter.Action != nil && a.Action != *filter.Action {
			continue
		}
		clone := *a
		matched = append(matched, &clone)
	}
	return matched, len(matched), nil
}

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

type testServer struct {
	router    *gin.Engine
	userRepo  *memUserRepo
	rideRepo  *memRideRepo
	auditRepo *memAuditRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	nr, err := monitoring.New(monitoring.Config{Enabled: false})
	require.NoError(t, err)

	userRepo := &memUserRepo{users: make(map[uuid.UUID]*user.User)}
	rideRepo := &memRideRepo{rides: make(map[uuid.UUID]*ride.Ride)}
	auditRepo := &memAuditRepo{}

	hub := websocket.NewHub(log)
	go hub.Run()

	auditor := auditsvc.NewRecorder(auditRepo, log, nr)
	tokens := authsvc.NewTokenManager("api-test-secret", time.Hour)
	authService := authsvc.NewService(userRepo, tokens, nil, log, nr, 0)
	usersService := userssvc.NewService(userRepo, auditor, log)
	ridesService := ridesvc.NewService(rideRepo, auditor, hub, log, nr, ridesvc.Config{BaseFare: 150})
	analyticsService := analyticssvc.NewService(rideRepo, userRepo, auditor, nil, log, 0)

	h := handlers.NewHandlers(authService, usersService, ridesService, auditor, analyticsService, hub, log)

	router := gin.New()
	routes.SetupRoutes(router, h, authService, log, nil)

	return &testServer{
		router:    router,
		userRepo:  userRepo,
		rideRepo:  rideRepo,
		auditRepo: auditRepo,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(data)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (ts *testServer) register(t *testing.T, email, employeeID string) {
	t.Helper()
	w, _ := ts.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":       email,
		"employee_id": employeeID,
		"first_name":  "Test",
		"last_name":   "User",
		"department":  "Engineering",
		"password":    "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// registerAdmin registers a user and promotes it to admin before login
func (ts *testServer) registerAdmin(t *testing.T, email, employeeID string) string {
	t.Helper()
	ts.register(t, email, employeeID)
	u, err := ts.userRepo.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	ts.userRepo.setRole(u.ID, user.RoleAdmin)
	return ts.login(t, email)
}

func TestEmployeeBooksRide(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "alice@co.com", "EMP-1001")
	token := ts.login(t, "alice@co.com")

	w, env := ts.do(t, http.MethodPost, "/api/rides", token, gin.H{
		"pickup_location": "HQ Tower A",
		"drop_location":   "Airport Terminal 2",
		"schedule_time":   time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created ride.Ride
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, ride.StatusPending, created.Status)
	assert.Equal(t, 150.0, created.EstimatedFare)

	// The owner can read it back
	w, env = ts.do(t, http.MethodGet, "/api/rides/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched ride.Ride
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, ride.StatusPending, fetched.Status)

	// And it shows up in the owner's list
	w, env = ts.do(t, http.MethodGet, "/api/rides", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Items []ride.Ride `json:"items"`
		Total int         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
}

func TestAdminApprovesRide(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "alice@co.com", "EMP-1001")
	aliceToken := ts.login(t, "alice@co.com")
	adminToken := ts.registerAdmin(t, "admin@co.com", "EMP-0001")

	_, env := ts.do(t, http.MethodPost, "/api/rides", aliceToken, gin.H{
		"pickup_location": "HQ Tower A",
		"drop_location":   "Airport Terminal 2",
		"schedule_time":   time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	var created ride.Ride
	require.NoError(t, json.Unmarshal(env.Data, &created))

	// Alice is not allowed on the approval endpoint
	w, _ := ts.do(t, http.MethodPut, "/api/admin/rides/"+created.ID.String()+"/approve", aliceToken, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The admin approves with a driver
	w, env = ts.do(t, http.MethodPut, "/api/admin/rides/"+created.ID.String()+"/approve", adminToken, gin.H{
		"driver": gin.H{"name": "Ravi", "phone": "555-0101", "vehicle": "Sedan KA-01", "rating": 4.8},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var approved ride.Ride
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, ride.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.NotNil(t, approved.Driver)
	assert.Equal(t, "Ravi", approved.Driver.Name)

	// Exactly one approval entry in the audit trail
	entries := ts.auditRepo.byAction(audit.ActionApproveRide)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].TargetID)
	assert.Equal(t, created.ID, *entries[0].TargetID)
	assert.NotEmpty(t, entries[0].IP)

	// A second approval is refused
	w, _ = ts.do(t, http.MethodPut, "/api/admin/rides/"+created.ID.String()+"/approve", adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, ts.auditRepo.byAction(audit.ActionApproveRide), 1)
}

func TestRejectWithoutReason(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "alice@co.com", "EMP-1001")
	aliceToken := ts.login(t, "alice@co.com")
	adminToken := ts.registerAdmin(t, "admin@co.com", "EMP-0001")

	_, env := ts.do(t, http.MethodPost, "/api/rides", aliceToken, gin.H{
		"pickup_location": "HQ Tower A",
		"drop_location":   "Airport Terminal 2",
		"schedule_time":   time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	var created ride.Ride
	require.NoError(t, json.Unmarshal(env.Data, &created))

	// Missing reason fails binding and the ride stays pending
	w, _ := ts.do(t, http.MethodPut, "/api/admin/rides/"+created.ID.String()+"/reject", adminToken, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := ts.rideRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusPending, stored.Status)
	assert.Empty(t, ts.auditRepo.byAction(audit.ActionRejectRide))
}

func TestUnauthenticatedRequests(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodGet, "/api/rides", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/admin/analytics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAnalyticsAndActions(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "alice@co.com", "EMP-1001")
	aliceToken := ts.login(t, "alice@co.com")
	adminToken := ts.registerAdmin(t, "admin@co.com", "EMP-0001")

	_, env := ts.do(t, http.MethodPost, "/api/rides", aliceToken, gin.H{
		"pickup_location": "HQ Tower A",
		"drop_location":   "Airport Terminal 2",
		"schedule_time":   time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	var created ride.Ride
	require.NoError(t, json.Unmarshal(env.Data, &created))

	w, env := ts.do(t, http.MethodGet, "/api/admin/analytics", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary analyticssvc.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.TotalRides)
	assert.Equal(t, 1, summary.RidesByStatus[ride.StatusPending])

	// The analytics view itself lands in the audit trail
	require.Len(t, ts.auditRepo.byAction(audit.ActionViewAnalytics), 1)

	w, _ = ts.do(t, http.MethodGet, fmt.Sprintf("/api/admin/actions?page=%d", 1), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ts.auditRepo.byAction(audit.ActionViewAuditTrail), 1)
}
