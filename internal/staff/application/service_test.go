package application_test

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/philly/school-finance/backend/internal/platform/apperror"
	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/staff/application"
	"github.com/philly/school-finance/backend/internal/staff/domain"
	"github.com/philly/school-finance/backend/internal/staff/ports"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (mockLogger) Error(ctx context.Context, msg string, args ...any) {}

type fakeStaffRepo struct {
	mu    sync.Mutex
	staff map[uuid.UUID]*domain.Staff
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staff: make(map[uuid.UUID]*domain.Staff)}
}

func (r *fakeStaffRepo) Create(ctx context.Context, s *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.staff[s.ID] = &cp
	return nil
}

func (r *fakeStaffRepo) Update(ctx context.Context, s *domain.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[s.ID]; !ok {
		return ports.ErrStaffNotFound
	}
	cp := *s
	r.staff[s.ID] = &cp
	return nil
}

func (r *fakeStaffRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return nil, ports.ErrStaffNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStaffRepo) FindByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.staff {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ports.ErrStaffNotFound
}

func (r *fakeStaffRepo) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Staff
	for _, s := range r.staff {
		if filter.ActiveOnly && !s.Active {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeStaffRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(ctx context.Context, s *domain.Staff) (string, time.Time, error) {
	return "token-" + s.ID.String(), time.Now().Add(time.Hour), nil
}

func newService(t *testing.T) (*application.StaffService, *fakeStaffRepo, *eventbus.Bus) {
	t.Helper()
	repo := newFakeStaffRepo()
	bus := eventbus.NewBus(mockLogger{})
	return application.NewStaffService(repo, fakeIssuer{}, bus, mockLogger{}), repo, bus
}

func validParams() application.CreateStaffParams {
	return application.CreateStaffParams{
		Email:         "ana@school.edu",
		FullName:      "Ana Cruz",
		Role:          "bursar",
		MonthlySalary: 250000,
		Password:      "correct-horse",
	}
}

func TestCreateStaffHashesPasswordAndNotifies(t *testing.T) {
	svc, repo, bus := newService(t)

	var created []events.StaffCreatedEvent
	bus.Subscribe(events.StaffCreatedTopic, func(ctx context.Context, env eventbus.Envelope) error {
		created = append(created, env.Data.(events.StaffCreatedEvent))
		return nil
	})

	staff, err := svc.CreateStaff(context.Background(), validParams())
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))

	require.Len(t, created, 1)
	assert.Equal(t, staff.ID, created[0].StaffID)
	assert.Equal(t, "bursar", created[0].Role)
}

func TestCreateStaffRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *application.CreateStaffParams)
	}{
		{"bad role", func(p *application.CreateStaffParams) { p.Role = "janitor" }},
		{"short password", func(p *application.CreateStaffParams) { p.Password = "short" }},
		{"bad email", func(p *application.CreateStaffParams) { p.Email = "nope" }},
		{"negative salary", func(p *application.CreateStaffParams) { p.MonthlySalary = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newService(t)
			p := validParams()
			tt.mutate(&p)

			_, err := svc.CreateStaff(context.Background(), p)
			require.Error(t, err)
			assert.ErrorIs(t, err, application.ErrInvalidStaffData)
		})
	}
}

func TestCreateStaffDuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.CreateStaff(context.Background(), validParams())
	require.NoError(t, err)

	p := validParams()
	p.Email = "ANA@school.edu"
	_, err = svc.CreateStaff(context.Background(), p)
	assert.ErrorIs(t, err, application.ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newService(t)
	staff, err := svc.CreateStaff(context.Background(), validParams())
	require.NoError(t, err)

	res, err := svc.Authenticate(context.Background(), " Ana@School.edu", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "token-"+staff.ID.String(), res.Token)

	_, err = svc.Authenticate(context.Background(), "ana@school.edu", "wrong-password")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@school.edu", "correct-horse")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)

	_, err = svc.DeactivateStaff(context.Background(), uuid.New(), staff.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "ana@school.edu", "correct-horse")
	assert.ErrorIs(t, err, application.ErrInvalidCredentials)
}

func TestDeactivateStaff(t *testing.T) {
	svc, _, bus := newService(t)
	staff, err := svc.CreateStaff(context.Background(), validParams())
	require.NoError(t, err)

	notified := 0
	bus.Subscribe(events.StaffDeactivatedTopic, func(ctx context.Context, env eventbus.Envelope) error {
		notified++
		return nil
	})

	actor := uuid.New()
	got, err := svc.DeactivateStaff(context.Background(), actor, staff.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, 1, notified)

	_, err = svc.DeactivateStaff(context.Background(), actor, staff.ID)
	assert.ErrorIs(t, err, application.ErrStaffInactive)
	assert.Equal(t, 1, notified)

	_, err = svc.DeactivateStaff(context.Background(), actor, uuid.New())
	assert.ErrorIs(t, err, application.ErrStaffNotFound)
}

func TestUpdateStaff(t *testing.T) {
	svc, _, _ := newService(t)
	staff, err := svc.CreateStaff(context.Background(), validParams())
	require.NoError(t, err)

	salary := int64(300000)
	got, err := svc.UpdateStaff(context.Background(), staff.ID, application.UpdateStaffParams{
		Role:          "admin",
		MonthlySalary: &salary,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, int64(300000), got.MonthlySalary)
	assert.Equal(t, "Ana Cruz", got.FullName)
}

func TestStaffResponders(t *testing.T) {
	svc, _, bus := newService(t)
	application.RegisterStaffResponders(bus, svc)
	coord := eventbus.NewCoordinator(bus, mockLogger{}, eventbus.CoordinatorConfig{DefaultTimeout: time.Second})
	ctx := context.Background()

	ana, err := svc.CreateStaff(ctx, validParams())
	require.NoError(t, err)
	p := validParams()
	p.Email = "ben@school.edu"
	p.Role = "teacher"
	ben, err := svc.CreateStaff(ctx, p)
	require.NoError(t, err)
	_, err = svc.DeactivateStaff(ctx, ana.ID, ben.ID)
	require.NoError(t, err)

	t.Run("member", func(t *testing.T) {
		m, err := eventbus.Request[events.StaffMember](ctx, coord, eventbus.Call{
			Exchange: events.StaffMemberExchange,
			Payload:  events.StaffMemberRequest{StaffID: ana.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "ana@school.edu", m.Email)
		assert.Equal(t, int64(250000), m.MonthlySalary)
	})

	t.Run("member not found", func(t *testing.T) {
		_, err := eventbus.Request[events.StaffMember](ctx, coord, eventbus.Call{
			Exchange: events.StaffMemberExchange,
			Payload:  events.StaffMemberRequest{StaffID: uuid.New()},
		})
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
		assert.Equal(t, apperror.BusinessCodeStaffNotFound, appErr.BusinessCode)
	})

	t.Run("lookup", func(t *testing.T) {
		m, err := eventbus.Request[events.StaffMember](ctx, coord, eventbus.Call{
			Exchange: events.StaffLookupExchange,
			Payload:  events.StaffLookupRequest{Email: strings.ToUpper("ben@school.edu")},
		})
		require.NoError(t, err)
		assert.Equal(t, ben.ID, m.ID)
		assert.False(t, m.Active)
	})

	t.Run("active", func(t *testing.T) {
		active, err := eventbus.Request[events.ActiveStaff](ctx, coord, eventbus.Call{
			Exchange: events.ActiveStaffExchange,
			Payload:  events.ActiveStaffRequest{},
		})
		require.NoError(t, err)
		require.Len(t, active.Members, 1)
		assert.Equal(t, ana.ID, active.Members[0].ID)
	})

	t.Run("role", func(t *testing.T) {
		role, err := eventbus.Request[events.StaffRole](ctx, coord, eventbus.Call{
			Exchange: events.StaffRoleExchange,
			Payload:  events.StaffRoleRequest{StaffID: ana.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "bursar", role.Role)
		assert.True(t, role.Active)
	})

	assert.Equal(t, 0, bus.HandlerCount(events.StaffMemberExchange.Response))
}

func TestRegisteringRespondersTwiceKeepsOneResponder(t *testing.T) {
	svc, _, bus := newService(t)
	application.RegisterStaffResponders(bus, svc)
	application.RegisterStaffResponders(bus, svc)

	for _, ex := range []eventbus.Exchange{
		events.StaffMemberExchange,
		events.StaffLookupExchange,
		events.ActiveStaffExchange,
		events.StaffRoleExchange,
	} {
		assert.Equal(t, 1, bus.HandlerCount(ex.Request), ex.Request)
	}

	coord := eventbus.NewCoordinator(bus, mockLogger{}, eventbus.CoordinatorConfig{DefaultTimeout: time.Second})
	_, err := eventbus.Request[events.ActiveStaff](context.Background(), coord, eventbus.Call{
		Exchange: events.ActiveStaffExchange,
		Payload:  events.ActiveStaffRequest{},
	})
	assert.NoError(t, err)
}
