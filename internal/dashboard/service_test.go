package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinicx/internal/appointment"
	"github.com/hackgods/clinicx/internal/auth"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListScope(ctx context.Context, scope appointment.Scope) ([]appointment.AppointmentDetail, error) {
	args := m.Called(ctx, scope)
	rows, _ := args.Get(0).([]appointment.AppointmentDetail)
	return rows, args.Error(1)
}

func (m *mockStore) GetPatientByID(ctx context.Context, id string) (*appointment.Patient, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*appointment.Patient)
	return p, args.Error(1)
}

func (m *mockStore) CountPatients(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CountDoctors(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CountStaffByRole(ctx context.Context, role string) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) DoctorsWorkingOn(ctx context.Context, day string, limit int) ([]appointment.Doctor, error) {
	args := m.Called(ctx, day, limit)
	d, _ := args.Get(0).([]appointment.Doctor)
	return d, args.Error(1)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) key(scope string, day time.Time) string {
	return scope + "|" + day.Format("2006-01-02")
}

func (c *memCache) Get(_ context.Context, scope string, day time.Time) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[c.key(scope, day)]
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, scope string, day time.Time, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(scope, day)] = data
	return nil
}

// Wednesday.
var fixedNow = time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

func row(id int64, patientID, doctorID string, date time.Time, status appointment.Status) appointment.AppointmentDetail {
	return appointment.AppointmentDetail{Appointment: appointment.Appointment{
		ID: id, PatientID: patientID, DoctorID: doctorID, AppointmentDate: date, Time: "10:00", Status: status,
	}}
}

func sampleRows() []appointment.AppointmentDetail {
	d := func(m time.Month, day int) time.Time { return time.Date(2024, m, day, 0, 0, 0, 0, time.UTC) }
	return []appointment.AppointmentDetail{
		row(7, "p1", "d1", d(5, 15), appointment.StatusScheduled),
		row(6, "p1", "d1", d(5, 2), appointment.StatusCompleted),
		row(5, "p2", "d2", d(4, 20), appointment.StatusCancelled),
		row(4, "p2", "d1", d(3, 3), appointment.StatusPending),
		row(3, "p1", "d2", d(2, 1), appointment.StatusCompleted),
		row(2, "p3", "d2", d(1, 9), appointment.StatusScheduled),
		row(1, "p3", "d1", d(1, 2), appointment.StatusScheduled),
	}
}

func newTestService(store Store, cache Cache) *Service {
	return NewService(store, cache, time.UTC, zerolog.Nop()).WithClock(func() time.Time { return fixedNow })
}

func TestAdmin(t *testing.T) {
	store := &mockStore{}
	store.On("CountPatients", mock.Anything).Return(12, nil)
	store.On("CountDoctors", mock.Anything).Return(3, nil)
	store.On("ListScope", mock.Anything, appointment.Scope{}).Return(sampleRows(), nil)
	store.On("DoctorsWorkingOn", mock.Anything, "Wednesday", AdminDoctorsLimit).
		Return([]appointment.Doctor{{ID: "d1", Name: "Dr. Grey"}}, nil)

	got, err := newTestService(store, nil).Admin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, got.TotalPatient)
	assert.Equal(t, 3, got.TotalDoctors)
	assert.Equal(t, 7, got.TotalAppointments)
	assert.Equal(t, 1, got.AppointmentCounts[appointment.TodayKey])
	assert.Equal(t, 3, got.AppointmentCounts["SCHEDULED"])
	require.Len(t, got.MonthlyData, 5)
	assert.Equal(t, 2, got.MonthlyData[0].Appointment)
	require.Len(t, got.Last5Records, RecentLimit)
	assert.Equal(t, int64(7), got.Last5Records[0].ID)
	assert.Len(t, got.AvailableDoctors, 1)
	store.AssertExpectations(t)
}

func TestAdmin_FailureFailsWholeDashboard(t *testing.T) {
	store := &mockStore{}
	store.On("CountPatients", mock.Anything).Return(12, nil).Maybe()
	store.On("CountDoctors", mock.Anything).Return(0, errors.New("db gone")).Maybe()
	store.On("ListScope", mock.Anything, mock.Anything).Return(sampleRows(), nil).Maybe()
	store.On("DoctorsWorkingOn", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	got, err := newTestService(store, nil).Admin(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db gone")
	assert.Nil(t, got)
}

func TestAdmin_ServedFromCacheOnSecondCall(t *testing.T) {
	store := &mockStore{}
	store.On("CountPatients", mock.Anything).Return(1, nil).Once()
	store.On("CountDoctors", mock.Anything).Return(1, nil).Once()
	store.On("ListScope", mock.Anything, appointment.Scope{}).Return(sampleRows(), nil).Once()
	store.On("DoctorsWorkingOn", mock.Anything, mock.Anything, mock.Anything).Return([]appointment.Doctor{}, nil).Once()
	svc := newTestService(store, newMemCache())

	first, err := svc.Admin(context.Background())
	require.NoError(t, err)
	second, err := svc.Admin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.AppointmentCounts, second.AppointmentCounts)
	assert.Equal(t, first.MonthlyData, second.MonthlyData)
	assert.Equal(t, first.TotalAppointments, second.TotalAppointments)
	store.AssertNumberOfCalls(t, "ListScope", 1)
}

func TestAdmin_CacheErrorFallsBackToStore(t *testing.T) {
	store := &mockStore{}
	store.On("CountPatients", mock.Anything).Return(1, nil)
	store.On("CountDoctors", mock.Anything).Return(1, nil)
	store.On("ListScope", mock.Anything, appointment.Scope{}).Return(nil, nil)
	store.On("DoctorsWorkingOn", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	cache := newMemCache()
	cache.getErr = errors.New("redis timeout")

	got, err := newTestService(store, cache).Admin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, got.TotalAppointments)
	assert.NotNil(t, got.Last5Records)
	assert.NotNil(t, got.AvailableDoctors)
}

func TestRefreshBypassesCache(t *testing.T) {
	store := &mockStore{}
	store.On("CountPatients", mock.Anything).Return(1, nil)
	store.On("CountDoctors", mock.Anything).Return(1, nil)
	store.On("ListScope", mock.Anything, appointment.Scope{}).Return(sampleRows(), nil)
	store.On("DoctorsWorkingOn", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	cache := newMemCache()
	svc := newTestService(store, cache)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)

	store.AssertNumberOfCalls(t, "ListScope", 2)
	assert.Len(t, cache.entries, 1)
}

func TestDoctor(t *testing.T) {
	store := &mockStore{}
	store.On("CountPatients", mock.Anything).Return(40, nil)
	store.On("CountStaffByRole", mock.Anything, "NURSE").Return(6, nil)
	store.On("ListScope", mock.Anything, appointment.Scope{DoctorID: "d1"}).Return(sampleRows()[:2], nil)
	store.On("DoctorsWorkingOn", mock.Anything, "Wednesday", DoctorDoctorsLimit).Return(nil, nil)

	got, err := newTestService(store, nil).Doctor(context.Background(), auth.RequestContext{UserID: "d1", Role: auth.RoleDoctor})
	require.NoError(t, err)

	assert.Equal(t, 40, got.TotalPatient)
	assert.Equal(t, 6, got.TotalNurses)
	assert.Equal(t, 2, got.TotalAppointment)
	assert.Equal(t, 1, got.AppointmentCounts["COMPLETED"])
	assert.Len(t, got.Last5Records, 2)
	store.AssertExpectations(t)
}

func TestPatient(t *testing.T) {
	store := &mockStore{}
	store.On("GetPatientByID", mock.Anything, "p1").Return(&appointment.Patient{ID: "p1", FirstName: "Ada"}, nil)
	store.On("ListScope", mock.Anything, appointment.Scope{PatientID: "p1"}).Return(sampleRows()[:1], nil)
	store.On("DoctorsWorkingOn", mock.Anything, "Wednesday", PatientDoctorsLimit).Return(nil, nil)

	got, err := newTestService(store, nil).Patient(context.Background(), auth.RequestContext{UserID: "p1", Role: auth.RolePatient}, "p1")
	require.NoError(t, err)

	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, 1, got.TotalAppointments)
	assert.Equal(t, 1, got.AppointmentCounts[appointment.TodayKey])
	store.AssertExpectations(t)
}

func TestPatient_OtherPatientForbidden(t *testing.T) {
	store := &mockStore{}

	_, err := newTestService(store, nil).Patient(context.Background(), auth.RequestContext{UserID: "p1", Role: auth.RolePatient}, "p2")

	assert.ErrorIs(t, err, appointment.ErrForbidden)
	store.AssertNotCalled(t, "ListScope", mock.Anything, mock.Anything)
}

func TestPatient_Missing(t *testing.T) {
	store := &mockStore{}
	store.On("GetPatientByID", mock.Anything, "ghost").Return(nil, appointment.ErrPatientNotFound)
	store.On("ListScope", mock.Anything, mock.Anything).Return(nil, nil).Maybe()
	store.On("DoctorsWorkingOn", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	_, err := newTestService(store, newMemCache()).Patient(context.Background(), auth.RequestContext{UserID: "admin", Role: auth.RoleAdmin}, "ghost")

	assert.ErrorIs(t, err, appointment.ErrPatientNotFound)
}
