package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinicx/internal/appointment"
	"github.com/hackgods/clinicx/internal/auth"
)

const adminScope = "admin"

// Store is the read side the dashboards need. Appointment lists come back
// newest first.
type Store interface {
	ListScope(ctx context.Context, scope appointment.Scope) ([]appointment.AppointmentDetail, error)
	GetPatientByID(ctx context.Context, id string) (*appointment.Patient, error)
	CountPatients(ctx context.Context) (int, error)
	CountDoctors(ctx context.Context) (int, error)
	CountStaffByRole(ctx context.Context, role string) (int, error)
	DoctorsWorkingOn(ctx context.Context, day string, limit int) ([]appointment.Doctor, error)
}

// Cache keeps rendered dashboards per scope and calendar day.
type Cache interface {
	Get(ctx context.Context, scope string, day time.Time) ([]byte, bool, error)
	Set(ctx context.Context, scope string, day time.Time, data []byte) error
}

type Service struct {
	store  Store
	cache  Cache
	agg    *appointment.Aggregator
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

// NewService builds the dashboard service. cache may be nil, in which case
// every request recomputes.
func NewService(store Store, cache Cache, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:  store,
		cache:  cache,
		agg:    appointment.NewAggregator(loc, logger),
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Admin(ctx context.Context) (*AdminDashboard, error) {
	now := s.now()
	return cached(ctx, s, adminScope, now, func(ctx context.Context) (*AdminDashboard, error) {
		return s.buildAdmin(ctx, now)
	})
}

// Refresh recomputes the clinic-wide dashboard and stores it, ignoring any
// cached copy.
func (s *Service) Refresh(ctx context.Context) (*AdminDashboard, error) {
	now := s.now()
	d, err := s.buildAdmin(ctx, now)
	if err != nil {
		return nil, err
	}
	s.save(ctx, adminScope, appointment.Today(now, s.loc), d)
	return d, nil
}

func (s *Service) buildAdmin(ctx context.Context, now time.Time) (*AdminDashboard, error) {
	var (
		totalPatient int
		totalDoctors int
		rows         []appointment.AppointmentDetail
		doctors      []appointment.Doctor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totalPatient, err = s.store.CountPatients(gctx)
		return err
	})
	g.Go(func() (err error) {
		totalDoctors, err = s.store.CountDoctors(gctx)
		return err
	})
	g.Go(func() (err error) {
		rows, err = s.store.ListScope(gctx, appointment.Scope{})
		return err
	})
	g.Go(func() (err error) {
		doctors, err = s.store.DoctorsWorkingOn(gctx, s.weekday(now), AdminDoctorsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load admin dashboard: %w", err)
	}

	sum := s.agg.Aggregate(appointmentsOf(rows), now)
	return &AdminDashboard{
		TotalPatient:      totalPatient,
		TotalDoctors:      totalDoctors,
		TotalAppointments: len(rows),
		AppointmentCounts: sum.AppointmentCounts,
		MonthlyData:       sum.MonthlyData,
		Last5Records:      recent(rows),
		AvailableDoctors:  nonNil(doctors),
	}, nil
}

// Doctor renders the dashboard of the signed-in doctor.
func (s *Service) Doctor(ctx context.Context, rc auth.RequestContext) (*DoctorDashboard, error) {
	if rc.UserID == "" {
		return nil, appointment.ErrForbidden
	}
	now := s.now()
	return cached(ctx, s, "doctor:"+rc.UserID, now, func(ctx context.Context) (*DoctorDashboard, error) {
		var (
			totalPatient int
			totalNurses  int
			rows         []appointment.AppointmentDetail
			doctors      []appointment.Doctor
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			totalPatient, err = s.store.CountPatients(gctx)
			return err
		})
		g.Go(func() (err error) {
			totalNurses, err = s.store.CountStaffByRole(gctx, staffRoleNurse)
			return err
		})
		g.Go(func() (err error) {
			rows, err = s.store.ListScope(gctx, appointment.Scope{DoctorID: rc.UserID})
			return err
		})
		g.Go(func() (err error) {
			doctors, err = s.store.DoctorsWorkingOn(gctx, s.weekday(now), DoctorDoctorsLimit)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("load doctor dashboard: %w", err)
		}

		sum := s.agg.Aggregate(appointmentsOf(rows), now)
		return &DoctorDashboard{
			TotalPatient:      totalPatient,
			TotalNurses:       totalNurses,
			TotalAppointment:  len(rows),
			AppointmentCounts: sum.AppointmentCounts,
			MonthlyData:       sum.MonthlyData,
			Last5Records:      recent(rows),
			AvailableDoctors:  nonNil(doctors),
		}, nil
	})
}

// Patient renders a patient's dashboard. Patients may only read their own.
func (s *Service) Patient(ctx context.Context, rc auth.RequestContext, patientID string) (*PatientDashboard, error) {
	if rc.Role == auth.RolePatient && rc.UserID != patientID {
		return nil, appointment.ErrForbidden
	}
	now := s.now()
	return cached(ctx, s, "patient:"+patientID, now, func(ctx context.Context) (*PatientDashboard, error) {
		var (
			patient *appointment.Patient
			rows    []appointment.AppointmentDetail
			doctors []appointment.Doctor
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			patient, err = s.store.GetPatientByID(gctx, patientID)
			return err
		})
		g.Go(func() (err error) {
			rows, err = s.store.ListScope(gctx, appointment.Scope{PatientID: patientID})
			return err
		})
		g.Go(func() (err error) {
			doctors, err = s.store.DoctorsWorkingOn(gctx, s.weekday(now), PatientDoctorsLimit)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("load patient dashboard: %w", err)
		}

		sum := s.agg.Aggregate(appointmentsOf(rows), now)
		return &PatientDashboard{
			Patient:           *patient,
			TotalAppointments: len(rows),
			AppointmentCounts: sum.AppointmentCounts,
			MonthlyData:       sum.MonthlyData,
			Last5Records:      recent(rows),
			AvailableDoctor:   nonNil(doctors),
		}, nil
	})
}

// cached serves scope from the cache when possible. Cache errors are logged
// and fall through to build.
func cached[T any](ctx context.Context, s *Service, scope string, now time.Time, build func(context.Context) (*T, error)) (*T, error) {
	day := appointment.Today(now, s.loc)

	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, scope, day)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("scope", scope).Msg("dashboard cache read failed")
		case ok:
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return &v, nil
			}
			s.logger.Warn().Str("scope", scope).Msg("discarding undecodable cached dashboard")
		}
	}

	v, err := build(ctx)
	if err != nil {
		return nil, err
	}
	s.save(ctx, scope, day, v)
	return v, nil
}

func (s *Service) save(ctx context.Context, scope string, day time.Time, v any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Str("scope", scope).Msg("failed to encode dashboard")
		return
	}
	if err := s.cache.Set(ctx, scope, day, data); err != nil {
		s.logger.Warn().Err(err).Str("scope", scope).Msg("dashboard cache write failed")
	}
}

func (s *Service) weekday(now time.Time) string {
	return now.In(s.loc).Weekday().String()
}

func appointmentsOf(rows []appointment.AppointmentDetail) []appointment.Appointment {
	out := make([]appointment.Appointment, len(rows))
	for i := range rows {
		out[i] = rows[i].Appointment
	}
	return out
}

func recent(rows []appointment.AppointmentDetail) []appointment.AppointmentDetail {
	n := len(rows)
	if n > RecentLimit {
		n = RecentLimit
	}
	out := make([]appointment.AppointmentDetail, n)
	copy(out, rows[:n])
	return out
}

func nonNil(doctors []appointment.Doctor) []appointment.Doctor {
	if doctors == nil {
		return []appointment.Doctor{}
	}
	return doctors
}
