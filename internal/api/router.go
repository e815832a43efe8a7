package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinicx/internal/appointment"
	"github.com/hackgods/clinicx/internal/auth"
	"github.com/hackgods/clinicx/internal/dashboard"
)

type AppointmentService interface {
	Slots() appointment.SlotSet
	CheckCandidate(ctx context.Context, in appointment.CandidateInput) (appointment.ConflictResult, error)
	CreateAppointment(ctx context.Context, rc auth.RequestContext, in appointment.CreateInput) (*appointment.WriteResult, error)
	UpdateAppointment(ctx context.Context, rc auth.RequestContext, id int64, in appointment.UpdateInput) (*appointment.WriteResult, error)
	ChangeStatus(ctx context.Context, rc auth.RequestContext, id int64, status appointment.Status, reason *string) (*appointment.Appointment, string, error)
	DeleteAppointment(ctx context.Context, rc auth.RequestContext, id int64) error
	GetAppointment(ctx context.Context, rc auth.RequestContext, id int64) (*appointment.AppointmentDetail, error)
	ListAppointments(ctx context.Context, rc auth.RequestContext, q appointment.ListQuery) (*appointment.Page, error)
}

type DashboardService interface {
	Admin(ctx context.Context) (*dashboard.AdminDashboard, error)
	Doctor(ctx context.Context, rc auth.RequestContext) (*dashboard.DoctorDashboard, error)
	Patient(ctx context.Context, rc auth.RequestContext, patientID string) (*dashboard.PatientDashboard, error)
}

// Authenticator resolves the caller and stores an auth.RequestContext.
type Authenticator interface {
	Middleware(next http.Handler) http.Handler
}

type RouterConfig struct {
	Appointments AppointmentService
	Dashboards   DashboardService
	Auth         Authenticator
	Health       *HealthHandler
	Logger       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoverMiddleware)

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)

		r.Get("/slots", listSlotsHandler(cfg.Appointments))

		r.Route("/appointments", func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleNurse, auth.RoleReceptionist, auth.RolePatient))

			r.Post("/conflicts", checkConflictsHandler(cfg.Appointments))
			r.Post("/", createAppointmentHandler(cfg.Appointments))
			r.Get("/", listAppointmentsHandler(cfg.Appointments))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
			r.Patch("/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Post("/{id}/status", changeStatusHandler(cfg.Appointments))
			r.With(auth.RequireRole(auth.RoleAdmin)).Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.With(auth.RequireRole(auth.RoleAdmin)).Get("/admin", adminDashboardHandler(cfg.Dashboards))
			r.With(auth.RequireRole(auth.RoleDoctor)).Get("/doctor", doctorDashboardHandler(cfg.Dashboards))
			r.With(auth.RequireRole(auth.RolePatient, auth.RoleAdmin, auth.RoleDoctor, auth.RoleNurse)).
				Get("/patients/{id}", patientDashboardHandler(cfg.Dashboards))
		})
	})

	return r
}
