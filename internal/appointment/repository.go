package appointment

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id string) (*Patient, error)
	GetDoctorByID(ctx context.Context, id string) (*Doctor, error)

	GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, q ListQuery) ([]AppointmentDetail, int, error)

	// For conflict checks
	FindSlotPeers(ctx context.Context, date time.Time, slot, patientID, doctorID string) ([]Appointment, error)
	ListByDates(ctx context.Context, dates []time.Time) ([]Appointment, error)

	// Creation and updates
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status Status, reason *string) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error

	// Audit trail
	InsertAudit(ctx context.Context, entry AuditLog) error
}

// SummaryInvalidator drops cached dashboard summaries after a write.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context) error
}
