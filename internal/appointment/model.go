package appointment

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusScheduled Status = "SCHEDULED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Statuses lists the enumeration in the order dashboards render it.
var Statuses = []Status{StatusPending, StatusScheduled, StatusCancelled, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Patient struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Gender      string     `json:"gender,omitempty"`
	Img         *string    `json:"img,omitempty"`
	ColorCode   *string    `json:"colorCode,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

type WorkingDay struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	CloseTime string `json:"close_time"`
}

type Doctor struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Specialization string       `json:"specialization"`
	Img            *string      `json:"img,omitempty"`
	ColorCode      *string      `json:"colorCode,omitempty"`
	WorkingDays    []WorkingDay `json:"working_days,omitempty"`
}

// Appointment is the record the conflict detector and aggregator operate on.
// AppointmentDate is a civil date: only its year, month and day are meaningful
// and the zero value marks a date that could not be read from storage.
// ID is zero until the row is persisted.
type Appointment struct {
	ID              int64     `json:"id"`
	PatientID       string    `json:"patient_id"`
	DoctorID        string    `json:"doctor_id"`
	AppointmentDate time.Time `json:"appointment_date"`
	Time            string    `json:"time"`
	Status          Status    `json:"status"`
	Type            string    `json:"type,omitempty"`
	Reason          *string   `json:"reason,omitempty"`
	Note            *string   `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Target returns the slot this appointment occupies, for conflict checks.
func (a Appointment) Target() Target {
	return Target{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.AppointmentDate,
		Time:      a.Time,
	}
}

type AppointmentDetail struct {
	Appointment
	Patient        *Patient `json:"patient,omitempty"`
	Doctor         *Doctor  `json:"doctor,omitempty"`
	HasConflict    bool     `json:"hasConflict"`
	DoctorConflict bool     `json:"doctorConflict"`
}

type AuditLog struct {
	ID        int64
	UserID    *string
	RecordID  string
	Action    string
	Details   []byte
	Model     string
	CreatedAt time.Time
}

// ListQuery narrows and pages appointment listings.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	// PersonID matches either the patient or the doctor of an appointment.
	PersonID string
	Status   Status
	Sort     string
}

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Scope selects the appointments a dashboard aggregates over. Empty fields
// mean no restriction.
type Scope struct {
	PatientID string
	DoctorID  string
}

type Page struct {
	Items        []AppointmentDetail `json:"data"`
	TotalRecords int                 `json:"totalRecords"`
	TotalPages   int                 `json:"totalPages"`
	CurrentPage  int                 `json:"currentPage"`
}
