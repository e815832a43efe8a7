package dashboard

import "github.com/hackgods/clinicx/internal/appointment"

const (
	RecentLimit         = 5
	AdminDoctorsLimit   = 5
	DoctorDoctorsLimit  = 5
	PatientDoctorsLimit = 4
	staffRoleNurse      = "NURSE"
)

type AdminDashboard struct {
	TotalPatient      int                             `json:"totalPatient"`
	TotalDoctors      int                             `json:"totalDoctors"`
	TotalAppointments int                             `json:"totalAppointments"`
	AppointmentCounts map[string]int                  `json:"appointmentCounts"`
	MonthlyData       []appointment.MonthlyBucket     `json:"monthlyData"`
	Last5Records      []appointment.AppointmentDetail `json:"last5Records"`
	AvailableDoctors  []appointment.Doctor            `json:"availableDoctors"`
}

type DoctorDashboard struct {
	TotalPatient      int                             `json:"totalPatient"`
	TotalNurses       int                             `json:"totalNurses"`
	TotalAppointment  int                             `json:"totalAppointment"`
	AppointmentCounts map[string]int                  `json:"appointmentCounts"`
	MonthlyData       []appointment.MonthlyBucket     `json:"monthlyData"`
	Last5Records      []appointment.AppointmentDetail `json:"last5Records"`
	AvailableDoctors  []appointment.Doctor            `json:"availableDoctors"`
}

// PatientDashboard carries the patient's own fields at the top level.
type PatientDashboard struct {
	appointment.Patient
	TotalAppointments int                             `json:"totalAppointments"`
	AppointmentCounts map[string]int                  `json:"appointmentCounts"`
	MonthlyData       []appointment.MonthlyBucket     `json:"monthlyData"`
	Last5Records      []appointment.AppointmentDetail `json:"last5Records"`
	AvailableDoctor   []appointment.Doctor            `json:"availableDoctor"`
}
