package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func appt(id int64, patient, doctor string, date time.Time, slot string, status Status) Appointment {
	return Appointment{ID: id, PatientID: patient, DoctorID: doctor, AppointmentDate: date, Time: slot, Status: status}
}

func TestDetectConflicts(t *testing.T) {
	march10 := day(2024, 3, 10)

	t.Run("candidate shares patient but not doctor", func(t *testing.T) {
		existing := []Appointment{
			appt(1, "p1", "d1", march10, "10:00", StatusScheduled),
			appt(2, "p1", "d2", march10, "10:00", StatusScheduled),
		}
		candidate := Target{PatientID: "p1", DoctorID: "d3", Date: march10, Time: "10:00"}

		res := DetectConflicts(candidate, existing)

		assert.True(t, res.HasPatientConflict)
		assert.False(t, res.HasDoctorConflict)
		require.NotNil(t, res.PatientConflictData)
		assert.Equal(t, "p1", res.PatientConflictData.PatientID)
		assert.Nil(t, res.DoctorConflictData)
	})

	t.Run("doctor side detected independently", func(t *testing.T) {
		existing := []Appointment{appt(1, "p9", "d1", march10, "10:00", StatusPending)}
		res := DetectConflicts(Target{PatientID: "p1", DoctorID: "d1", Date: march10, Time: "10:00"}, existing)

		assert.False(t, res.HasPatientConflict)
		assert.True(t, res.HasDoctorConflict)
		require.NotNil(t, res.DoctorConflictData)
		assert.Equal(t, int64(1), res.DoctorConflictData.ID)
	})

	t.Run("existing appointment never conflicts with itself", func(t *testing.T) {
		a := appt(7, "p1", "d1", march10, "10:00", StatusScheduled)
		res := DetectConflicts(a.Target(), []Appointment{a})

		assert.False(t, res.Any())
	})

	t.Run("cancelled rows never conflict", func(t *testing.T) {
		a := appt(1, "p1", "d1", march10, "10:00", StatusScheduled)
		b := appt(2, "p1", "d1", march10, "10:00", StatusCancelled)

		res := DetectConflicts(a.Target(), []Appointment{a, b})

		assert.False(t, res.HasPatientConflict)
		assert.False(t, res.HasDoctorConflict)
	})

	t.Run("different slot or day does not conflict", func(t *testing.T) {
		existing := []Appointment{
			appt(1, "p1", "d1", march10, "10:30", StatusScheduled),
			appt(2, "p1", "d1", day(2024, 3, 11), "10:00", StatusScheduled),
		}
		res := DetectConflicts(Target{PatientID: "p1", DoctorID: "d1", Date: march10, Time: "10:00"}, existing)

		assert.False(t, res.Any())
	})

	t.Run("dates compare by calendar day, not instant", func(t *testing.T) {
		// Stored as a date column: midnight UTC.
		existing := []Appointment{appt(1, "p1", "d1", march10, "10:00", StatusScheduled)}
		// Candidate parsed in a zone west of UTC, same calendar day.
		ny := time.FixedZone("EST", -5*3600)
		candidate := Target{PatientID: "p1", DoctorID: "d2", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, ny), Time: "10:00"}

		res := DetectConflicts(candidate, existing)

		assert.True(t, res.HasPatientConflict)
	})

	t.Run("empty input reports nothing", func(t *testing.T) {
		res := DetectConflicts(Target{PatientID: "p1", DoctorID: "d1", Date: march10, Time: "10:00"}, nil)
		assert.Equal(t, ConflictResult{}, res)
	})

	t.Run("returned data is a copy", func(t *testing.T) {
		existing := []Appointment{appt(1, "p1", "d1", march10, "10:00", StatusScheduled)}
		res := DetectConflicts(Target{PatientID: "p1", DoctorID: "d1", Date: march10, Time: "10:00"}, existing)
		require.NotNil(t, res.PatientConflictData)

		res.PatientConflictData.Time = "11:00"
		assert.Equal(t, "10:00", existing[0].Time)
	})
}

func TestAnnotateConflicts(t *testing.T) {
	march10 := day(2024, 3, 10)
	peers := []Appointment{
		appt(1, "p1", "d1", march10, "10:00", StatusScheduled),
		appt(2, "p1", "d2", march10, "10:00", StatusScheduled),
		appt(3, "p3", "d3", march10, "11:00", StatusScheduled),
		appt(4, "p4", "d3", march10, "11:00", StatusCancelled),
	}
	rows := []AppointmentDetail{
		{Appointment: peers[0]},
		{Appointment: peers[2]},
		{Appointment: appt(5, "p5", "d5", time.Time{}, "10:00", StatusScheduled)},
	}

	AnnotateConflicts(rows, peers)

	assert.True(t, rows[0].HasConflict, "p1 also booked with d2")
	assert.False(t, rows[0].DoctorConflict)
	assert.False(t, rows[1].HasConflict)
	assert.False(t, rows[1].DoctorConflict, "only other d3 booking is cancelled")
	assert.False(t, rows[2].HasConflict)
}
