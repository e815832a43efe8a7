package appointment

import "time"

// Target is the slot an existing or proposed appointment occupies. A zero ID
// marks a booking that has not been persisted, so nothing is excluded.
type Target struct {
	ID        int64
	PatientID string
	DoctorID  string
	Date      time.Time
	Time      string
}

type ConflictResult struct {
	HasPatientConflict  bool         `json:"hasPatientConflict"`
	HasDoctorConflict   bool         `json:"doctorConflict"`
	PatientConflictData *Appointment `json:"patientConflictData,omitempty"`
	DoctorConflictData  *Appointment `json:"doctorConflictData,omitempty"`
}

func (r ConflictResult) Any() bool {
	return r.HasPatientConflict || r.HasDoctorConflict
}

// DetectConflicts reports whether another non-cancelled appointment already
// holds the target's patient or doctor on the same calendar day and slot.
// The first match on each side is returned for display.
func DetectConflicts(target Target, existing []Appointment) ConflictResult {
	var res ConflictResult

	for i := range existing {
		other := &existing[i]
		if !occupiesSlot(target, other) {
			continue
		}
		if !res.HasPatientConflict && other.PatientID == target.PatientID {
			res.HasPatientConflict = true
			res.PatientConflictData = copyAppointment(other)
		}
		if !res.HasDoctorConflict && other.DoctorID == target.DoctorID {
			res.HasDoctorConflict = true
			res.DoctorConflictData = copyAppointment(other)
		}
		if res.HasPatientConflict && res.HasDoctorConflict {
			break
		}
	}

	return res
}

func occupiesSlot(target Target, other *Appointment) bool {
	if target.ID != 0 && other.ID == target.ID {
		return false
	}
	if other.Status == StatusCancelled {
		return false
	}
	return other.Time == target.Time && SameDay(other.AppointmentDate, target.Date)
}

func copyAppointment(a *Appointment) *Appointment {
	c := *a
	return &c
}

type slotKey struct {
	year  int
	month time.Month
	day   int
	time  string
}

func keyFor(date time.Time, label string) slotKey {
	y, m, d := date.Date()
	return slotKey{year: y, month: m, day: d, time: label}
}

// AnnotateConflicts sets HasConflict and DoctorConflict on every row, checking
// each row against peers with its own id excluded.
func AnnotateConflicts(rows []AppointmentDetail, peers []Appointment) {
	bySlot := make(map[slotKey][]Appointment, len(peers))
	for _, p := range peers {
		if p.AppointmentDate.IsZero() {
			continue
		}
		k := keyFor(p.AppointmentDate, p.Time)
		bySlot[k] = append(bySlot[k], p)
	}

	for i := range rows {
		row := &rows[i]
		if row.AppointmentDate.IsZero() {
			continue
		}
		res := DetectConflicts(row.Target(), bySlot[keyFor(row.AppointmentDate, row.Time)])
		row.HasConflict = res.HasPatientConflict
		row.DoctorConflict = res.HasDoctorConflict
	}
}
