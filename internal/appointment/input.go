package appointment

import (
	"strings"
	"time"
)

type CreateInput struct {
	PatientID       string  `json:"patient_id"`
	DoctorID        string  `json:"doctor_id"`
	Type            string  `json:"type"`
	AppointmentDate string  `json:"appointment_date"`
	Time            string  `json:"time"`
	Note            *string `json:"note,omitempty"`
	Reason          *string `json:"reason,omitempty"`
	Status          Status  `json:"status,omitempty"`
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	PatientID       *string `json:"patient_id,omitempty"`
	DoctorID        *string `json:"doctor_id,omitempty"`
	Type            *string `json:"type,omitempty"`
	AppointmentDate *string `json:"appointment_date,omitempty"`
	Time            *string `json:"time,omitempty"`
	Note            *string `json:"note,omitempty"`
	Reason          *string `json:"reason,omitempty"`
	Status          *Status `json:"status,omitempty"`
}

// CandidateInput describes a booking that is only being checked.
type CandidateInput struct {
	PatientID       string `json:"patient_id"`
	DoctorID        string `json:"doctor_id"`
	AppointmentDate string `json:"appointment_date"`
	Time            string `json:"time"`
}

func checkSlot(v *ValidationError, slots SlotSet, rawDate, label string) time.Time {
	var date time.Time
	if strings.TrimSpace(rawDate) == "" {
		v.add("appointment_date", "select appointment date")
	} else if d, err := ParseDate(rawDate); err != nil {
		v.add("appointment_date", "must be a date such as 2024-03-10")
	} else {
		date = d
	}

	if label == "" {
		v.add("time", "select appointment time")
	} else if !slots.Contains(label) {
		v.add("time", "not a bookable time slot")
	}
	return date
}

func (in CreateInput) toAppointment(slots SlotSet) (Appointment, error) {
	var v ValidationError

	if strings.TrimSpace(in.PatientID) == "" {
		v.add("patient_id", "select patient")
	}
	if strings.TrimSpace(in.DoctorID) == "" {
		v.add("doctor_id", "select physician")
	}
	if strings.TrimSpace(in.Type) == "" {
		v.add("type", "select type of appointment")
	}
	date := checkSlot(&v, slots, in.AppointmentDate, in.Time)

	status := in.Status
	if status == "" {
		status = StatusScheduled
	} else if !status.Valid() {
		v.add("status", "must be one of PENDING, SCHEDULED, CANCELLED, COMPLETED")
	}

	if err := v.orNil(); err != nil {
		return Appointment{}, err
	}

	return Appointment{
		PatientID:       strings.TrimSpace(in.PatientID),
		DoctorID:        strings.TrimSpace(in.DoctorID),
		AppointmentDate: date,
		Time:            in.Time,
		Status:          status,
		Type:            strings.TrimSpace(in.Type),
		Reason:          in.Reason,
		Note:            in.Note,
	}, nil
}

func (in CandidateInput) toTarget(slots SlotSet) (Target, error) {
	var v ValidationError

	if strings.TrimSpace(in.PatientID) == "" {
		v.add("patient_id", "select patient")
	}
	if strings.TrimSpace(in.DoctorID) == "" {
		v.add("doctor_id", "select physician")
	}
	date := checkSlot(&v, slots, in.AppointmentDate, in.Time)

	if err := v.orNil(); err != nil {
		return Target{}, err
	}
	return Target{
		PatientID: strings.TrimSpace(in.PatientID),
		DoctorID:  strings.TrimSpace(in.DoctorID),
		Date:      date,
		Time:      in.Time,
	}, nil
}

// apply merges the patch into a and reports whether the occupied slot moved.
func (in UpdateInput) apply(a Appointment, slots SlotSet) (Appointment, bool, error) {
	var v ValidationError
	moved := false

	if in.PatientID != nil {
		if strings.TrimSpace(*in.PatientID) == "" {
			v.add("patient_id", "select patient")
		} else if *in.PatientID != a.PatientID {
			a.PatientID = strings.TrimSpace(*in.PatientID)
			moved = true
		}
	}
	if in.DoctorID != nil {
		if strings.TrimSpace(*in.DoctorID) == "" {
			v.add("doctor_id", "select physician")
		} else if *in.DoctorID != a.DoctorID {
			a.DoctorID = strings.TrimSpace(*in.DoctorID)
			moved = true
		}
	}
	if in.Type != nil && strings.TrimSpace(*in.Type) != "" {
		a.Type = strings.TrimSpace(*in.Type)
	}
	if in.AppointmentDate != nil || in.Time != nil {
		rawDate := FormatDate(&a.AppointmentDate)
		if in.AppointmentDate != nil {
			rawDate = *in.AppointmentDate
		}
		label := a.Time
		if in.Time != nil {
			label = *in.Time
		}
		date := checkSlot(&v, slots, rawDate, label)
		if !SameDay(date, a.AppointmentDate) || label != a.Time {
			moved = true
		}
		a.AppointmentDate = date
		a.Time = label
	}
	if in.Note != nil {
		a.Note = in.Note
	}
	if in.Reason != nil {
		a.Reason = in.Reason
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			v.add("status", "must be one of PENDING, SCHEDULED, CANCELLED, COMPLETED")
		} else {
			a.Status = *in.Status
		}
	}

	if err := v.orNil(); err != nil {
		return Appointment{}, false, err
	}
	return a, moved, nil
}
