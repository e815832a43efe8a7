package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

// dateValue maps a date column to a civil date. NULL and infinite values
// become the zero time so aggregation can skip them instead of failing.
func dateValue(d pgtype.Date) time.Time {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return time.Time{}
	}
	return CivilDate(d.Time)
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date pgtype.Date
	var apptType *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&date,
		&a.Time,
		&a.Status,
		&apptType,
		&a.Reason,
		&a.Note,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.AppointmentDate = dateValue(date)
	if apptType != nil {
		a.Type = *apptType
	}
	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var p Patient
	var doc Doctor
	var date, dob pgtype.Date
	var apptType, gender *string

	err := row.Scan(
		&d.ID,
		&d.PatientID,
		&d.DoctorID,
		&date,
		&d.Time,
		&d.Status,
		&apptType,
		&d.Reason,
		&d.Note,
		&d.CreatedAt,
		&d.UpdatedAt,
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&gender,
		&p.Img,
		&p.ColorCode,
		&p.Phone,
		&p.Address,
		&dob,
		&doc.ID,
		&doc.Name,
		&doc.Specialization,
		&doc.Img,
		&doc.ColorCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	d.AppointmentDate = dateValue(date)
	if apptType != nil {
		d.Type = *apptType
	}
	if gender != nil {
		p.Gender = *gender
	}
	if born := dateValue(dob); !born.IsZero() {
		p.DateOfBirth = &born
	}
	d.Patient = &p
	d.Doctor = &doc
	return &d, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	var gender *string
	var dob pgtype.Date

	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, gender, img, color_code, phone, address, date_of_birth
		FROM patients
		WHERE id = $1
	`, id).Scan(&p.ID, &p.FirstName, &p.LastName, &gender, &p.Img, &p.ColorCode, &p.Phone, &p.Address, &dob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	if gender != nil {
		p.Gender = *gender
	}
	if born := dateValue(dob); !born.IsZero() {
		p.DateOfBirth = &born
	}
	return &p, nil
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id string) (*Doctor, error) {
	var d Doctor

	err := r.pool.QueryRow(ctx, `
		SELECT id, name, specialization, img, color_code
		FROM doctors
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Specialization, &d.Img, &d.ColorCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, appointment_date, time, status, type, reason, note, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error) {
	sql, args, err := joinedAppointments().
		Select(detailColumns...).
		Where(joinedID(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build appointment detail query: %w", err)
	}
	return scanDetail(r.pool.QueryRow(ctx, sql, args...))
}

func (r *PgRepository) ListAppointments(ctx context.Context, q ListQuery) ([]AppointmentDetail, int, error) {
	pageSQL, pageArgs, countSQL, countArgs, err := buildListSQL(q)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	rows, err := r.pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	items, err := collectDetails(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan appointments: %w", err)
	}

	return items, total, nil
}

// ListScope returns every appointment in scope, newest first, with the
// patient and doctor joined in.
func (r *PgRepository) ListScope(ctx context.Context, scope Scope) ([]AppointmentDetail, error) {
	sql, args, err := buildScopeSQL(scope)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list scoped appointments: %w", err)
	}
	return collectDetails(rows)
}

func (r *PgRepository) FindSlotPeers(ctx context.Context, date time.Time, slot, patientID, doctorID string) ([]Appointment, error) {
	sql, args, err := buildPeersSQL(date, slot, patientID, doctorID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find slot peers: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListByDates(ctx context.Context, dates []time.Time) ([]Appointment, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	sql, args, err := buildByDatesSQL(dates)
	if err != nil {
		return nil, err
	}
	if sql == "" {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments by date: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, time, status, type, reason, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, patient_id, doctor_id, appointment_date, time, status, type, reason, note, created_at, updated_at
	`, a.PatientID, a.DoctorID, CivilDate(a.AppointmentDate), a.Time, a.Status, a.Type, a.Reason, a.Note)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2,
		    doctor_id = $3,
		    appointment_date = $4,
		    time = $5,
		    status = $6,
		    type = $7,
		    reason = $8,
		    note = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, doctor_id, appointment_date, time, status, type, reason, note, created_at, updated_at
	`, a.ID, a.PatientID, a.DoctorID, CivilDate(a.AppointmentDate), a.Time, a.Status, a.Type, a.Reason, a.Note)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id int64, status Status, reason *string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    reason = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, doctor_id, appointment_date, time, status, type, reason, note, created_at, updated_at
	`, id, status, reason)

	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) InsertAudit(ctx context.Context, entry AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (user_id, record_id, action, details, model, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`, entry.UserID, entry.RecordID, entry.Action, entry.Details, entry.Model, nullableTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

// Dashboard directory queries

func (r *PgRepository) CountPatients(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

func (r *PgRepository) CountDoctors(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM doctors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count doctors: %w", err)
	}
	return n, nil
}

func (r *PgRepository) CountStaffByRole(ctx context.Context, role string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM staff WHERE role = $1`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return n, nil
}

// DoctorsWorkingOn lists up to limit doctors with a working day matching day,
// compared case-insensitively.
func (r *PgRepository) DoctorsWorkingOn(ctx context.Context, day string, limit int) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.name, d.specialization, d.img, d.color_code
		FROM doctors d
		WHERE EXISTS (
			SELECT 1 FROM working_days w
			WHERE w.doctor_id = d.id AND lower(w.day) = lower($1)
		)
		ORDER BY d.name
		LIMIT $2
	`, day, limit)
	if err != nil {
		return nil, fmt.Errorf("list doctors working on %s: %w", day, err)
	}
	defer rows.Close()

	var doctors []Doctor
	index := make(map[string]int)
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialization, &d.Img, &d.ColorCode); err != nil {
			return nil, err
		}
		index[d.ID] = len(doctors)
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return doctors, nil
	}

	ids := make([]string, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}

	wdRows, err := r.pool.Query(ctx, `
		SELECT doctor_id, day, start_time, close_time
		FROM working_days
		WHERE doctor_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("load working days: %w", err)
	}
	defer wdRows.Close()

	for wdRows.Next() {
		var doctorID string
		var wd WorkingDay
		if err := wdRows.Scan(&doctorID, &wd.Day, &wd.StartTime, &wd.CloseTime); err != nil {
			return nil, err
		}
		i := index[doctorID]
		doctors[i].WorkingDays = append(doctors[i].WorkingDays, wd)
	}
	if err := wdRows.Err(); err != nil {
		return nil, err
	}

	return doctors, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
