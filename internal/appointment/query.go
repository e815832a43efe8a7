package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

var dialect = goqu.Dialect("postgres")

var detailColumns = []any{
	goqu.I("a.id"), goqu.I("a.patient_id"), goqu.I("a.doctor_id"), goqu.I("a.appointment_date"),
	goqu.I("a.time"), goqu.I("a.status"), goqu.I("a.type"), goqu.I("a.reason"), goqu.I("a.note"),
	goqu.I("a.created_at"), goqu.I("a.updated_at"),
	goqu.I("p.id"), goqu.I("p.first_name"), goqu.I("p.last_name"), goqu.I("p.gender"),
	goqu.I("p.img"), goqu.I("p.color_code"), goqu.I("p.phone"), goqu.I("p.address"), goqu.I("p.date_of_birth"),
	goqu.I("d.id"), goqu.I("d.name"), goqu.I("d.specialization"), goqu.I("d.img"), goqu.I("d.color_code"),
}

var appointmentColumns = []any{
	"id", "patient_id", "doctor_id", "appointment_date", "time", "status", "type", "reason", "note",
	"created_at", "updated_at",
}

// normalize clamps paging input the way listings expect it.
func (q ListQuery) normalize() ListQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Sort != SortOldest {
		q.Sort = SortNewest
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

func joinedAppointments() *goqu.SelectDataset {
	return dialect.From(goqu.T("appointments").As("a")).
		Join(goqu.T("patients").As("p"), goqu.On(goqu.I("p.id").Eq(goqu.I("a.patient_id")))).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("d.id").Eq(goqu.I("a.doctor_id"))))
}

func listConditions(q ListQuery) []exp.Expression {
	var conds []exp.Expression

	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		conds = append(conds, goqu.Or(
			goqu.I("p.first_name").ILike(pattern),
			goqu.I("p.last_name").ILike(pattern),
			goqu.I("d.name").ILike(pattern),
		))
	}
	if q.PersonID != "" {
		conds = append(conds, goqu.Or(
			goqu.I("a.patient_id").Eq(q.PersonID),
			goqu.I("a.doctor_id").Eq(q.PersonID),
		))
	}
	if q.Status != "" {
		conds = append(conds, goqu.I("a.status").Eq(string(q.Status)))
	}

	return conds
}

// buildListSQL renders the page query and its matching count query.
func buildListSQL(q ListQuery) (pageSQL string, pageArgs []any, countSQL string, countArgs []any, err error) {
	q = q.normalize()
	conds := listConditions(q)

	order := goqu.I("a.appointment_date").Desc()
	if q.Sort == SortOldest {
		order = goqu.I("a.appointment_date").Asc()
	}

	pageSQL, pageArgs, err = joinedAppointments().
		Select(detailColumns...).
		Where(conds...).
		Order(order, goqu.I("a.id").Desc()).
		Limit(uint(q.Limit)).
		Offset(uint(q.offset())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build list query: %w", err)
	}

	countSQL, countArgs, err = joinedAppointments().
		Select(goqu.COUNT("*")).
		Where(conds...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build count query: %w", err)
	}

	return pageSQL, pageArgs, countSQL, countArgs, nil
}

// buildScopeSQL renders the unpaged, newest-first listing dashboards use.
func buildScopeSQL(scope Scope) (string, []any, error) {
	var conds []exp.Expression
	if scope.PatientID != "" {
		conds = append(conds, goqu.I("a.patient_id").Eq(scope.PatientID))
	}
	if scope.DoctorID != "" {
		conds = append(conds, goqu.I("a.doctor_id").Eq(scope.DoctorID))
	}

	sql, args, err := joinedAppointments().
		Select(detailColumns...).
		Where(conds...).
		Order(goqu.I("a.appointment_date").Desc(), goqu.I("a.id").Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build scope query: %w", err)
	}
	return sql, args, nil
}

// buildPeersSQL selects every appointment on the given slot that shares the
// patient or the doctor. Cancelled rows are kept; the detector drops them.
func buildPeersSQL(date time.Time, slot, patientID, doctorID string) (string, []any, error) {
	sql, args, err := dialect.From("appointments").
		Select(appointmentColumns...).
		Where(
			goqu.C("appointment_date").Eq(CivilDate(date)),
			goqu.C("time").Eq(slot),
			goqu.Or(
				goqu.C("patient_id").Eq(patientID),
				goqu.C("doctor_id").Eq(doctorID),
			),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build slot peers query: %w", err)
	}
	return sql, args, nil
}

// buildByDatesSQL selects every appointment on any of the given days. It
// returns an empty query when no usable day is left.
func buildByDatesSQL(dates []time.Time) (string, []any, error) {
	days := make([]any, 0, len(dates))
	seen := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		c := CivilDate(d)
		if seen[c] {
			continue
		}
		seen[c] = true
		days = append(days, c)
	}
	if len(days) == 0 {
		return "", nil, nil
	}

	sql, args, err := dialect.From("appointments").
		Select(appointmentColumns...).
		Where(goqu.C("appointment_date").In(days...)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build appointments by date query: %w", err)
	}
	return sql, args, nil
}

func joinedID(id int64) exp.Expression {
	return goqu.I("a.id").Eq(id)
}
