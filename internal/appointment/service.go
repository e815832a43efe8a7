package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinicx/internal/auth"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentUpdated       = "APPOINTMENT_UPDATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentDeleted       = "APPOINTMENT_DELETED"

	auditModel = "Appointment"
)

const (
	MessageCreated          = "Appointment created successfully"
	MessageCreatedConflicts = "Appointment created but conflicts detected"
	MessageUpdated          = "Appointment updated successfully"
	MessageUpdatedConflicts = "Appointment updated but conflicts detected"
	MessageDeleted          = "Appointment deleted successfully"
)

// WriteResult is returned by create and update. Conflicts are advisory: the
// write has already happened when they are reported.
type WriteResult struct {
	Appointment *Appointment `json:"data"`
	ConflictResult
	Message string `json:"message"`
}

type Service struct {
	repo   Repository
	cache  SummaryInvalidator
	slots  SlotSet
	logger zerolog.Logger
}

func NewService(repo Repository, cache SummaryInvalidator, slots SlotSet, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		slots:  slots,
		logger: logger,
	}
}

func (s *Service) Slots() SlotSet {
	return s.slots
}

// CheckConflicts looks up every appointment sharing the target's slot with
// its patient or doctor and runs the detector over them. A store failure is
// returned as an error, never as "no conflict".
func (s *Service) CheckConflicts(ctx context.Context, target Target) (ConflictResult, error) {
	peers, err := s.repo.FindSlotPeers(ctx, target.Date, target.Time, target.PatientID, target.DoctorID)
	if err != nil {
		return ConflictResult{}, fmt.Errorf("check conflicts: %w", err)
	}
	return DetectConflicts(target, peers), nil
}

// CheckCandidate validates a proposed booking and reports its conflicts
// without persisting anything.
func (s *Service) CheckCandidate(ctx context.Context, in CandidateInput) (ConflictResult, error) {
	target, err := in.toTarget(s.slots)
	if err != nil {
		return ConflictResult{}, err
	}
	return s.CheckConflicts(ctx, target)
}

// CreateAppointment books a slot. Conflicts never block the booking; they are
// returned alongside the created row so callers can warn.
func (s *Service) CreateAppointment(ctx context.Context, rc auth.RequestContext, in CreateInput) (*WriteResult, error) {
	appt, err := in.toAppointment(s.slots)
	if err != nil {
		return nil, err
	}
	if rc.Role == auth.RolePatient && appt.PatientID != rc.UserID {
		return nil, ErrForbidden
	}

	if _, err := s.repo.GetPatientByID(ctx, appt.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.repo.GetDoctorByID(ctx, appt.DoctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	conflicts, err := s.CheckConflicts(ctx, appt.Target())
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	if conflicts.Any() {
		s.logger.Info().
			Int64("appointment_id", created.ID).
			Bool("patient_conflict", conflicts.HasPatientConflict).
			Bool("doctor_conflict", conflicts.HasDoctorConflict).
			Msg("appointment booked over an occupied slot")
	}

	s.logEvent(ctx, rc, created.ID, EventAppointmentCreated, map[string]any{
		"patient_id":       created.PatientID,
		"doctor_id":        created.DoctorID,
		"appointment_date": FormatDate(&created.AppointmentDate),
		"time":             created.Time,
		"patient_conflict": conflicts.HasPatientConflict,
		"doctor_conflict":  conflicts.HasDoctorConflict,
	})
	s.invalidate(ctx)

	msg := MessageCreated
	if conflicts.Any() {
		msg = MessageCreatedConflicts
	}
	return &WriteResult{Appointment: created, ConflictResult: conflicts, Message: msg}, nil
}

// UpdateAppointment applies a partial update. When the patch moves the
// appointment onto another slot, conflicts are re-evaluated with the row's own
// id excluded.
func (s *Service) UpdateAppointment(ctx context.Context, rc auth.RequestContext, id int64, in UpdateInput) (*WriteResult, error) {
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !canModify(rc, current) {
		return nil, ErrForbidden
	}

	next, moved, err := in.apply(*current, s.slots)
	if err != nil {
		return nil, err
	}
	if rc.Role == auth.RolePatient && next.PatientID != rc.UserID {
		return nil, ErrForbidden
	}
	reactivated := current.Status == StatusCancelled && next.Status != StatusCancelled

	var conflicts ConflictResult
	if (moved || reactivated) && next.Status != StatusCancelled {
		conflicts, err = s.CheckConflicts(ctx, next.Target())
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateAppointment(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.logEvent(ctx, rc, updated.ID, EventAppointmentUpdated, map[string]any{
		"moved":            moved,
		"patient_conflict": conflicts.HasPatientConflict,
		"doctor_conflict":  conflicts.HasDoctorConflict,
	})
	s.invalidate(ctx)

	msg := MessageUpdated
	if conflicts.Any() {
		msg = MessageUpdatedConflicts
	}
	return &WriteResult{Appointment: updated, ConflictResult: conflicts, Message: msg}, nil
}

// ChangeStatus approves, cancels or completes an appointment. Patients may
// only cancel their own.
func (s *Service) ChangeStatus(ctx context.Context, rc auth.RequestContext, id int64, status Status, reason *string) (*Appointment, string, error) {
	if !status.Valid() {
		return nil, "", ErrInvalidStatus
	}

	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("load appointment: %w", err)
	}
	if !canModify(rc, current) {
		return nil, "", ErrForbidden
	}
	if rc.Role == auth.RolePatient && status != StatusCancelled {
		return nil, "", ErrForbidden
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, status, reason)
	if err != nil {
		return nil, "", fmt.Errorf("change appointment status: %w", err)
	}

	payload := map[string]any{"from": current.Status, "to": status}
	if reason != nil {
		payload["reason"] = *reason
	}
	s.logEvent(ctx, rc, id, EventAppointmentStatusChanged, payload)
	s.invalidate(ctx)

	return updated, fmt.Sprintf("Appointment %s successfully", strings.ToLower(string(status))), nil
}

// DeleteAppointment physically removes a row. Only admins may delete.
func (s *Service) DeleteAppointment(ctx context.Context, rc auth.RequestContext, id int64) error {
	if rc.Role != auth.RoleAdmin {
		return ErrForbidden
	}
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.logEvent(ctx, rc, id, EventAppointmentDeleted, map[string]any{})
	s.invalidate(ctx)
	return nil
}

// GetAppointment retrieves a fully hydrated appointment by ID, with its
// conflict flags.
func (s *Service) GetAppointment(ctx context.Context, rc auth.RequestContext, id int64) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if !canView(rc, &detail.Appointment) {
		return nil, ErrForbidden
	}

	rows := []AppointmentDetail{*detail}
	if err := s.annotate(ctx, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// ListAppointments pages through appointments. Admins and nurses may filter by
// any person id; everyone else only sees appointments they take part in.
func (s *Service) ListAppointments(ctx context.Context, rc auth.RequestContext, q ListQuery) (*Page, error) {
	if !rc.Is(auth.RoleAdmin, auth.RoleNurse) {
		q.PersonID = rc.UserID
	}
	if q.Status != "" && !q.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	q = q.normalize()

	items, total, err := s.repo.ListAppointments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if err := s.annotate(ctx, items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []AppointmentDetail{}
	}

	return &Page{
		Items:        items,
		TotalRecords: total,
		TotalPages:   (total + q.Limit - 1) / q.Limit,
		CurrentPage:  q.Page,
	}, nil
}

func (s *Service) annotate(ctx context.Context, rows []AppointmentDetail) error {
	if len(rows) == 0 {
		return nil
	}
	dates := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		dates = append(dates, r.AppointmentDate)
	}

	peers, err := s.repo.ListByDates(ctx, dates)
	if err != nil {
		return fmt.Errorf("load conflict peers: %w", err)
	}
	AnnotateConflicts(rows, peers)
	return nil
}

func canView(rc auth.RequestContext, a *Appointment) bool {
	switch rc.Role {
	case auth.RolePatient:
		return a.PatientID == rc.UserID
	default:
		return true
	}
}

func canModify(rc auth.RequestContext, a *Appointment) bool {
	switch rc.Role {
	case auth.RolePatient:
		return a.PatientID == rc.UserID
	case auth.RoleDoctor:
		return a.DoctorID == rc.UserID
	default:
		return true
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}

func (s *Service) logEvent(ctx context.Context, rc auth.RequestContext, appointmentID int64, action string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to marshal audit payload")
		data = nil
	}

	var userID *string
	if rc.UserID != "" {
		uid := rc.UserID
		userID = &uid
	}

	entry := AuditLog{
		UserID:    userID,
		RecordID:  strconv.FormatInt(appointmentID, 10),
		Action:    action,
		Details:   data,
		Model:     auditModel,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertAudit(ctx, entry); err != nil {
		s.logger.Error().
			Err(err).
			Str("action", action).
			Int64("appointment_id", appointmentID).
			Msg("failed to insert audit log")
	}
}
