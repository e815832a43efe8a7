package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinicx/internal/appointment"
	"github.com/hackgods/clinicx/internal/auth"
)

var errNoPinger = errors.New("no health check configured")

func requestContext(w http.ResponseWriter, r *http.Request) (auth.RequestContext, bool) {
	rc, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", auth.ErrMissingToken.Error())
	}
	return rc, ok
}

func appointmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func listSlotsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SlotsResponse{Data: svc.Slots()})
	}
}

func checkConflictsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointment.CandidateInput
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.CheckCandidate(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}
		var req appointment.CreateInput
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.CreateAppointment(r.Context(), rc, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		search := q.Get("q")
		if search == "" {
			search = q.Get("search")
		}
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		res, err := svc.ListAppointments(r.Context(), rc, appointment.ListQuery{
			Page:     page,
			Limit:    limit,
			Search:   search,
			PersonID: q.Get("id"),
			Status:   appointment.Status(q.Get("status")),
			Sort:     q.Get("sort"),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		detail, err := svc.GetAppointment(r.Context(), rc, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DataResponse[*appointment.AppointmentDetail]{Data: detail})
	}
}

func updateAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}
		var req appointment.UpdateInput
		if !decodeBody(w, r, &req) {
			return
		}

		res, err := svc.UpdateAppointment(r.Context(), rc, id, req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func changeStatusHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}
		var req ChangeStatusRequest
		if !decodeBody(w, r, &req) {
			return
		}

		updated, msg, err := svc.ChangeStatus(r.Context(), rc, id, appointment.Status(req.Status), req.Reason)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ChangeStatusResponse{Data: updated, Message: msg})
	}
}

func deleteAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), rc, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: appointment.MessageDeleted})
	}
}

func adminDashboardHandler(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Admin(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DataResponse[any]{Data: d})
	}
}

func doctorDashboardHandler(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}

		d, err := svc.Doctor(r.Context(), rc)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DataResponse[any]{Data: d})
	}
}

func patientDashboardHandler(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := requestContext(w, r)
		if !ok {
			return
		}

		d, err := svc.Patient(r.Context(), rc, chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DataResponse[any]{Data: d})
	}
}
