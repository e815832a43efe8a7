package api

import (
	"github.com/hackgods/clinicx/internal/appointment"
)

type ChangeStatusRequest struct {
	Status string  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

type ChangeStatusResponse struct {
	Data    *appointment.Appointment `json:"data"`
	Message string                   `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SlotsResponse struct {
	Data []string `json:"data"`
}

// DataResponse wraps a single resource.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
