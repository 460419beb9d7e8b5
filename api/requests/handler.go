// Package requests exposes the service request lifecycle over HTTP.
package requests

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/model"
)

type createBody struct {
	ClientID    string            `json:"cliente_id"`
	Service     model.ServiceType `json:"tipo_servicio"`
	Category    model.Category    `json:"categoria"`
	Description string            `json:"descripcion"`
	Location    model.Location    `json:"ubicacion"`
	Urgency     model.Urgency     `json:"urgencia"`
}

type decisionBody struct {
	ProfessionalID string `json:"profesional_id"`
	Reason         string `json:"motivo"`
}

type cancelBody struct {
	Reason string `json:"motivo"`
}

// NewCreateHandler returns the handler for POST /api/solicitudes.
func NewCreateHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body createBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Urgency == "" {
			body.Urgency = model.UrgencyNormal
		}
		req, err := coord.CreateRequest(dispatch.CreateParams{
			ClientID:    body.ClientID,
			Service:     body.Service,
			Category:    body.Category,
			Description: body.Description,
			Location:    body.Location,
			Urgency:     body.Urgency,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, req)
	})
}

// NewGetHandler returns the handler for GET /api/solicitudes/{id}.
func NewGetHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := coord.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	})
}

// NewListHandler returns the handler for GET /api/solicitudes.
func NewListHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, coord.List())
	})
}

// NewAcceptHandler returns the handler for POST /api/solicitudes/{id}/aceptar.
func NewAcceptHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body decisionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req, err := coord.Accept(r.PathValue("id"), body.ProfessionalID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	})
}

// NewRejectHandler returns the handler for POST /api/solicitudes/{id}/rechazar.
// The response reports whether a replacement took over the request.
func NewRejectHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body decisionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		res, err := coord.Reject(r.PathValue("id"), body.ProfessionalID, body.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// NewStartHandler returns the handler for POST /api/solicitudes/{id}/iniciar.
func NewStartHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body decisionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req, err := coord.Start(r.PathValue("id"), body.ProfessionalID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	})
}

// NewCompleteHandler returns the handler for POST /api/solicitudes/{id}/completar.
func NewCompleteHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := coord.Complete(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	})
}

// NewCancelHandler returns the handler for POST /api/solicitudes/{id}/cancelar.
func NewCancelHandler(coord *dispatch.Coordinator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body cancelBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req, err := coord.Cancel(r.PathValue("id"), body.Reason)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrNotAssignedProfessional):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrNoProfessionalsAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrInvalidTransition), errors.Is(err, errs.ErrAlreadyTerminal):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
