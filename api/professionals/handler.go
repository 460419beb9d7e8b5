// Package professionals exposes roster management over HTTP.
package professionals

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/geo"
	"github.com/changared/dispatch/core/model"
)

// NewListHandler returns the handler for GET /api/profesionales.
func NewListHandler(index *geo.Index) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, index.List())
	})
}

// NewGetHandler returns the handler for GET /api/profesionales/{id}.
func NewGetHandler(index *geo.Index) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prof, err := index.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prof)
	})
}

// NewUpsertHandler returns the handler for PUT /api/profesionales/{id}.
// It registers a new professional or replaces an existing one.
func NewUpsertHandler(index *geo.Index) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var prof model.Professional
		if err := json.NewDecoder(r.Body).Decode(&prof); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		prof.ID = r.PathValue("id")
		if err := index.Upsert(prof); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prof)
	})
}

// NewAvailabilityHandler returns the handler for
// POST /api/profesionales/{id}/disponibilidad.
func NewAvailabilityHandler(index *geo.Index) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Available bool `json:"disponible"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		id := r.PathValue("id")
		if err := index.SetAvailability(id, body.Available); err != nil {
			writeError(w, err)
			return
		}
		prof, err := index.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prof)
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
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
