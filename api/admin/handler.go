// Package admin exposes the operator endpoints: marketplace totals and the
// dispatch journal. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/dispatch/journal"
)

// NewMetricsHandler returns the handler for GET /api/admin/metrics.
func NewMetricsHandler(coord *dispatch.Coordinator, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(coord.Metrics()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// NewJournalHandler returns the handler for GET /api/dispatch/journal.
func NewJournalHandler(store journal.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q := journal.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.RequestID = r.URL.Query().Get("solicitud_id")
		q.Event = r.URL.Query().Get("evento")
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}
