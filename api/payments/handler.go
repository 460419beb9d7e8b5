// Package payments receives payment provider webhooks and reconciles them
// with service requests.
package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/logger"
)

// webhookBody mirrors the Mercado Pago notification shape. The request id
// travels in external_reference.
type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	ExternalReference string `json:"external_reference"`
}

// NewWebhookHandler returns the handler for POST /api/pagos/webhook.
// Notifications that are not payment events are acknowledged and ignored so
// the provider stops retrying them.
func NewWebhookHandler(coord *dispatch.Coordinator, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body webhookBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Type != "payment" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if body.ExternalReference == "" {
			http.Error(w, "missing external_reference", http.StatusBadRequest)
			return
		}
		req, err := coord.MarkPaid(body.ExternalReference)
		switch {
		case err == nil:
		case errors.Is(err, errs.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, errs.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		log.Infof("payment %s confirmed for request %s", body.Data.ID, req.ID)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(req); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
