package payments

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/geo"
	"github.com/changared/dispatch/core/model"
	"github.com/changared/dispatch/core/pricing"
	"github.com/changared/dispatch/infra/logger"
	"github.com/changared/dispatch/infra/mqtt"
)

func fixture(t *testing.T) (*dispatch.Coordinator, *model.ServiceRequest) {
	t.Helper()
	ix := geo.NewIndex()
	err := ix.Upsert(model.Professional{
		ID: "p1", Name: "Ana", Service: model.ServiceLimpieza,
		Location: model.Location{Lat: -27.37, Lon: -55.90}, Available: true, BaseRate: 10000,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	var pcfg pricing.Config
	pcfg.SetDefaults()
	eng, err := pricing.NewEngine(pcfg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	coord, err := dispatch.NewCoordinator(ix, eng, mqtt.NewMockNotifier(), nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	t.Cleanup(func() { _ = coord.Close() })
	req, err := coord.CreateRequest(dispatch.CreateParams{
		ClientID: "c1",
		Service:  model.ServiceLimpieza,
		Category: model.CategoryVisit,
		Location: model.Location{Lat: -27.37, Lon: -55.90},
		Urgency:  model.UrgencyNormal,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return coord, req
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/pagos/webhook", strings.NewReader(body)))
	return rr
}

func TestWebhook_MarksPaid(t *testing.T) {
	coord, req := fixture(t)
	h := NewWebhookHandler(coord, logger.NopLogger{})

	body := `{"type": "payment", "data": {"id": "mp-1"}, "external_reference": "` + req.ID + `"}`
	rr := post(h, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var got model.ServiceRequest
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Payment != model.PaymentPaid {
		t.Fatalf("expected pagado, got %s", got.Payment)
	}
	// Providers retry; the repeat must succeed without side effects.
	if rr := post(h, body); rr.Code != http.StatusOK {
		t.Fatalf("retry status %d", rr.Code)
	}
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	coord, _ := fixture(t)
	h := NewWebhookHandler(coord, logger.NopLogger{})
	rr := post(h, `{"type": "plan", "data": {"id": "x"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestWebhook_Errors(t *testing.T) {
	coord, req := fixture(t)
	h := NewWebhookHandler(coord, logger.NopLogger{})

	if rr := post(h, "{"); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rr.Code)
	}
	if rr := post(h, `{"type": "payment", "data": {"id": "mp-1"}}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing reference: %d", rr.Code)
	}
	if rr := post(h, `{"type": "payment", "data": {"id": "mp-1"}, "external_reference": "nope"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown request: %d", rr.Code)
	}
	if _, err := coord.Cancel(req.ID, "cliente"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	body := `{"type": "payment", "data": {"id": "mp-1"}, "external_reference": "` + req.ID + `"}`
	if rr := post(h, body); rr.Code != http.StatusConflict {
		t.Fatalf("cancelled unpaid: %d", rr.Code)
	}
}
