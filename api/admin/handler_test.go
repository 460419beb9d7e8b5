package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/dispatch/journal"
	"github.com/changared/dispatch/core/geo"
	"github.com/changared/dispatch/core/model"
	"github.com/changared/dispatch/core/pricing"
	"github.com/changared/dispatch/infra/logger"
	"github.com/changared/dispatch/infra/mqtt"
)

type memStore struct{ recs []journal.Record }

func (m *memStore) Append(ctx context.Context, rec journal.Record) error {
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memStore) Query(ctx context.Context, q journal.Query) ([]journal.Record, error) {
	var res []journal.Record
	for _, rec := range m.recs {
		if q.RequestID != "" && rec.RequestID != q.RequestID {
			continue
		}
		if q.Event != "" && rec.Event != q.Event {
			continue
		}
		res = append(res, rec)
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

func newCoordinator(t *testing.T) *dispatch.Coordinator {
	t.Helper()
	ix := geo.NewIndex()
	err := ix.Upsert(model.Professional{
		ID: "p1", Name: "Ana", Service: model.ServicePintor,
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
	return coord
}

func TestMetricsHandler_Auth(t *testing.T) {
	coord := newCoordinator(t)
	h := NewMetricsHandler(coord, "tok")

	req := httptest.NewRequest("GET", "/api/admin/metrics", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var totals dispatch.Totals
	if err := json.Unmarshal(rr.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if totals.ActiveProfessionals != 1 {
		t.Errorf("unexpected totals %+v", totals)
	}
}

func TestJournalHandler_Filters(t *testing.T) {
	store := &memStore{}
	now := time.Now()
	for _, rec := range []journal.Record{
		{Timestamp: now, RequestID: "r1", Event: journal.EventAssigned, State: model.StatePendingConfirmation},
		{Timestamp: now, RequestID: "r1", Event: journal.EventRejected, State: model.StatePendingConfirmation},
		{Timestamp: now, RequestID: "r2", Event: journal.EventAssigned, State: model.StatePendingConfirmation},
	} {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	h := NewJournalHandler(store, "tok")

	req := httptest.NewRequest("GET", "/api/dispatch/journal?solicitud_id=r1&evento=assigned", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var recs []journal.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].RequestID != "r1" || recs[0].Event != journal.EventAssigned {
		t.Fatalf("unexpected records %+v", recs)
	}

	req = httptest.NewRequest("GET", "/api/dispatch/journal", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
