package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/changared/dispatch/core/metrics"
	"github.com/changared/dispatch/core/model"
)

func TestInfluxSink_RecordAssignments(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.AssignmentEvent{
		RequestID:      "req-1",
		ProfessionalID: "pro-1",
		Service:        model.ServiceElectricista,
		Urgency:        model.UrgencyUrgent,
		Outcome:        coremetrics.OutcomeAssigned,
		DistanceKm:     1.2345,
		Total:          20800,
		Payout:         16640,
		Commission:     4160,
		Time:           now,
	}

	if err := sink.RecordAssignments([]coremetrics.AssignmentEvent{ev}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("assignment_event").
		AddTag("request_id", "req-1").
		AddTag("service_type", "electricista").
		AddTag("urgency", "urgente").
		AddTag("outcome", "assigned").
		AddTag("component", "dispatch_coordinator").
		AddField("distance_km", round3(ev.DistanceKm)).
		AddField("total", int64(20800)).
		AddField("payout", int64(16640)).
		AddField("commission", int64(4160)).
		SetTime(now).
		AddTag("professional_id", "pro-1")
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body:\n got %s\nwant %s", body, expected)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
