package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `api:
  addr: ":9000"
  admin_token: "secreto"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  topic_prefix: "changared/profesionales"
  use_tls: false
pricing:
  free_radius_km: 3
  per_km_rate: 500
  urgency_pct: 0.30
  commission_rate: 0.20
dispatch:
  offer_deadline_seconds: 120
metrics:
  prometheus_enabled: true
  prometheus_port: ":2112"
journal:
  backend: "sqlite"
  path: "journal.db"
seed:
  path: "profesionales.json"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"api.addr", cfg.API.Addr, ":9000"},
		{"api.admin_token", cfg.API.AdminToken, "secreto"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "changared/profesionales"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"free_radius_km", cfg.Pricing.FreeRadiusKm, 3.0},
		{"per_km_rate", cfg.Pricing.PerKmRate, int64(500)},
		{"offer_deadline_seconds", cfg.Dispatch.OfferDeadlineSeconds, 120},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":2112"},
		{"journal.backend", cfg.Journal.Backend, "sqlite"},
		{"journal.path", cfg.Journal.Path, "journal.db"},
		{"seed.path", cfg.Seed.Path, "profesionales.json"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	// Defaults fill what the file leaves out.
	if cfg.Pricing.CategoryFactors["instalacion"] != 2.0 {
		t.Errorf("category factor default missing: %v", cfg.Pricing.CategoryFactors)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"journal": {"backend": "postgres"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown journal backend")
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
