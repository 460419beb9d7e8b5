// Package app assembles the dispatch engine from configuration: roster,
// pricing, notifier, metrics sinks, journal and the REST API.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/changared/dispatch/api/admin"
	"github.com/changared/dispatch/api/payments"
	"github.com/changared/dispatch/api/professionals"
	"github.com/changared/dispatch/api/requests"
	"github.com/changared/dispatch/config"
	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/dispatch/journal"
	"github.com/changared/dispatch/core/geo"
	coremetrics "github.com/changared/dispatch/core/metrics"
	"github.com/changared/dispatch/core/model"
	"github.com/changared/dispatch/core/pricing"
	"github.com/changared/dispatch/infra/logger"
	"github.com/changared/dispatch/infra/metrics"
	"github.com/changared/dispatch/infra/mqtt"
	"github.com/changared/dispatch/internal/eventbus"
)

// Service owns the coordinator and the HTTP surface.
type Service struct {
	Coordinator *dispatch.Coordinator
	Index       *geo.Index

	notifier    *mqtt.PahoNotifier
	presence    *mqtt.PresenceListener
	sched       *dispatch.DeadlineScheduler
	store       journal.Store
	log         logger.Logger
	addr        string
	token       string
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	notifier, err := mqtt.NewPahoNotifier(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt notifier: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken,
			cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	engine, err := pricing.NewEngine(cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("pricing engine: %w", err)
	}

	index := geo.NewIndex()
	if cfg.Seed.Path != "" {
		if err := seedRoster(index, cfg.Seed.Path); err != nil {
			return nil, fmt.Errorf("seed roster: %w", err)
		}
	}

	bus := eventbus.New()
	coord, err := dispatch.NewCoordinator(index, engine, notifier, sink, bus, logg)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	store, err := openJournal(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	coord.SetJournal(store)

	presence, err := mqtt.NewPresenceListener(cfg.MQTT, index)
	if err != nil {
		return nil, fmt.Errorf("presence listener: %w", err)
	}

	return &Service{
		Coordinator: coord,
		Index:       index,
		notifier:    notifier,
		presence:    presence,
		sched:       dispatch.NewDeadlineScheduler(coord, cfg.Dispatch, logg),
		store:       store,
		log:         logg,
		addr:        cfg.API.Addr,
		token:       cfg.API.AdminToken,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Run starts the HTTP servers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.presence != nil {
		go s.presence.Start(ctx)
	}
	if s.sched != nil {
		go s.sched.Run(ctx)
	}
	srv := &http.Server{Addr: s.addr, Handler: s.routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.notifier.Disconnect(250)
	return s.Coordinator.Close()
}

func (s *Service) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /api/solicitudes", requests.NewCreateHandler(s.Coordinator))
	mux.Handle("GET /api/solicitudes", requests.NewListHandler(s.Coordinator))
	mux.Handle("GET /api/solicitudes/{id}", requests.NewGetHandler(s.Coordinator))
	mux.Handle("POST /api/solicitudes/{id}/aceptar", requests.NewAcceptHandler(s.Coordinator))
	mux.Handle("POST /api/solicitudes/{id}/rechazar", requests.NewRejectHandler(s.Coordinator))
	mux.Handle("POST /api/solicitudes/{id}/iniciar", requests.NewStartHandler(s.Coordinator))
	mux.Handle("POST /api/solicitudes/{id}/completar", requests.NewCompleteHandler(s.Coordinator))
	mux.Handle("POST /api/solicitudes/{id}/cancelar", requests.NewCancelHandler(s.Coordinator))
	mux.Handle("POST /api/pagos/webhook", payments.NewWebhookHandler(s.Coordinator, logger.New("payments")))
	mux.Handle("GET /api/profesionales", professionals.NewListHandler(s.Index))
	mux.Handle("GET /api/profesionales/{id}", professionals.NewGetHandler(s.Index))
	mux.Handle("PUT /api/profesionales/{id}", professionals.NewUpsertHandler(s.Index))
	mux.Handle("POST /api/profesionales/{id}/disponibilidad", professionals.NewAvailabilityHandler(s.Index))
	mux.Handle("GET /api/admin/metrics", admin.NewMetricsHandler(s.Coordinator, s.token))
	mux.Handle("GET /api/dispatch/journal", admin.NewJournalHandler(s.store, s.token))
	return mux
}

func openJournal(cfg config.JournalConfig) (journal.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return journal.NewSQLiteStore(cfg.Path)
	default:
		return journal.NewJSONLStore(cfg.Path)
	}
}

func seedRoster(index *geo.Index, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var pros []model.Professional
	if err := json.Unmarshal(data, &pros); err != nil {
		return err
	}
	for _, p := range pros {
		if err := index.Upsert(p); err != nil {
			return fmt.Errorf("professional %s: %w", p.ID, err)
		}
	}
	return nil
}
