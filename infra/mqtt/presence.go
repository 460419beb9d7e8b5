package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/changared/dispatch/core/geo"
	"github.com/changared/dispatch/core/model"
	"github.com/changared/dispatch/infra/logger"
)

var (
	presenceUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presence_updates_total",
		Help: "Number of applied professional presence updates",
	})
	presenceErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "presence_update_errors_total",
		Help: "Number of rejected presence updates",
	})
)

func init() {
	prometheus.MustRegister(presenceUpdates, presenceErrors)
}

// presenceUpdate is what professionals publish to <prefix>/<id>/estado.
// Omitted fields keep their current value.
type presenceUpdate struct {
	Lat       *float64 `json:"latitud"`
	Lon       *float64 `json:"longitud"`
	Available *bool    `json:"disponible"`
}

// PresenceListener keeps the roster current by consuming position and
// availability updates that professionals push over MQTT.
type PresenceListener struct {
	cli    paho.Client
	prefix string
	index  *geo.Index
	log    logger.Logger
}

// NewPresenceListener connects to the broker with a dedicated client id.
func NewPresenceListener(cfg Config, index *geo.Index) (*PresenceListener, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	id := cfg.ClientID
	if id != "" {
		id += "-presence"
	} else {
		id = "presence-" + uuid.NewString()
	}
	opts.SetClientID(id)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &PresenceListener{
		cli:    cli,
		prefix: cfg.TopicPrefix,
		index:  index,
		log:    logger.New("presence"),
	}, nil
}

// Start subscribes and blocks until the context is done.
func (l *PresenceListener) Start(ctx context.Context) {
	topic := strings.TrimSuffix(l.prefix, "/") + "/+/estado"
	if token := l.cli.Subscribe(topic, 0, l.onUpdate); token.Wait() && token.Error() != nil {
		l.log.Errorf("subscribe %s: %v", topic, token.Error())
	}
	<-ctx.Done()
	if l.cli.IsConnected() {
		l.cli.Disconnect(250)
	}
}

func (l *PresenceListener) onUpdate(_ paho.Client, msg paho.Message) {
	if err := l.apply(msg.Topic(), msg.Payload()); err != nil {
		presenceErrors.Inc()
		l.log.Errorf("presence update: %v", err)
		return
	}
	presenceUpdates.Inc()
}

func (l *PresenceListener) apply(topic string, payload []byte) error {
	id := professionalFromTopic(topic)
	if id == "" {
		return fmt.Errorf("no professional id in topic %s", topic)
	}
	var up presenceUpdate
	if err := json.Unmarshal(payload, &up); err != nil {
		return fmt.Errorf("decode %s: %w", topic, err)
	}
	if up.Lat != nil && up.Lon != nil {
		if err := l.index.SetLocation(id, model.Location{Lat: *up.Lat, Lon: *up.Lon}); err != nil {
			return err
		}
	}
	if up.Available != nil {
		if err := l.index.SetAvailability(id, *up.Available); err != nil {
			return err
		}
	}
	return nil
}

// professionalFromTopic extracts the id from <prefix>/<id>/estado.
func professionalFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}
