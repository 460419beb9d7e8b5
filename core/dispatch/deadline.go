package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/logger"
	"github.com/changared/dispatch/core/model"
)

// ReasonOfferExpired is recorded when a professional never answered an offer.
const ReasonOfferExpired = "sin respuesta del profesional"

// DeadlineScheduler rejects stale offers on the professional's behalf so a
// silent professional cannot hold a request forever. Each sweep triggers the
// regular reassignment cascade.
type DeadlineScheduler struct {
	coord    *Coordinator
	deadline time.Duration
	interval time.Duration
	log      logger.Logger

	now func() time.Time
}

// NewDeadlineScheduler creates a scheduler from the dispatch configuration.
func NewDeadlineScheduler(coord *Coordinator, cfg Config, log logger.Logger) *DeadlineScheduler {
	cfg.SetDefaults()
	deadline := time.Duration(cfg.OfferDeadlineSeconds) * time.Second
	interval := deadline / 10
	if interval < time.Second {
		interval = time.Second
	}
	return &DeadlineScheduler{
		coord:    coord,
		deadline: deadline,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run sweeps periodically until the context is done.
func (s *DeadlineScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep rejects every offer older than the deadline and returns how many it
// expired. Races with a concurrent accept resolve in the coordinator; a lost
// race is not an error.
func (s *DeadlineScheduler) Sweep() int {
	expired := 0
	cutoff := s.now().Add(-s.deadline)
	for _, req := range s.coord.List() {
		if req.State != model.StatePendingConfirmation || req.ProfessionalID == "" {
			continue
		}
		if req.UpdatedAt.After(cutoff) {
			continue
		}
		res, err := s.coord.Reject(req.ID, req.ProfessionalID, ReasonOfferExpired)
		if err != nil {
			if !errors.Is(err, errs.ErrInvalidTransition) && !errors.Is(err, errs.ErrNotAssignedProfessional) {
				s.log.Errorf("expiring offer on %s: %v", req.ID, err)
			}
			continue
		}
		expired++
		if res.Reassigned {
			s.log.Infof("offer on %s expired, reassigned to %s", req.ID, res.NewProfessionalID)
		} else {
			s.log.Warnf("offer on %s expired with nobody left", req.ID)
		}
	}
	return expired
}
