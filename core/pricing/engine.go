// Package pricing computes the price breakdown for a service request. The
// engine is a pure function of its inputs and configuration; the same inputs
// always quote the same amounts.
package pricing

import (
	"fmt"
	"math"

	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/model"
)

// Engine quotes prices using the configured thresholds.
type Engine struct {
	cfg Config
}

// NewEngine returns an engine for cfg. The configuration is validated once
// here so Quote never revisits it.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	return &Engine{cfg: cfg}, nil
}

// Quote computes the breakdown for one request. baseRate is the assigned
// professional's rate in minor units; the category factor scales it, distance
// past the free radius adds a linear surcharge, urgency multiplies the
// subtotal, and the commission is carved out of the total so that
// total = payout + commission holds exactly.
func (e *Engine) Quote(service model.ServiceType, category model.Category, distanceKm float64, urgency model.Urgency, baseRate int64) (model.PriceBreakdown, error) {
	switch {
	case !service.Valid():
		return model.PriceBreakdown{}, fmt.Errorf("%w: unknown service %q", errs.ErrInvalidInput, service)
	case distanceKm < 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0):
		return model.PriceBreakdown{}, fmt.Errorf("%w: distance %v km", errs.ErrInvalidInput, distanceKm)
	case baseRate <= 0:
		return model.PriceBreakdown{}, fmt.Errorf("%w: base rate %d", errs.ErrInvalidInput, baseRate)
	case !urgency.Valid():
		return model.PriceBreakdown{}, fmt.Errorf("%w: unknown urgency %q", errs.ErrInvalidInput, urgency)
	}
	factor, ok := e.cfg.CategoryFactors[category]
	if !ok {
		return model.PriceBreakdown{}, fmt.Errorf("%w: no rate configured for category %q", errs.ErrInvalidInput, category)
	}

	base := roundMinor(float64(baseRate) * factor)
	var distSurcharge int64
	if extra := distanceKm - e.cfg.FreeRadiusKm; extra > 0 {
		distSurcharge = roundMinor(float64(e.cfg.PerKmRate) * extra)
	}
	subtotal := base + distSurcharge

	var urgSurcharge int64
	if urgency == model.UrgencyUrgent {
		urgSurcharge = roundMinor(float64(subtotal) * e.cfg.UrgencyPct)
	}
	total := subtotal + urgSurcharge
	commission := roundMinor(float64(total) * e.cfg.CommissionRate)
	payout := total - commission

	b := model.PriceBreakdown{
		BaseRate:          base,
		DistanceSurcharge: distSurcharge,
		UrgencySurcharge:  urgSurcharge,
		Commission:        commission,
		Payout:            payout,
		Total:             total,
	}
	if !b.Consistent() {
		return model.PriceBreakdown{}, fmt.Errorf("%w: inconsistent breakdown %+v", errs.ErrInvalidInput, b)
	}
	return b, nil
}

// roundMinor rounds to whole minor units with round-half-to-even so repeated
// quoting does not drift in one direction.
func roundMinor(v float64) int64 {
	return int64(math.RoundToEven(v))
}
