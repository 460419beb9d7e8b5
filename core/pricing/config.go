package pricing

import (
	"fmt"

	"github.com/changared/dispatch/core/model"
)

// Config carries every pricing threshold. Nothing in the engine is a hidden
// constant; operators tune these from the configuration file.
type Config struct {
	// FreeRadiusKm is the distance served without surcharge.
	FreeRadiusKm float64 `json:"free_radius_km"`
	// PerKmRate is the surcharge in minor units per kilometer past the
	// free radius.
	PerKmRate int64 `json:"per_km_rate"`
	// UrgencyPct is the multiplicative surcharge applied to urgent
	// requests, e.g. 0.30 for +30%.
	UrgencyPct float64 `json:"urgency_pct"`
	// CommissionRate is the platform share of the total, e.g. 0.20.
	CommissionRate float64 `json:"commission_rate"`
	// CategoryFactors scales the professional's base rate per work
	// category. A request whose category is missing here is rejected.
	CategoryFactors map[model.Category]float64 `json:"category_factors"`
}

// SetDefaults applies the marketplace defaults.
func (c *Config) SetDefaults() {
	if c.FreeRadiusKm == 0 {
		c.FreeRadiusKm = 3
	}
	if c.PerKmRate == 0 {
		c.PerKmRate = 500
	}
	if c.UrgencyPct == 0 {
		c.UrgencyPct = 0.30
	}
	if c.CommissionRate == 0 {
		c.CommissionRate = 0.20
	}
	if c.CategoryFactors == nil {
		c.CategoryFactors = map[model.Category]float64{
			model.CategoryVisit:        1.0,
			model.CategorySimpleRepair: 1.2,
			model.CategoryMediumRepair: 1.5,
			model.CategoryInstallation: 2.0,
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.FreeRadiusKm < 0 {
		return fmt.Errorf("free radius must be non-negative")
	}
	if c.PerKmRate < 0 {
		return fmt.Errorf("per-km rate must be non-negative")
	}
	if c.UrgencyPct < 0 {
		return fmt.Errorf("urgency percentage must be non-negative")
	}
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("commission rate must be in [0,1)")
	}
	if len(c.CategoryFactors) == 0 {
		return fmt.Errorf("category factors are required")
	}
	for cat, f := range c.CategoryFactors {
		if f <= 0 {
			return fmt.Errorf("category factor for %s must be positive", cat)
		}
	}
	return nil
}
