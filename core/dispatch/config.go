package dispatch

// Config defines dispatch-related settings.
type Config struct {
	// OfferDeadlineSeconds is how long a professional may sit on an offer
	// before the deadline scheduler rejects it on their behalf.
	OfferDeadlineSeconds int `json:"offer_deadline_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.OfferDeadlineSeconds <= 0 {
		c.OfferDeadlineSeconds = 300
	}
}
