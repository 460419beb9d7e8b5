package config

// APIConfig defines the HTTP listener settings.
type APIConfig struct {
	// Addr is the listen address of the REST API.
	Addr string `json:"addr"`
	// AdminToken protects the operator endpoints. Empty disables the check.
	AdminToken string `json:"admin_token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// SeedConfig points at an optional professional roster loaded on startup.
type SeedConfig struct {
	// Path is a JSON file holding an array of professionals. Empty skips
	// seeding.
	Path string `json:"path"`
}
