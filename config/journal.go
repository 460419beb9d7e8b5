package config

import (
	"fmt"
)

// JournalConfig defines settings for dispatch journal storage.
type JournalConfig struct {
	// Backend selects the journal store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the journal store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *JournalConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "dispatch_journal.log"
	}
}

// Validate checks mandatory fields.
func (c JournalConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
