package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/metrics"
	"github.com/changared/dispatch/core/pricing"
	"github.com/changared/dispatch/infra/mqtt"
)

type Config struct {
	API      APIConfig       `json:"api"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Pricing  pricing.Config  `json:"pricing"`
	Dispatch dispatch.Config `json:"dispatch"`
	Metrics  metrics.Config  `json:"metrics"`
	Journal  JournalConfig   `json:"journal"`
	Seed     SeedConfig      `json:"seed"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CR_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cr_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Pricing.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Journal.SetDefaults()
	if err := cfg.Pricing.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Journal.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
