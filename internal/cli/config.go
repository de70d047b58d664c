package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-driven defaults for the CLI. Flags override
// environment, environment overrides the built-in defaults.
type Config struct {
	// DB is the snapshot database path.
	DB string `env:"WEFT_DB" envDefault:"weft.db"`

	// MaxSteps bounds reaction cascades per root dispatch.
	MaxSteps int `env:"WEFT_MAX_STEPS" envDefault:"1000"`

	// TraceCapacity bounds the in-memory trace ring.
	TraceCapacity int `env:"WEFT_TRACE_CAPACITY" envDefault:"512"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
