package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/shaderplan/internal/publish"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScenePath string // .hcl file or directory

	LogFormat string
	LogLevel  string

	// Format selects how plans are written to the output.
	Format string
	// Verify checks every plan for slot collisions and repeated evaluation.
	Verify bool
	// HTTPPort serves /health and /plan when positive.
	HTTPPort int
	// Watch, when positive, polls the scene files at this interval and
	// recompiles on change.
	Watch time.Duration

	// Publish sends plans to a render backend when Publish.URL is set.
	Publish publish.Options
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScenePath == "" {
		return nil, errors.New("ScenePath is a required configuration field and cannot be empty")
	}
	switch cfg.Format {
	case "":
		cfg.Format = FormatJSON
	case FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("invalid format %q: must be '%s' or '%s'", cfg.Format, FormatJSON, FormatText)
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid http port %d", cfg.HTTPPort)
	}
	if cfg.Watch < 0 {
		return nil, fmt.Errorf("invalid watch interval %s", cfg.Watch)
	}
	return &cfg, nil
}
