package logging

import (
	"io"

	"github.com/clayv/RateGate/pkg/config"
)

// FromConfig builds a Logger from the telemetry.logging section.
func FromConfig(cfg config.LoggingConfig, w io.Writer) (*Logger, error) {
	return New(Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		AddSource:  cfg.AddSource,
		BufferSize: cfg.BufferSize,
		Writer:     w,
	})
}
