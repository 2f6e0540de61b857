package execution

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogConfig contains logging configuration
type LogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format    string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
	Output    string `yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
}

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:     "info",
		Format:    "console",
		Output:    "stderr",
		Timestamp: true,
	}
}

// NewLogger creates a zerolog logger from configuration
func NewLogger(cfg LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	out := outputWriter(cfg.Output)
	var zl zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"})
	} else {
		zl = zerolog.New(out)
	}

	zl = zl.Level(level)
	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	return zl, nil
}

func outputWriter(output string) io.Writer {
	if strings.ToLower(output) == "stdout" {
		return os.Stdout
	}
	return os.Stderr
}
