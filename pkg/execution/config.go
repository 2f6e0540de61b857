// Package execution holds the settings and shared resources that pattern
// invocations run under.
package execution

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jzx17/goparallel/pkg/types"
)

// Backend selects how patterns execute
type Backend string

const (
	// BackendParallel runs patterns on worker goroutines
	BackendParallel Backend = "parallel"
	// BackendSequential runs patterns on the calling goroutine, in generator order
	BackendSequential Backend = "sequential"
)

// String returns the backend name
func (b Backend) String() string {
	return string(b)
}

// Config defines the execution settings
type Config struct {
	// Workers is the number of workers per pattern role and the size of the shared pool
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`

	// Ordering makes streaming patterns emit results in generator order
	Ordering bool `yaml:"ordering" mapstructure:"ordering"`

	// QueueCapacity bounds every queue between pattern roles
	QueueCapacity int `yaml:"queue_capacity" mapstructure:"queue_capacity" validate:"gte=1"`

	// LockFree selects the lock-free ring queue
	LockFree bool `yaml:"lockfree" mapstructure:"lockfree"`

	// Backend selects parallel or sequential execution
	Backend Backend `yaml:"backend" mapstructure:"backend" validate:"oneof=parallel sequential"`

	// MaxSkew bounds how far ahead of the release cursor an ordered item may run. Zero is unbounded.
	MaxSkew uint64 `yaml:"max_skew" mapstructure:"max_skew"`

	// MaxDepth caps divide-and-conquer fan-out depth; deeper levels run sequentially. Zero is unbounded.
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth" validate:"gte=0"`

	// Log configures the logger built by LoadConfig callers
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Workers:       runtime.NumCPU(),
		Ordering:      true,
		QueueCapacity: 100,
		LockFree:      false,
		Backend:       BackendParallel,
		Log:           DefaultLogConfig(),
	}
}

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// report mapstructure keys so errors name the setting the user wrote
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// Validate checks every setting and returns one ConfigurationError per invalid field
func (c Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validating config: %w", err)
	}

	errs := make([]error, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, types.NewConfigurationError(fieldPath(e), e.Value(), formatValidationError(e)))
	}
	return errors.Join(errs...)
}

// fieldPath drops the struct name from the validator namespace: Config.log.level -> log.level
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// formatValidationError creates a human-readable error message
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "gte":
		if e.Param() == "1" {
			return "must be positive"
		}
		return "must be at least " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
