package execution

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadConfig
const EnvPrefix = "GOPARALLEL"

// LoaderConfig holds optional file overrides
type LoaderConfig struct {
	ConfigFile string // YAML config file path (optional)
	EnvFile    string // .env file path (optional)
}

// LoaderOption is a functional option for LoadConfig
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig builds a Config from defaults, an optional YAML file and the
// environment, in increasing precedence. GOPARALLEL_WORKERS=8 sets workers,
// GOPARALLEL_LOG_LEVEL=debug sets log.level.
func LoadConfig(opts ...LoaderOption) (Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", lc.ConfigFile, err)
		}
	}

	// .env values only fill variables the process environment does not set
	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return Config{}, fmt.Errorf("loading env file %s: %w", lc.EnvFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("ordering", cfg.Ordering)
	v.SetDefault("queue_capacity", cfg.QueueCapacity)
	v.SetDefault("lockfree", cfg.LockFree)
	v.SetDefault("backend", string(cfg.Backend))
	v.SetDefault("max_skew", cfg.MaxSkew)
	v.SetDefault("max_depth", cfg.MaxDepth)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("log.timestamp", cfg.Log.Timestamp)
}
