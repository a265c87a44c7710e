package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envoverlay"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50

	// DefaultEnvPrefix is the prefix of the environment overlay layer:
	// TAGD_PORT, TAGD_RATE_LIMIT_RPS, and so on.
	DefaultEnvPrefix = "TAGD"
)

var (
	// ErrInvalidRateLimit indicates a negative rate-limit setting survived all sources.
	ErrInvalidRateLimit = errors.New("rate limit settings must be >= 0")
	// ErrInvalidEnvironment indicates the environment name is not a known deployment tier.
	ErrInvalidEnvironment = errors.New("environment must be development, staging, or production")
	// ErrInvalidPort indicates an empty listen port.
	ErrInvalidPort = errors.New("port cannot be empty")
)

// Environment is the deployment tier the service runs in. It drives logger
// construction and is overridable like any other setting.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// RateLimit holds the token-bucket settings applied to incoming requests.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Timeouts groups the HTTP server timing knobs.
type Timeouts struct {
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout   time.Duration `yaml:"read_header_timeout"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	IdleTimeout         time.Duration `yaml:"idle_timeout"`
}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment overlay > YAML config > Defaults.
type Config struct {
	Port                 string            `yaml:"port"`
	Environment          Environment       `yaml:"environment"`
	EnableRequestLogging bool              `yaml:"enable_request_logging"`
	Tags                 []string          `yaml:"tags"`
	Labels               map[string]string `yaml:"labels"`
	RateLimit            RateLimit         `yaml:"rate_limit"`
	Timeouts             Timeouts          `yaml:"timeouts"`
}

// The overlay schema is built once at package load. Nested types first, then
// the enumeration members, then the aggregate.
func init() {
	envoverlay.MustRegister[RateLimit]()
	envoverlay.MustRegister[Timeouts]()
	envoverlay.MustRegisterEnum(EnvDevelopment, EnvStaging, EnvProduction)
	envoverlay.MustRegister[Config]()
}

// LoadEnv applies the environment overlay with the given prefix.
func (c *Config) LoadEnv(prefix string) error {
	return envoverlay.LoadPrefix(c, prefix)
}

var _ envoverlay.Loader = (*Config)(nil)

// yamlConfig mirrors the YAML file structure; durations arrive as strings
// ("30s", "1m") and are parsed into the timeout fields.
type yamlConfig struct {
	Port                 string            `yaml:"port"`
	Environment          string            `yaml:"environment"`
	EnableRequestLogging *bool             `yaml:"enable_request_logging"`
	Tags                 []string          `yaml:"tags"`
	Labels               map[string]string `yaml:"labels"`
	RateLimit            *yamlRateLimit    `yaml:"rate_limit"`
	Timeouts             yamlTimeouts      `yaml:"timeouts"`
}

type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type yamlTimeouts struct {
	ShutdownGracePeriod string `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout   string `yaml:"read_header_timeout"`
	WriteTimeout        string `yaml:"write_timeout"`
	IdleTimeout         string `yaml:"idle_timeout"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvPrefix      *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment overlay > YAML config > Defaults.
//
// The environment layer is applied by envoverlay with the TAGD prefix (or the
// prefix given by --env-prefix), so TAGD_PORT, TAGD_TAGS="[edge, eu-west]",
// TAGD_LABELS="{team: core}", TAGD_RATE_LIMIT_RPS and friends all override the
// file. opts are forwarded to the overlay; tests inject a lookup map there.
func Load(overrides *CLIOverrides, opts ...envoverlay.Option) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	prefix := DefaultEnvPrefix
	if overrides != nil && overrides.EnvPrefix != nil && *overrides.EnvPrefix != "" {
		prefix = *overrides.EnvPrefix
	}
	if err := envoverlay.LoadPrefix(&cfg, prefix, opts...); err != nil {
		return Config{}, fmt.Errorf("apply environment overlay: %w", err)
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Environment:          EnvDevelopment,
		EnableRequestLogging: true,
		Tags:                 []string{},
		Labels:               map[string]string{},
		RateLimit: RateLimit{
			RPS:   defaultRateLimitRPS,
			Burst: defaultRateLimitBurst,
		},
		Timeouts: Timeouts{
			ShutdownGracePeriod: 10 * time.Second,
			ReadHeaderTimeout:   5 * time.Second,
			WriteTimeout:        15 * time.Second,
			IdleTimeout:         60 * time.Second,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.Environment != "" {
		cfg.Environment = Environment(yamlCfg.Environment)
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if len(yamlCfg.Tags) > 0 {
		cfg.Tags = yamlCfg.Tags
	}

	if len(yamlCfg.Labels) > 0 {
		cfg.Labels = yamlCfg.Labels
	}

	if yamlCfg.RateLimit != nil {
		if yamlCfg.RateLimit.RPS >= 0 {
			cfg.RateLimit.RPS = yamlCfg.RateLimit.RPS
		}
		if yamlCfg.RateLimit.Burst >= 0 {
			cfg.RateLimit.Burst = yamlCfg.RateLimit.Burst
		}
	}

	applyYAMLDuration(&cfg.Timeouts.ShutdownGracePeriod, yamlCfg.Timeouts.ShutdownGracePeriod)
	applyYAMLDuration(&cfg.Timeouts.ReadHeaderTimeout, yamlCfg.Timeouts.ReadHeaderTimeout)
	applyYAMLDuration(&cfg.Timeouts.WriteTimeout, yamlCfg.Timeouts.WriteTimeout)
	applyYAMLDuration(&cfg.Timeouts.IdleTimeout, yamlCfg.Timeouts.IdleTimeout)
}

func applyYAMLDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimit.RPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimit.Burst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.Port == "" {
		return ErrInvalidPort
	}
	if cfg.RateLimit.RPS < 0 || cfg.RateLimit.Burst < 0 {
		return ErrInvalidRateLimit
	}
	switch cfg.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidEnvironment, cfg.Environment)
	}
	return nil
}
