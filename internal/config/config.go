// Package config provides configuration loading and validation for the
// ranking service. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the ranking service.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// CalibrationPath is the optional JSON calibration file layered over
	// the default ranking parameters at startup.
	CalibrationPath string `koanf:"calibration_path"`

	// RedisURL enables the Redis-backed cluster exposure provider when
	// set. Empty means the in-memory provider.
	RedisURL string `koanf:"redis_url"`

	// FingerprintAlgorithm selects the parameter fingerprint digest.
	FingerprintAlgorithm string `koanf:"fingerprint_algorithm"`

	// MaxCandidates bounds the candidate set accepted per request.
	MaxCandidates int `koanf:"max_candidates"`
}

// Configuration validation errors.
var (
	ErrInvalidPort          = errors.New("PORT must be a valid integer in [1, 65535]")
	ErrInvalidMaxCandidates = errors.New("MAX_CANDIDATES must be positive")
)

// Default values for configuration.
const (
	DefaultPort                 = 8080
	DefaultEnv                  = "development"
	DefaultFingerprintAlgorithm = "sha256"
	DefaultMaxCandidates        = 1000
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid). If a config file path is provided and the file cannot be loaded,
// an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try RANKD_PORT first, then PORT for platform compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"RANKD_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	maxCandidates, maxErr := getEnvIntOrDefault("MAX_CANDIDATES", k.Int("max_candidates"), DefaultMaxCandidates)
	if maxErr != nil {
		loadErrs = append(loadErrs, maxErr)
	}

	cfg := &Config{
		Port:                 port,
		Env:                  getEnvOrDefaultMulti([]string{"RANKD_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		CalibrationPath:      getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		RedisURL:             getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		FingerprintAlgorithm: getEnvOrDefault("FINGERPRINT_ALGORITHM", k.String("fingerprint_algorithm"), DefaultFingerprintAlgorithm),
		MaxCandidates:        maxCandidates,
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks the configuration values. Returns a slice of validation
// errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.MaxCandidates < 1 {
		errs = append(errs, ErrInvalidMaxCandidates)
	}

	switch strings.ToLower(c.FingerprintAlgorithm) {
	case "sha256", "fnv1a64":
	default:
		errs = append(errs, fmt.Errorf("unsupported fingerprint algorithm %q", c.FingerprintAlgorithm))
	}

	return errs
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
