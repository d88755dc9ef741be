package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding ties a config key to its environment variable.
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func envBindings() []envBinding {
	return []envBinding{
		{"http.addr", "HORIZON_HTTP_ADDR", nil},
		{"http.shutdown_timeout", "HORIZON_HTTP_SHUTDOWN_TIMEOUT", validateEnvDuration},
		{"log.level", "HORIZON_LOG_LEVEL", validateEnvLevel},
		{"auth.enabled", "HORIZON_AUTH_ENABLED", validateEnvBool},
		{"auth.token", "HORIZON_AUTH_TOKEN", nil},
		{"cors.origins", "HORIZON_CORS_ORIGINS", nil},
		{"calculator.reference_speed", "HORIZON_REFERENCE_SPEED", validateEnvPositiveFloat},
		{"policy.time_dilation_threshold", "HORIZON_POLICY_TIME_DILATION_THRESHOLD", validateEnvPositiveFloat},
		{"policy.escape_fraction", "HORIZON_POLICY_ESCAPE_FRACTION", validateEnvPositiveFloat},
		{"cache.ttl", "HORIZON_CACHE_TTL", validateEnvDuration},
		{"cache.cleanup", "HORIZON_CACHE_CLEANUP", validateEnvDuration},
		{"stream.max_concurrent_per_ip", "HORIZON_STREAM_MAX_CONCURRENT", validateEnvPositiveInt},
		{"stream.max_total", "HORIZON_STREAM_MAX_TOTAL", validateEnvPositiveInt},
		{"stream.keepalive", "HORIZON_STREAM_KEEPALIVE", validateEnvDuration},
		{"stream.trust_proxy", "HORIZON_STREAM_TRUST_PROXY", validateEnvBool},
	}
}

// bindEnvVars binds every HORIZON_* variable and rejects malformed values
// up front, so a typo fails startup instead of silently using a default.
func bindEnvVars(v *viper.Viper) error {
	var problems []string

	for _, b := range envBindings() {
		if err := v.BindEnv(b.ConfigKey, b.EnvVar); err != nil {
			problems = append(problems, fmt.Sprintf("bind %s: %v", b.EnvVar, err))
			continue
		}
		if b.Validate == nil {
			continue
		}
		if val, ok := os.LookupEnv(b.EnvVar); ok && val != "" {
			if err := b.Validate(val); err != nil {
				problems = append(problems, fmt.Sprintf("%s=%q: %v", b.EnvVar, val, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true/false, 1/0, t/f")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a Go duration such as 30s or 5m")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f <= 0 {
		return fmt.Errorf("must be positive, got %g", f)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvLevel(value string) error {
	_, err := ParseLevel(value)
	return err
}
