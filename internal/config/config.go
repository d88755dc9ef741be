// Package config loads service settings from defaults, an optional YAML file,
// HORIZON_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/star/horizon/internal/schwarzschild"
)

// Settings is the full service configuration.
type Settings struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Calculator CalculatorConfig `mapstructure:"calculator"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Stream     StreamConfig     `mapstructure:"stream"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// CalculatorConfig carries the reference speed override. Changing it changes
// the physical scenario, not only the display.
type CalculatorConfig struct {
	ReferenceSpeed float64 `mapstructure:"reference_speed"` // km/s
}

type PolicyConfig struct {
	TimeDilationThreshold float64 `mapstructure:"time_dilation_threshold"`
	EscapeFraction        float64 `mapstructure:"escape_fraction"`
}

type CacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Cleanup time.Duration `mapstructure:"cleanup"`
}

type StreamConfig struct {
	MaxConcurrentPerIP int           `mapstructure:"max_concurrent_per_ip"`
	MaxTotal           int           `mapstructure:"max_total"`
	Keepalive          time.Duration `mapstructure:"keepalive"`
	TrustProxy         bool          `mapstructure:"trust_proxy"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token", "")
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("calculator.reference_speed", schwarzschild.SpeedOfLight)
	v.SetDefault("policy.time_dilation_threshold", schwarzschild.DefaultTimeDilationThreshold)
	v.SetDefault("policy.escape_fraction", schwarzschild.DefaultEscapeFraction)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup", 10*time.Minute)
	v.SetDefault("stream.max_concurrent_per_ip", 10)
	v.SetDefault("stream.max_total", 1000)
	v.SetDefault("stream.keepalive", 30*time.Second)
	v.SetDefault("stream.trust_proxy", false)
}

// Load builds Settings from v. When file is non-empty it must exist;
// otherwise horizon.yaml is looked up in the working directory and
// /etc/horizon and skipped if absent.
func Load(v *viper.Viper, file string) (*Settings, error) {
	SetDefaults(v)

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("horizon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/horizon")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidationError collects every problem found in Settings.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(ve.Errors, "; ")
}

// Validate checks cross-field and range constraints.
func (s *Settings) Validate() error {
	var ve ValidationError

	if s.HTTP.Addr == "" {
		ve.Errors = append(ve.Errors, "http.addr must not be empty")
	}
	if s.HTTP.ShutdownTimeout <= 0 {
		ve.Errors = append(ve.Errors, "http.shutdown_timeout must be positive")
	}
	if _, err := ParseLevel(s.Log.Level); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}
	if s.Auth.Enabled && s.Auth.Token == "" {
		ve.Errors = append(ve.Errors, "auth.token is required when auth is enabled")
	}
	if rs := s.Calculator.ReferenceSpeed; rs <= 0 || math.IsInf(rs, 0) || math.IsNaN(rs) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("calculator.reference_speed must be a finite positive number, got %g", rs))
	}
	if err := s.CalculatorPolicy().Validate(); err != nil {
		ve.Errors = append(ve.Errors, "policy: "+err.Error())
	}
	if s.Cache.TTL <= 0 {
		ve.Errors = append(ve.Errors, "cache.ttl must be positive")
	}
	if s.Stream.MaxConcurrentPerIP < 1 {
		ve.Errors = append(ve.Errors, "stream.max_concurrent_per_ip must be at least 1")
	}
	if s.Stream.MaxTotal < s.Stream.MaxConcurrentPerIP {
		ve.Errors = append(ve.Errors, "stream.max_total must be at least stream.max_concurrent_per_ip")
	}
	if s.Stream.Keepalive < time.Second {
		ve.Errors = append(ve.Errors, "stream.keepalive must be at least 1s")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// CalculatorPolicy returns the interpretation thresholds.
func (s *Settings) CalculatorPolicy() schwarzschild.Policy {
	return schwarzschild.Policy{
		TimeDilationThreshold: s.Policy.TimeDilationThreshold,
		EscapeFraction:        s.Policy.EscapeFraction,
	}
}

// DefaultInput returns the reset values with the configured reference speed.
func (s *Settings) DefaultInput() schwarzschild.Input {
	in := schwarzschild.DefaultInput()
	in.ReferenceSpeed = s.Calculator.ReferenceSpeed
	return in
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level %q must be debug, info, warn or error", name)
	}
	return l, nil
}
