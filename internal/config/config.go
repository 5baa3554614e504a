// Package config loads auditdedup settings from the environment and the
// command line. Command-line flags take precedence over environment values.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagPoolSize  = "pool-size"
	FlagSieveSize = "sieve-size"
	FlagInput     = "input"
	FlagOutput    = "output"
	FlagBypass    = "bypass"
	FlagDebug     = "debug"
)

// Config holds the runtime settings.
type Config struct {
	// PoolSize is the number of events that may be assembled at once.
	PoolSize int `env:"AUDITDEDUP_POOL_SIZE" envDefault:"10000"`
	// SieveSize is the number of recent fingerprints remembered. 0 disables suppression.
	SieveSize int `env:"AUDITDEDUP_SIEVE_SIZE" envDefault:"4096"`
	// Input is the record source, "-" for stdin.
	Input string `env:"AUDITDEDUP_INPUT" envDefault:"-"`
	// Output is the append-only log, "-" for stdout.
	Output string `env:"AUDITDEDUP_OUTPUT" envDefault:"/var/log/audit/dedup.log"`
	// BypassExpr selects events that are written even when repeated.
	BypassExpr string `env:"AUDITDEDUP_BYPASS_EXPR"`
	// Debug enables development logging.
	Debug bool `env:"AUDITDEDUP_DEBUG"`
}

// ParseEnvConfig reads Config from the environment, applying defaults.
func ParseEnvConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment config: %w", err)
	}
	return &cfg, nil
}

// RegisterFlags declares the command-line flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP(FlagPoolSize, "n", 0, "maximum events assembled at once (env AUDITDEDUP_POOL_SIZE)")
	fs.Int(FlagSieveSize, 0, "recent fingerprints remembered, 0 disables suppression (env AUDITDEDUP_SIEVE_SIZE)")
	fs.StringP(FlagInput, "i", "", "audit record source, - for stdin (env AUDITDEDUP_INPUT)")
	fs.StringP(FlagOutput, "o", "", "output log, - for stdout (env AUDITDEDUP_OUTPUT)")
	fs.StringP(FlagBypass, "b", "", "expression selecting events that are never suppressed (env AUDITDEDUP_BYPASS_EXPR)")
	fs.Bool(FlagDebug, false, "enable debug logging (env AUDITDEDUP_DEBUG)")
}

// Load parses the environment and applies any flags set on fs.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg, err := ParseEnvConfig()
	if err != nil {
		return nil, err
	}

	if fs != nil {
		if err := cfg.applyFlags(fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagPoolSize) {
		if c.PoolSize, err = fs.GetInt(FlagPoolSize); err != nil {
			return err
		}
	}
	if fs.Changed(FlagSieveSize) {
		if c.SieveSize, err = fs.GetInt(FlagSieveSize); err != nil {
			return err
		}
	}
	if fs.Changed(FlagInput) {
		if c.Input, err = fs.GetString(FlagInput); err != nil {
			return err
		}
	}
	if fs.Changed(FlagOutput) {
		if c.Output, err = fs.GetString(FlagOutput); err != nil {
			return err
		}
	}
	if fs.Changed(FlagBypass) {
		if c.BypassExpr, err = fs.GetString(FlagBypass); err != nil {
			return err
		}
	}
	if fs.Changed(FlagDebug) {
		if c.Debug, err = fs.GetBool(FlagDebug); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.PoolSize < 1 {
		return fmt.Errorf("pool size must be at least 1, got %d", c.PoolSize)
	}
	if c.SieveSize < 0 {
		return fmt.Errorf("sieve size must not be negative, got %d", c.SieveSize)
	}
	if c.Input == "" {
		return errors.New("input must not be empty")
	}
	if c.Output == "" {
		return errors.New("output must not be empty")
	}
	return nil
}
