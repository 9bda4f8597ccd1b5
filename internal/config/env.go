package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds environment overrides.
type Env struct {
	DataDir    string `env:"NBACK_DATA_DIR"`
	ConfigPath string `env:"NBACK_CONFIG"`
	NoColor    string `env:"NO_COLOR"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads Env and fills unset paths with their XDG defaults.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	if e.DataDir == "" {
		e.DataDir = DefaultDataDir()
	}
	if e.ConfigPath == "" {
		e.ConfigPath = DefaultConfigPath()
	}
	return e, nil
}

// ColorDisabled reports whether NO_COLOR is set to any value.
func (e Env) ColorDisabled() bool {
	return e.NoColor != ""
}
