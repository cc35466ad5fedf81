package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix namespaces every variable read by ParseEnv.
const Prefix = "LIFE_"

// ParseEnv loads configuration from LIFE_-prefixed environment variables.
// A field tagged `env:"PORT"` reads LIFE_PORT.
func ParseEnv(target any) error {
	return ParseEnvWithPrefix(target, Prefix)
}

// ParseEnvWithPrefix loads configuration using an explicit prefix.
func ParseEnvWithPrefix(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
