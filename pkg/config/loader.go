package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the provided struct using `env`
// struct tags.
//
// Example:
//
//	type Config struct {
//	    Port    int    `env:"HTTP_PORT" envDefault:"8080"`
//	    Backend string `env:"SEARCH_BACKEND" envDefault:"postgres"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
