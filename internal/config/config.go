// Package config loads sdnalyzer's runtime configuration from the
// environment, the same pattern the rest of the codebase uses for its
// component configs: a plain struct plus a Validate method.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every recognized startup setting (§6 of the spec).
type Config struct {
	// ConnectionString is the Postgres DSN backing the persistent store.
	// Required.
	ConnectionString string

	// ControllerHost and ControllerPort address the SDN controller's
	// base URL, http://{host}:{port}/wm/.
	ControllerHost string
	ControllerPort string

	// PollInterval is the observer's tick cadence.
	PollInterval time.Duration

	// APIPort, APIUsername, APIPassword configure the admin endpoint.
	APIPort     string
	APIUsername string
	APIPassword string
}

const (
	defaultControllerHost = "localhost"
	defaultControllerPort = "8080"
	defaultPollInterval   = 30 * time.Second
	defaultAPIPort        = "8081"
)

// Load reads Config from the environment. Missing required settings are
// fatal at startup, per §7.
func Load() (Config, error) {
	cfg := Config{
		ConnectionString: os.Getenv("SDNALYZER_POSTGRES_DSN"),
		ControllerHost:   getenvDefault("SDNALYZER_CONTROLLER_HOST", defaultControllerHost),
		ControllerPort:   getenvDefault("SDNALYZER_CONTROLLER_PORT", defaultControllerPort),
		PollInterval:     defaultPollInterval,
		APIPort:          getenvDefault("SDNALYZER_API_PORT", defaultAPIPort),
		APIUsername:      os.Getenv("SDNALYZER_API_USERNAME"),
		APIPassword:      os.Getenv("SDNALYZER_API_PASSWORD"),
	}

	if v := os.Getenv("SDNALYZER_POLL_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SDNALYZER_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = time.Duration(secs) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the required settings are present.
func (cfg *Config) Validate() error {
	if cfg.ConnectionString == "" {
		return errors.New("connectionString (SDNALYZER_POSTGRES_DSN) is required")
	}
	if cfg.ControllerHost == "" {
		return errors.New("controller.host is required")
	}
	if cfg.ControllerPort == "" {
		return errors.New("controller.port is required")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("pollInterval must be greater than 0")
	}
	return nil
}

// ControllerBaseURL returns the base URL of the controller's Web Management API.
func (cfg *Config) ControllerBaseURL() string {
	return fmt.Sprintf("http://%s:%s/wm/", cfg.ControllerHost, cfg.ControllerPort)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
