package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("missing connection string", func(t *testing.T) {
		cfg := Config{ControllerHost: "h", ControllerPort: "1", PollInterval: time.Second}
		require.Error(t, cfg.Validate())
	})

	t.Run("missing controller host", func(t *testing.T) {
		cfg := Config{ConnectionString: "postgres://x", ControllerPort: "1", PollInterval: time.Second}
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive poll interval", func(t *testing.T) {
		cfg := Config{ConnectionString: "postgres://x", ControllerHost: "h", ControllerPort: "1"}
		require.Error(t, cfg.Validate())
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Config{
			ConnectionString: "postgres://x",
			ControllerHost:   "h",
			ControllerPort:   "1",
			PollInterval:     time.Second,
		}
		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_ControllerBaseURL(t *testing.T) {
	cfg := Config{ControllerHost: "10.0.0.1", ControllerPort: "8080"}
	require.Equal(t, "http://10.0.0.1:8080/wm/", cfg.ControllerBaseURL())
}

func TestLoad_MissingConnectionString(t *testing.T) {
	t.Setenv("SDNALYZER_POSTGRES_DSN", "")
	_, err := Load()
	require.Error(t, err)
}
