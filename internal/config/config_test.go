package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invdash/internal/frame"
	"invdash/internal/selection"
)

var envVars = []string{
	"INVDASH_CONFIG",
	"INVDASH_SERVER_PORT", "INVDASH_SERVER_READ_TIMEOUT",
	"INVDASH_SECURITY_ALLOWED_ORIGINS", "INVDASH_SECURITY_RATE_LIMIT_RPS",
	"INVDASH_LOGGING_LEVEL",
	"INVDASH_PATHS_DATA_DIR",
	"INVDASH_PIPELINE_TIME_CUTOFF", "INVDASH_PIPELINE_DIVISION_POLICY", "INVDASH_PIPELINE_SCHEMA",
	"INVDASH_PIPELINE_CACHE_SIZE",
}

// clearEnv unsets every variable the tests touch; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Security.RateLimit.Enabled)
	assert.Equal(t, 100.0, cfg.Security.RateLimit.RPS)
	assert.Equal(t, "app_data", cfg.Paths.DataDir)
	assert.Equal(t, 40, cfg.Pipeline.TimeCutoff)
	assert.Equal(t, "nan", cfg.Pipeline.DivisionPolicy)
	assert.Equal(t, "half_even", cfg.Pipeline.Rounding)
	assert.Equal(t, selection.OrderUpToLevelEq, cfg.OrderType())
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
server:
  port: 9090
  read_timeout: 5s
paths:
  data_dir: /srv/app_data
pipeline:
  time_cutoff: 41
  rounding: half_away
`)
	t.Setenv("INVDASH_SERVER_PORT", "7070")
	t.Setenv("INVDASH_PIPELINE_DIVISION_POLICY", "ieee")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout, "file wins over default")
	assert.Equal(t, 15*time.Second+DefaultRequestTimeout, cfg.Server.WriteTimeout, "default kept")
	assert.Equal(t, "/srv/app_data", cfg.Paths.DataDir)

	sc, err := cfg.Selection()
	require.NoError(t, err)
	assert.Equal(t, 41, sc.TimeCutoff)
	assert.Equal(t, frame.RoundHalfAway, sc.Rounding)
	assert.Equal(t, frame.DivideIEEE, sc.Division)
	assert.Equal(t, "/srv/app_data", sc.DataDir)
	assert.Equal(t, selection.SchemaFull, sc.Schema)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("INVDASH_CONFIG", writeYAML(t, "pipeline:\n  schema: reward_only\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "reward_only", cfg.Pipeline.Schema)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		yaml    string
		wantErr string
	}{
		{name: "bad port", env: map[string]string{"INVDASH_SERVER_PORT": "70000"}, wantErr: "invalid server port"},
		{name: "bad division policy", env: map[string]string{"INVDASH_PIPELINE_DIVISION_POLICY": "zero"}, wantErr: "unknown division policy"},
		{name: "bad schema", yaml: "pipeline:\n  schema: partial\n", wantErr: "schema"},
		{name: "bad log level", env: map[string]string{"INVDASH_LOGGING_LEVEL": "loud"}, wantErr: "invalid log level"},
		{name: "bad cache size", env: map[string]string{"INVDASH_PIPELINE_CACHE_SIZE": "0"}, wantErr: "cache size"},
		{name: "negative cutoff", env: map[string]string{"INVDASH_PIPELINE_TIME_CUTOFF": "-1"}, wantErr: "time cutoff"},
		{name: "unparsable env", env: map[string]string{"INVDASH_SERVER_PORT": "eighty"}, wantErr: "failed to load config from env"},
		{name: "bad yaml", yaml: "server: [", wantErr: "failed to load config from file"},
		{name: "bad default order type", yaml: "pipeline:\n  default_order_type: FixedOrder\n", wantErr: "order type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
