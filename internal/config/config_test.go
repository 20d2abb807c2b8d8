package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "assisted", cfg.Engine.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaultsOverPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crashsense.yaml")
	body := `
server:
  addr: ":9090"
engine:
  mode: rules
notifier:
  gateway_url: "https://sms.example.com/send"
  destination: "+15550100"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "rules", cfg.Engine.Mode)
	assert.Equal(t, 10000, cfg.Reasoner.TimeoutMS)
	assert.Equal(t, 256, cfg.Notifier.QueueSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAPIKeyEnvResolution(t *testing.T) {
	cfg := defaultConfig()
	cfg.Reasoner.APIKeyEnv = "CRASHSENSE_TEST_KEY"
	t.Setenv("CRASHSENSE_TEST_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.ReasonerAPIKey())
}
