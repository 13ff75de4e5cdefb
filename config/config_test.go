package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "arp-node-registry", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.NATS.URLs, "announcer disabled by default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.Service.Name = "" },
			wantErr: "service.name",
		},
		{
			name:    "http port out of range",
			mutate:  func(c *Config) { c.HTTP.Port = 70000 },
			wantErr: "http.port",
		},
		{
			name:    "zero http port",
			mutate:  func(c *Config) { c.HTTP.Port = 0 },
			wantErr: "http.port",
		},
		{
			name:    "non-positive max request size",
			mutate:  func(c *Config) { c.HTTP.MaxRequestSize = 0 },
			wantErr: "max_request_size",
		},
		{
			name:    "metrics port collision",
			mutate:  func(c *Config) { c.Metrics.Port = c.HTTP.Port },
			wantErr: "collides",
		},
		{
			name: "metrics port ignored when disabled",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.Port = 0
			},
		},
		{
			name: "nats without subject prefix",
			mutate: func(c *Config) {
				c.NATS.URLs = []string{"nats://localhost:4222"}
				c.Events.SubjectPrefix = ""
			},
			wantErr: "subject_prefix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFileEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := NewLoader().LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"service": {"name": "registry-test"},
		"http": {"port": 8181},
		"nats": {"urls": ["nats://localhost:4222"], "reconnect_wait": 5000000000}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "registry-test", cfg.Service.Name)
	assert.Equal(t, 8181, cfg.HTTP.Port)
	assert.Equal(t, []string{"nats://localhost:4222"}, cfg.NATS.URLs)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)

	// Untouched sections keep their defaults
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "arp.nodereg.events", cfg.Events.SubjectPrefix)

	require.NoError(t, cfg.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = NewLoader().LoadFile(path)
	assert.Error(t, err)
}
