package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Corpus.Days)
	assert.Equal(t, int64(1), cfg.Corpus.Seed)
	assert.Equal(t, 100, cfg.Corpus.BatchSize)
	assert.Equal(t, 4, cfg.Corpus.Workers)
	assert.Empty(t, cfg.Store.DatabasePath)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.Server.CacheTTL)
	assert.True(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, []string{"team-ml-platform", "team-search", "team-data"}, cfg.Directory.Owners)
	assert.Equal(t, []string{"us-west-2", "us-east-1", "eu-central-1"}, cfg.Directory.Zones)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CORPUS_DAYS", "90")
	t.Setenv("CORPUS_SEED", "1234567890123")
	t.Setenv("CORPUS_BATCH_SIZE", "50")
	t.Setenv("STORE_DATABASE_PATH", "/var/lib/wattwise/ledger.db")
	t.Setenv("SERVER_LISTEN_ADDR", ":9090")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "30s")
	t.Setenv("SERVER_CACHE_TTL", "5m")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DIRECTORY_OWNERS", "team-a, team-b")
	t.Setenv("DIRECTORY_ZONES", "ap-south-1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Corpus.Days)
	assert.Equal(t, int64(1234567890123), cfg.Corpus.Seed)
	assert.Equal(t, 50, cfg.Corpus.BatchSize)
	assert.Equal(t, "/var/lib/wattwise/ledger.db", cfg.Store.DatabasePath)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Server.CacheTTL)
	assert.False(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, []string{"team-a", "team-b"}, cfg.Directory.Owners)
	assert.Equal(t, []string{"ap-south-1"}, cfg.Directory.Zones)
}

func TestLoadFromEnvMalformedValuesFallBack(t *testing.T) {
	t.Setenv("CORPUS_DAYS", "lots")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "soon")
	t.Setenv("METRICS_ENABLED", "maybe")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Corpus.Days)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Server.MetricsEnabled)
}

func TestLoadFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv("CORPUS_DAYS", "-5")
	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Corpus: CorpusConfig{Days: 30, Seed: 1, BatchSize: 100, Workers: 4},
			Server: ServerConfig{ListenAddr: ":8080", RequestTimeout: 10 * time.Second},
			Directory: DirectoryConfig{
				Owners: []string{"team-a"},
				Zones:  []string{"us-west-2"},
			},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero days", func(c *Config) { c.Corpus.Days = 0 }},
		{"zero batch size", func(c *Config) { c.Corpus.BatchSize = 0 }},
		{"zero workers", func(c *Config) { c.Corpus.Workers = 0 }},
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"no owners without file", func(c *Config) { c.Directory.Owners = nil }},
		{"no zones without file", func(c *Config) { c.Directory.Zones = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// A directory file stands in for inline owners and zones.
	cfg := valid()
	cfg.Directory = DirectoryConfig{Path: "/etc/wattwise/directory.yaml"}
	assert.NoError(t, cfg.Validate())
}
