package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the wattwise dashboard backend.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Directory DirectoryConfig `yaml:"directory"`
}

// CorpusConfig controls historical corpus generation.
type CorpusConfig struct {
	Days      int   `yaml:"days"`      // Historical window to synthesize, in days
	Seed      int64 `yaml:"seed"`      // RNG seed; same seed reproduces the same corpus
	BatchSize int   `yaml:"batchSize"` // Sink delivery batch size
	Workers   int   `yaml:"workers"`   // Concurrent per-day generation workers
}

// StoreConfig selects and configures the persistence sink.
type StoreConfig struct {
	DatabasePath string `yaml:"databasePath"` // SQLite path; empty selects the in-memory store
}

// ServerConfig holds the HTTP host-service settings.
type ServerConfig struct {
	ListenAddr     string        `yaml:"listenAddr"`
	RequestTimeout time.Duration `yaml:"requestTimeout"` // Applied around store access, not pure computation
	CacheTTL       time.Duration `yaml:"cacheTTL"`       // Forecast response cache freshness window
	MetricsEnabled bool          `yaml:"metricsEnabled"`
}

// DirectoryConfig locates the identity/zone source.
type DirectoryConfig struct {
	Path   string   `yaml:"path"`   // YAML directory file; takes precedence when set
	Owners []string `yaml:"owners"` // Inline fallback
	Zones  []string `yaml:"zones"`
}

// Validate performs validation of the configuration.
func (c *Config) Validate() error {
	if c.Corpus.Days <= 0 {
		return fmt.Errorf("corpus day count must be positive")
	}
	if c.Corpus.BatchSize <= 0 {
		return fmt.Errorf("corpus batch size must be positive")
	}
	if c.Corpus.Workers <= 0 {
		return fmt.Errorf("corpus worker count must be positive")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive")
	}
	if c.Directory.Path == "" {
		if len(c.Directory.Owners) == 0 {
			return fmt.Errorf("directory owners are required when no directory file is configured")
		}
		if len(c.Directory.Zones) == 0 {
			return fmt.Errorf("directory zones are required when no directory file is configured")
		}
	}
	return nil
}
