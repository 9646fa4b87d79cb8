package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Corpus: CorpusConfig{
			Days:      getIntOrDefault("CORPUS_DAYS", 30),
			Seed:      getInt64OrDefault("CORPUS_SEED", 1),
			BatchSize: getIntOrDefault("CORPUS_BATCH_SIZE", 100),
			Workers:   getIntOrDefault("CORPUS_WORKERS", 4),
		},
		Store: StoreConfig{
			DatabasePath: os.Getenv("STORE_DATABASE_PATH"),
		},
		Server: ServerConfig{
			ListenAddr:     getEnvOrDefault("SERVER_LISTEN_ADDR", ":8080"),
			RequestTimeout: getDurationOrDefault("SERVER_REQUEST_TIMEOUT", 10*time.Second),
			CacheTTL:       getDurationOrDefault("SERVER_CACHE_TTL", time.Minute),
			MetricsEnabled: getBoolOrDefault("METRICS_ENABLED", true),
		},
		Directory: DirectoryConfig{
			Path:   os.Getenv("DIRECTORY_PATH"),
			Owners: getListOrDefault("DIRECTORY_OWNERS", []string{"team-ml-platform", "team-search", "team-data"}),
			Zones:  getListOrDefault("DIRECTORY_ZONES", []string{"us-west-2", "us-east-1", "eu-central-1"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	klog.V(2).InfoS("Loaded configuration",
		"corpusDays", cfg.Corpus.Days,
		"corpusSeed", cfg.Corpus.Seed,
		"batchSize", cfg.Corpus.BatchSize,
		"databasePath", cfg.Store.DatabasePath,
		"listenAddr", cfg.Server.ListenAddr)

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.Atoi(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid integer value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid integer value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.ParseBool(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid boolean value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := time.ParseDuration(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid duration value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

// getListOrDefault parses a comma-separated environment variable.
func getListOrDefault(key string, defaultValue []string) []string {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
