// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvStorageDir    = "SNIPNOTES_STORAGE_DIR"
	EnvLogLevel      = "SNIPNOTES_LOG_LEVEL"
	EnvLogFile       = "SNIPNOTES_LOG_FILE"
	EnvAuditWorkers  = "SNIPNOTES_AUDIT_WORKERS"
	EnvSnapshotCache = "SNIPNOTES_SNAPSHOT_CACHE"
	EnvTools         = "SNIPNOTES_TOOLS"
)

// LogFileDisabled turns off the log file when used as SNIPNOTES_LOG_FILE
const LogFileDisabled = "-"

// Config holds all configuration for the server.
type Config struct {
	StorageDir    string
	LogLevel      string
	LogFile       string // empty when disabled
	AuditWorkers  int
	SnapshotCache int
	Tools         string // comma-separated tool profiles or names, empty for all
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	storageDir, err := expandHome(getEnv(EnvStorageDir, filepath.Join("~", ".snipnotes")))
	if err != nil {
		return nil, err
	}

	logFile := getEnv(EnvLogFile, filepath.Join(storageDir, "snipnotes.log"))
	if logFile == LogFileDisabled {
		logFile = ""
	} else if logFile, err = expandHome(logFile); err != nil {
		return nil, err
	}

	auditWorkers, err := getEnvAsInt(EnvAuditWorkers, runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	snapshotCache, err := getEnvAsInt(EnvSnapshotCache, 32)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StorageDir:    storageDir,
		LogLevel:      strings.ToLower(getEnv(EnvLogLevel, "info")),
		LogFile:       logFile,
		AuditWorkers:  auditWorkers,
		SnapshotCache: snapshotCache,
		Tools:         getEnv(EnvTools, ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s must be one of debug, info, warn, error (got %q)", EnvLogLevel, c.LogLevel)
	}
	if c.StorageDir == "" {
		return fmt.Errorf("%s must not be empty", EnvStorageDir)
	}
	if c.AuditWorkers < 1 {
		return fmt.Errorf("%s must be at least 1 (got %d)", EnvAuditWorkers, c.AuditWorkers)
	}
	if c.SnapshotCache < 1 {
		return fmt.Errorf("%s must be at least 1 (got %d)", EnvSnapshotCache, c.SnapshotCache)
	}
	return nil
}

// EnsureStorageDir creates the storage directory
func (c *Config) EnsureStorageDir() error {
	if err := os.MkdirAll(c.StorageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", c.StorageDir, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// expandHome replaces a leading "~" with the user's home directory
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
