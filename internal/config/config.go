// Package config loads the hausakte configuration.
// Config files are CSV key,value pairs so support can read and edit
// them without tooling.
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hausakte/hausakte/internal/constants"
)

// ServiceKeyEnv is the only accepted source for the backend service key.
// Keys found in config files are ignored.
const ServiceKeyEnv = "HAUSAKTE_SERVICE_KEY"

// Config holds the engine configuration.
type Config struct {
	// Backend settings
	BackendURL string // hosted backend base URL
	Bucket     string // storage bucket for documents
	ServiceKey string // loaded from env, never from file

	// Navigation retry ceiling. 0 means the built-in default.
	MaxRetries int

	// File browser sort preferences (persisted across sessions)
	SortField     string // "name", "size", "modified"
	SortAscending bool

	// Status server
	MetricsAddr string // listen address for /metrics and /healthz
}

// DefaultPath returns the per-user config file location,
// e.g. ~/.config/hausakte/config.csv on Linux.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return constants.AppName + ".csv"
	}
	return filepath.Join(base, constants.AppName, "config.csv")
}

// LoadConfigCSV loads configuration from a CSV file.
// A missing file yields the defaults.
func LoadConfigCSV(path string) (*Config, error) {
	cfg := &Config{
		Bucket:        constants.DefaultBucket,
		MaxRetries:    constants.NavigationMaxRetries,
		SortField:     "name",
		SortAscending: true,
		MetricsAddr:   ":9184",
	}
	cfg.ServiceKey = os.Getenv(ServiceKeyEnv)

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read config CSV: %w", err)
	}

	for i, record := range records {
		if i == 0 && len(record) >= 2 && strings.ToLower(record[0]) == "key" {
			continue // header row
		}
		if len(record) < 2 {
			continue
		}

		key := strings.TrimSpace(strings.ToLower(record[0]))
		value := strings.TrimSpace(record[1])

		switch key {
		case "backend_url":
			cfg.BackendURL = value
		case "bucket":
			if value != "" {
				cfg.Bucket = value
			}
		case "service_key":
			// Service keys in config files are ignored; the key must come
			// from the environment so it never lands in a support bundle.
		case "max_retries":
			if v, err := strconv.Atoi(value); err == nil && v > 0 {
				cfg.MaxRetries = v
			}
		case "sort_field":
			cfg.SortField = value
		case "sort_ascending":
			cfg.SortAscending = strings.ToLower(value) == "true" || value == "1"
		case "metrics_addr":
			cfg.MetricsAddr = value
		}
	}

	return cfg, nil
}

// SaveConfigCSV writes the configuration back as CSV key,value pairs.
// The service key is never written.
func SaveConfigCSV(cfg *Config, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	rows := [][]string{
		{"key", "value"},
		{"backend_url", cfg.BackendURL},
		{"bucket", cfg.Bucket},
		{"max_retries", strconv.Itoa(cfg.MaxRetries)},
		{"sort_field", cfg.SortField},
		{"sort_ascending", strconv.FormatBool(cfg.SortAscending)},
		{"metrics_addr", cfg.MetricsAddr},
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write config row: %w", err)
		}
	}

	return nil
}

// Validate checks that the configuration is usable for backend calls.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url is not configured")
	}
	if c.ServiceKey == "" {
		return fmt.Errorf("service key missing: set %s", ServiceKeyEnv)
	}
	return nil
}
