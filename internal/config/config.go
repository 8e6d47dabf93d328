package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file omits a value.
const (
	// DefaultDSN is the fallback SQLite database location.
	DefaultDSN = "data/woodquota.db"
	// DefaultAddr is the fallback HTTP listen address.
	DefaultAddr = ":8317"
	// DefaultTZOffsetHours shifts report timestamps for display; storage
	// stays UTC.
	DefaultTZOffsetHours = 3
	// DefaultLogMaxSizeMB caps a single log file before rotation.
	DefaultLogMaxSizeMB = 5
	// DefaultLogMaxBackups caps the number of rotated log files kept.
	DefaultLogMaxBackups = 5
)

// Config is the application configuration loaded once at process start.
type Config struct {
	Database struct {
		DSN string `yaml:"dsn"` // SQLite path or Postgres DSN.
	} `yaml:"database"`

	Server struct {
		Addr string `yaml:"addr"` // HTTP listen address.
	} `yaml:"server"`

	// AdminIDs grants administrator authority to these user IDs in addition
	// to the per-user admin flag stored in the database.
	AdminIDs []uint64 `yaml:"admin_ids"`

	// TZOffsetHours shifts timestamps rendered in reports and exports.
	TZOffsetHours int `yaml:"tz_offset"`

	Log struct {
		File       string `yaml:"file"`        // Log file path, empty for stdout only.
		MaxSizeMB  int    `yaml:"max_size_mb"` // Rotation threshold per file.
		MaxBackups int    `yaml:"max_backups"` // Rotated files kept.
	} `yaml:"log"`
}

// Load reads and parses the YAML config at path, applying defaults for
// missing values. A missing file yields the pure-default config.
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return cfg, nil
	}

	data, errRead := os.ReadFile(trimmed)
	if errRead != nil {
		if os.IsNotExist(errRead) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", trimmed, errRead)
	}

	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", trimmed, errUnmarshal)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// IsConfiguredAdmin reports whether id appears in the configured admin list.
func (c Config) IsConfiguredAdmin(id uint64) bool {
	for _, adminID := range c.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

func defaultConfig() Config {
	var cfg Config
	// tz_offset is seeded here rather than in applyDefaults so that an
	// explicit 0 (UTC) in the file survives.
	cfg.TZOffsetHours = DefaultTZOffsetHours
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = DefaultDSN
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = DefaultLogMaxBackups
	}
}
