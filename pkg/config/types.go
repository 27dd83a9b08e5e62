package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent rewind configuration stored as config.toml
// in the .rewind/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	API     APIConfig     `toml:"api"`
	Client  ClientConfig  `toml:"client"`
	Events  EventsConfig  `toml:"events"`
}

// StorageConfig selects the storage backend for the API server and the
// local blame/seed commands. A database URL selects postgres, a sqlite
// path selects sqlite, and neither selects the in-memory store.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	DatabaseURL string `toml:"database_url,omitempty"`

	// CacheSize enables the LRU read cache in front of the store when
	// greater than zero.
	CacheSize uint `toml:"cache_size,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen     string `toml:"listen,omitempty"`
	AuthSecret string `toml:"auth_secret,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running API
// server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventsConfig holds Kafka event publishing settings. Publishing is off
// unless enabled; an empty topic keeps the per-event-type topics.
type EventsConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.database_url": {
		get: func(c *Config) string { return c.Storage.DatabaseURL },
		set: func(c *Config, v string) error { c.Storage.DatabaseURL = v; return nil },
	},
	"storage.cache_size": {
		get: func(c *Config) string {
			if c.Storage.CacheSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Storage.CacheSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for storage.cache_size: %w", err)
			}
			c.Storage.CacheSize = uint(n)
			return nil
		},
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"api.auth_secret": {
		get: func(c *Config) string { return c.API.AuthSecret },
		set: func(c *Config, v string) error { c.API.AuthSecret = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = SplitBrokers(v)
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

// SplitBrokers parses a comma-separated broker list, trimming whitespace
// and dropping empty entries.
func SplitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
