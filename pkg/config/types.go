package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent demoforge configuration stored as
// config.toml in the .demoforge/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	API       APIConfig       `toml:"api"`
	Client    ClientConfig    `toml:"client"`
	Snowflake SnowflakeConfig `toml:"snowflake"`
	Provision ProvisionConfig `toml:"provision"`
	Events    EventsConfig    `toml:"events"`
	Worker    WorkerConfig    `toml:"worker"`
}

// StorageConfig holds session/turn persistence settings shared by the API
// server and the wizard TUI.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// demoforge API server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// SnowflakeConfig holds the Snowflake account and object settings used by
// both the agent client and the provisioning pipeline.
type SnowflakeConfig struct {
	AccountURL string `toml:"account_url,omitempty"`
	Database   string `toml:"database,omitempty"`
	Schema     string `toml:"schema,omitempty"`
	Warehouse  string `toml:"warehouse,omitempty"`
	AgentName  string `toml:"agent_name,omitempty"`
}

// ProvisionConfig holds demo provisioning settings.
type ProvisionConfig struct {
	Model     string `toml:"model,omitempty"`
	RowCount  uint   `toml:"row_count,omitempty"`
	MaxChunks uint   `toml:"max_chunks,omitempty"`
}

// EventsConfig holds turn-event publishing settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// WorkerConfig holds async persistence pool settings.
type WorkerConfig struct {
	Count     uint `toml:"count,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"snowflake.account_url": {
		get: func(c *Config) string { return c.Snowflake.AccountURL },
		set: func(c *Config, v string) error { c.Snowflake.AccountURL = v; return nil },
	},
	"snowflake.database": {
		get: func(c *Config) string { return c.Snowflake.Database },
		set: func(c *Config, v string) error { c.Snowflake.Database = v; return nil },
	},
	"snowflake.schema": {
		get: func(c *Config) string { return c.Snowflake.Schema },
		set: func(c *Config, v string) error { c.Snowflake.Schema = v; return nil },
	},
	"snowflake.warehouse": {
		get: func(c *Config) string { return c.Snowflake.Warehouse },
		set: func(c *Config, v string) error { c.Snowflake.Warehouse = v; return nil },
	},
	"snowflake.agent_name": {
		get: func(c *Config) string { return c.Snowflake.AgentName },
		set: func(c *Config, v string) error { c.Snowflake.AgentName = v; return nil },
	},
	"provision.model": {
		get: func(c *Config) string { return c.Provision.Model },
		set: func(c *Config, v string) error { c.Provision.Model = v; return nil },
	},
	"provision.row_count": {
		get: func(c *Config) string {
			if c.Provision.RowCount == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Provision.RowCount), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for provision.row_count: %w", err)
			}
			c.Provision.RowCount = uint(n)
			return nil
		},
	},
	"provision.max_chunks": {
		get: func(c *Config) string {
			if c.Provision.MaxChunks == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Provision.MaxChunks), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for provision.max_chunks: %w", err)
			}
			c.Provision.MaxChunks = uint(n)
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"worker.count": {
		get: func(c *Config) string {
			if c.Worker.Count == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Worker.Count), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.count: %w", err)
			}
			c.Worker.Count = uint(n)
			return nil
		},
	},
	"worker.queue_size": {
		get: func(c *Config) string {
			if c.Worker.QueueSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Worker.QueueSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.queue_size: %w", err)
			}
			c.Worker.QueueSize = uint(n)
			return nil
		},
	},
}
