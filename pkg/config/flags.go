package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --account-url
// on "demoforge chat", "demoforge wizard", and "demoforge provision").
type Flag struct {
	// Name is the long flag name (e.g. "account-url").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "snowflake.account_url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen     = "api-listen"
	FlagAPITarget     = "api-target"
	FlagStorageDriver = "storage-driver"
	FlagSQLite        = "sqlite"
	FlagPostgresDSN   = "postgres-dsn"
	FlagAccountURL    = "account-url"
	FlagDatabase      = "database"
	FlagSchema        = "schema"
	FlagWarehouse     = "warehouse"
	FlagAgentName     = "agent-name"
	FlagModel         = "model"
	FlagRowCount      = "row-count"
	FlagMaxChunks     = "max-chunks"
	FlagEventsProv    = "events-provider"
	FlagEventsBrokers = "events-brokers"
	FlagEventsTopic   = "events-topic"
	FlagWorkerCount   = "worker-count"
	FlagWorkerQueue   = "worker-queue"
)

// DefaultFlagSet returns the standard flag definitions shared across the
// demoforge commands.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagAPIListen: {
			Name: "api-listen", Shorthand: "a", ViperKey: "api.listen",
			Description: "Address for the API server to listen on",
		},
		FlagAPITarget: {
			Name: "api-target", ViperKey: "client.api_target",
			Description: "URL of a running demoforge API server",
		},
		FlagStorageDriver: {
			Name: "storage-driver", ViperKey: "storage.driver",
			Description: "Session storage driver (memory, sqlite, postgres)",
		},
		FlagSQLite: {
			Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path",
			Description: "Path to SQLite database (default: .demoforge/demoforge.db)",
		},
		FlagPostgresDSN: {
			Name: "postgres-dsn", ViperKey: "storage.postgres_dsn",
			Description: "PostgreSQL connection string for the postgres storage driver",
		},
		FlagAccountURL: {
			Name: "account-url", Shorthand: "u", ViperKey: "snowflake.account_url",
			Description: "Snowflake account URL (https://<account>.snowflakecomputing.com)",
		},
		FlagDatabase: {
			Name: "database", ViperKey: "snowflake.database",
			Description: "Snowflake database holding demo objects",
		},
		FlagSchema: {
			Name: "schema", ViperKey: "snowflake.schema",
			Description: "Snowflake schema holding demo objects",
		},
		FlagWarehouse: {
			Name: "warehouse", ViperKey: "snowflake.warehouse",
			Description: "Snowflake warehouse for statement execution",
		},
		FlagAgentName: {
			Name: "agent-name", ViperKey: "snowflake.agent_name",
			Description: "Name of the Cortex agent to converse with",
		},
		FlagModel: {
			Name: "model", ViperKey: "provision.model",
			Description: "Cortex model used for demo content generation",
		},
		FlagRowCount: {
			Name: "row-count", ViperKey: "provision.row_count",
			Description: "Rows to synthesize per structured demo table",
		},
		FlagMaxChunks: {
			Name: "max-chunks", ViperKey: "provision.max_chunks",
			Description: "Maximum document chunks for the unstructured demo table",
		},
		FlagEventsProv: {
			Name: "events-provider", ViperKey: "events.provider",
			Description: "Turn event publisher (nop, kafka)",
		},
		FlagEventsBrokers: {
			Name: "events-brokers", ViperKey: "events.brokers",
			Description: "Comma-separated Kafka broker addresses",
		},
		FlagEventsTopic: {
			Name: "events-topic", ViperKey: "events.topic",
			Description: "Kafka topic for turn-persisted events",
		},
		FlagWorkerCount: {
			Name: "worker-count", ViperKey: "worker.count",
			Description: "Number of async persistence workers",
		},
		FlagWorkerQueue: {
			Name: "worker-queue", ViperKey: "worker.queue_size",
			Description: "Size of the async persistence queue",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
