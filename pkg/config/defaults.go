package config

const (
	defaultStorageDriver = "sqlite"

	defaultAPIListen       = ":8080"
	defaultClientAPITarget = "http://localhost:8080"

	defaultSnowflakeDatabase  = "DEMOFORGE_DB"
	defaultSnowflakeSchema    = "DEMOS"
	defaultSnowflakeWarehouse = "DEMOFORGE_WH"
	defaultAgentName          = "DEMOFORGE_AGENT"

	defaultProvisionModel     = "claude-4-sonnet"
	defaultProvisionRowCount  = 40
	defaultProvisionMaxChunks = 200

	defaultEventsProvider = "nop"
	defaultEventsBrokers  = "localhost:9092"
	defaultEventsTopic    = "demoforge.turns"

	defaultWorkerCount     = 4
	defaultWorkerQueueSize = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Snowflake: SnowflakeConfig{
			Database:  defaultSnowflakeDatabase,
			Schema:    defaultSnowflakeSchema,
			Warehouse: defaultSnowflakeWarehouse,
			AgentName: defaultAgentName,
		},
		Provision: ProvisionConfig{
			Model:     defaultProvisionModel,
			RowCount:  defaultProvisionRowCount,
			MaxChunks: defaultProvisionMaxChunks,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Brokers:  defaultEventsBrokers,
			Topic:    defaultEventsTopic,
		},
		Worker: WorkerConfig{
			Count:     defaultWorkerCount,
			QueueSize: defaultWorkerQueueSize,
		},
	}
}
