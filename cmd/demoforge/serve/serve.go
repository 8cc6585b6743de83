// Package servecmder provides the serve command for running the demoforge
// API server.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/demoforge/demoforge/api"
	"github.com/demoforge/demoforge/pkg/agent"
	"github.com/demoforge/demoforge/pkg/brandfetch"
	"github.com/demoforge/demoforge/pkg/config"
	"github.com/demoforge/demoforge/pkg/credentials"
	"github.com/demoforge/demoforge/pkg/dotdir"
	"github.com/demoforge/demoforge/pkg/eventstream"
	"github.com/demoforge/demoforge/pkg/eventstream/kafka"
	"github.com/demoforge/demoforge/pkg/eventstream/nop"
	"github.com/demoforge/demoforge/pkg/logger"
	"github.com/demoforge/demoforge/pkg/provision"
	"github.com/demoforge/demoforge/pkg/snowsql"
	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/storage/inmemory"
	"github.com/demoforge/demoforge/pkg/storage/postgres"
	"github.com/demoforge/demoforge/pkg/storage/sqlite"
	"github.com/demoforge/demoforge/pkg/wizard"
	"github.com/demoforge/demoforge/pkg/worker"
)

const (
	defaultSQLiteFile = "demoforge.db"
	logFileName       = "demoforge.log"
)

type ServeCommander struct {
	listen string

	storageDriver string
	sqlitePath    string
	postgresDSN   string

	accountURL string
	database   string
	schema     string
	warehouse  string
	agentName  string

	model     string
	rowCount  uint
	maxChunks uint

	eventsProvider string
	eventsBrokers  string
	eventsTopic    string

	workerCount uint
	workerQueue uint

	configDir string
	debug     bool
	logger    *slog.Logger
}

const serveLongDesc string = `Run the demoforge API server.

The server exposes the wizard flow over HTTP: session creation, brand
lookup and selection, streamed agent chat, and asynchronous provisioning.
Chat turns persist through an async worker pool and can publish events
to Kafka.

Snowflake and Brandfetch credentials come from "demoforge auth" or the
SNOWFLAKE_TOKEN and BRANDFETCH_API_KEY environment variables. Routes that
need a missing credential answer 503.

Examples:
  demoforge serve
  demoforge serve --api-listen :9090 --storage-driver memory
  demoforge serve --events-provider kafka --events-brokers broker1:9092`

const serveShortDesc string = "Run the demoforge API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}
	fs := config.DefaultFlagSet()

	boundFlags := []string{
		config.FlagAPIListen,
		config.FlagStorageDriver,
		config.FlagSQLite,
		config.FlagPostgresDSN,
		config.FlagAccountURL,
		config.FlagDatabase,
		config.FlagSchema,
		config.FlagWarehouse,
		config.FlagAgentName,
		config.FlagModel,
		config.FlagRowCount,
		config.FlagMaxChunks,
		config.FlagEventsProv,
		config.FlagEventsBrokers,
		config.FlagEventsTopic,
		config.FlagWorkerCount,
		config.FlagWorkerQueue,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, fs, boundFlags)

			cmder.listen = v.GetString("api.listen")
			cmder.storageDriver = v.GetString("storage.driver")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.accountURL = v.GetString("snowflake.account_url")
			cmder.database = v.GetString("snowflake.database")
			cmder.schema = v.GetString("snowflake.schema")
			cmder.warehouse = v.GetString("snowflake.warehouse")
			cmder.agentName = v.GetString("snowflake.agent_name")
			cmder.model = v.GetString("provision.model")
			cmder.rowCount = v.GetUint("provision.row_count")
			cmder.maxChunks = v.GetUint("provision.max_chunks")
			cmder.eventsProvider = v.GetString("events.provider")
			cmder.eventsBrokers = v.GetString("events.brokers")
			cmder.eventsTopic = v.GetString("events.topic")
			cmder.workerCount = v.GetUint("worker.count")
			cmder.workerQueue = v.GetUint("worker.queue_size")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, fs, config.FlagAccountURL, &cmder.accountURL)
	config.AddStringFlag(cmd, fs, config.FlagDatabase, &cmder.database)
	config.AddStringFlag(cmd, fs, config.FlagSchema, &cmder.schema)
	config.AddStringFlag(cmd, fs, config.FlagWarehouse, &cmder.warehouse)
	config.AddStringFlag(cmd, fs, config.FlagAgentName, &cmder.agentName)
	config.AddStringFlag(cmd, fs, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, fs, config.FlagRowCount, &cmder.rowCount)
	config.AddUintFlag(cmd, fs, config.FlagMaxChunks, &cmder.maxChunks)
	config.AddStringFlag(cmd, fs, config.FlagEventsProv, &cmder.eventsProvider)
	config.AddStringFlag(cmd, fs, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddStringFlag(cmd, fs, config.FlagEventsTopic, &cmder.eventsTopic)
	config.AddUintFlag(cmd, fs, config.FlagWorkerCount, &cmder.workerCount)
	config.AddUintFlag(cmd, fs, config.FlagWorkerQueue, &cmder.workerQueue)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = c.createLogger()

	store, err := c.createStore()
	if err != nil {
		return err
	}
	defer store.Close()

	publisher, err := c.createPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Driver:     store,
		Publisher:  publisher,
		NumWorkers: c.workerCount,
		QueueSize:  c.workerQueue,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Close()

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	deps := api.Deps{
		Store:  store,
		Pool:   pool,
		Logger: c.logger,
	}

	snowflakeToken, err := creds.GetKey("snowflake")
	if err != nil {
		return err
	}
	if c.accountURL != "" && snowflakeToken != "" {
		deps.Agent, err = agent.New(agent.Config{
			AccountURL: c.accountURL,
			Database:   c.database,
			Schema:     c.schema,
			AgentName:  c.agentName,
			Token:      snowflakeToken,
		}, c.logger)
		if err != nil {
			return fmt.Errorf("creating agent client: %w", err)
		}

		deps.Provision, err = c.provisionFunc(snowflakeToken)
		if err != nil {
			return err
		}
	} else {
		c.logger.Warn("snowflake account or token not configured, chat and provisioning disabled")
	}

	brandfetchToken, err := creds.GetKey("brandfetch")
	if err != nil {
		return err
	}
	if brandfetchToken != "" {
		deps.Brands, err = brandfetch.New(brandfetchToken, c.logger)
		if err != nil {
			return fmt.Errorf("creating brandfetch client: %w", err)
		}
	} else {
		c.logger.Warn("brandfetch token not configured, brand lookup disabled")
	}

	server, err := api.NewServer(api.Config{ListenAddr: c.listen}, deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// createLogger writes pretty output to stdout and fans out JSON records to
// the dotdir log file when one can be opened.
func (c *ServeCommander) createLogger() *slog.Logger {
	pretty := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	target, err := dotdir.NewManager().Target(c.configDir)
	if err != nil || target == "" {
		return pretty
	}

	f, err := os.OpenFile(filepath.Join(target, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return pretty
	}

	jsonFile := logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f))
	return logger.Multi(pretty, jsonFile)
}

// createStore builds the storage driver named by storage.driver.
func (c *ServeCommander) createStore() (storage.Driver, error) {
	switch c.storageDriver {
	case "memory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case "postgres":
		if c.postgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires --postgres-dsn")
		}
		store, err := postgres.NewDriver(context.Background(), c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating postgres storage: %w", err)
		}
		c.logger.Info("using postgres storage")
		return store, nil

	case "sqlite", "":
		path := c.sqlitePath
		if path == "" {
			target, err := dotdir.NewManager().Target(c.configDir)
			if err != nil {
				return nil, err
			}
			if target == "" {
				path = defaultSQLiteFile
			} else {
				path = filepath.Join(target, defaultSQLiteFile)
			}
		}
		store, err := sqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite storage: %w", err)
		}
		c.logger.Info("using sqlite storage", "path", path)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q (memory, sqlite, postgres)", c.storageDriver)
	}
}

// createPublisher builds the turn event publisher named by events.provider.
func (c *ServeCommander) createPublisher() (eventstream.Publisher, error) {
	switch c.eventsProvider {
	case "kafka":
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: strings.Split(c.eventsBrokers, ","),
			Topic:   c.eventsTopic,
			Logger:  c.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing turn events to kafka", "topic", c.eventsTopic)
		return pub, nil

	case "nop", "":
		return nop.NewPublisher(), nil

	default:
		return nil, fmt.Errorf("unknown events provider %q (nop, kafka)", c.eventsProvider)
	}
}

// provisionFunc builds the pipeline factory the API runs on provision
// requests. Each run gets its own pipeline so step callbacks and random
// seeds stay per-session.
func (c *ServeCommander) provisionFunc(token string) (api.ProvisionFunc, error) {
	sqlClient, err := snowsql.New(snowsql.Config{
		AccountURL: c.accountURL,
		Token:      token,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake sql client: %w", err)
	}

	return func(ctx context.Context, form wizard.Form, _ wizard.BrandChoice, onStep func(string)) (*provision.Outcome, error) {
		rowCount := form.RecordsPerTable
		if rowCount <= 0 {
			rowCount = int(c.rowCount)
		}

		pipeline, err := provision.NewPipeline(provision.Config{
			Company: provision.CompanyProfile{
				Name:        form.CompanyName,
				Domain:      form.Domain,
				Vertical:    form.Vertical,
				SubVertical: form.SubVertical,
				Audience:    form.Audience,
				UseCases:    form.UseCases,
			},
			Database:  c.database,
			Schema:    c.schema,
			Warehouse: c.warehouse,
			AgentName: c.agentName,
			Model:     c.model,
			RowCount:  rowCount,
			MaxChunks: int(c.maxChunks),
			OnStep:    onStep,
		}, sqlClient, c.logger)
		if err != nil {
			return nil, err
		}

		return pipeline.Run(ctx)
	}, nil
}
