// Package wizardcmder provides the interactive demo setup wizard.
package wizardcmder

import (
	"fmt"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/demoforge/demoforge/pkg/brandfetch"
	"github.com/demoforge/demoforge/pkg/config"
	"github.com/demoforge/demoforge/pkg/credentials"
	"github.com/demoforge/demoforge/pkg/dotdir"
	"github.com/demoforge/demoforge/pkg/logger"
	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/storage/inmemory"
	"github.com/demoforge/demoforge/pkg/storage/sqlite"
)

const defaultSQLiteFile = "demoforge.db"

const wizardLongDesc string = `Walk through demo setup interactively.

The wizard collects the company profile, looks up brand assets for the
company domain, and records the logo and color you pick. The finished
session persists locally; provision it with "demoforge provision" or
through the API server.

The Brandfetch key comes from "demoforge auth brandfetch" or the
BRANDFETCH_API_KEY environment variable. Without one, the brand step is
skipped.

Examples:
  demoforge wizard
  demoforge wizard --storage-driver memory`

const wizardShortDesc string = "Interactive demo setup wizard"

type wizardCommander struct {
	storageDriver string
	sqlitePath    string
	configDir     string
	logger        *slog.Logger
}

func NewWizardCmd() *cobra.Command {
	cmder := &wizardCommander{}
	fs := config.DefaultFlagSet()

	boundFlags := []string{
		config.FlagStorageDriver,
		config.FlagSQLite,
	}

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: wizardShortDesc,
		Long:  wizardLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, fs, boundFlags)

			cmder.storageDriver = v.GetString("storage.driver")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)

	return cmd
}

func (c *wizardCommander) run() error {
	// The TUI owns the terminal, so logs go nowhere by default.
	c.logger = logger.Nop()

	store, err := c.createStore()
	if err != nil {
		return err
	}
	defer store.Close()

	brands, err := c.createBrandClient()
	if err != nil {
		return err
	}

	m := newModel(store, brands)
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if fm, ok := final.(model); ok {
		fm.printSummary()
	}

	return nil
}

func (c *wizardCommander) createStore() (storage.Driver, error) {
	if c.storageDriver == "memory" {
		return inmemory.NewDriver(), nil
	}

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
	return store, nil
}

// createBrandClient returns nil when no Brandfetch key is configured; the
// TUI then skips the brand lookup.
func (c *wizardCommander) createBrandClient() (*brandfetch.Client, error) {
	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	key, err := creds.GetKey("brandfetch")
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, nil
	}

	client, err := brandfetch.New(key, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating brandfetch client: %w", err)
	}
	return client, nil
}
