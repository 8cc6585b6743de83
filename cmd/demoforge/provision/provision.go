// Package provisioncmder provides the provision command for building a demo
// environment directly from the CLI.
package provisioncmder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/demoforge/demoforge/pkg/cliui"
	"github.com/demoforge/demoforge/pkg/config"
	"github.com/demoforge/demoforge/pkg/credentials"
	"github.com/demoforge/demoforge/pkg/logger"
	"github.com/demoforge/demoforge/pkg/provision"
	"github.com/demoforge/demoforge/pkg/snowsql"
	"github.com/demoforge/demoforge/pkg/wizard"
)

type provisionCommander struct {
	company     string
	domain      string
	vertical    string
	subVertical string
	audience    string
	useCases    string
	showGuide   bool

	accountURL string
	database   string
	schema     string
	warehouse  string
	agentName  string
	model      string
	rowCount   uint
	maxChunks  uint

	configDir string
	debug     bool
	logger    *slog.Logger
}

const provisionLongDesc string = `Provision a branded demo environment in Snowflake.

Designs a demo scenario for the company, synthesizes structured and
unstructured data, and creates the semantic view, Cortex Search service,
and Cortex agent that power it. Statements run through the Snowflake SQL
REST API using the stored Snowflake token.

Examples:
  demoforge provision --company "Acme Corp" --domain acme.com \
    --vertical "Retail" --audience "retail executives"
  demoforge provision --company "Acme Corp" --domain acme.com \
    --vertical Custom --audience engineers --row-count 100`

const provisionShortDesc string = "Provision a branded demo environment in Snowflake"

func NewProvisionCmd() *cobra.Command {
	cmder := &provisionCommander{}
	fs := config.DefaultFlagSet()

	boundFlags := []string{
		config.FlagAccountURL,
		config.FlagDatabase,
		config.FlagSchema,
		config.FlagWarehouse,
		config.FlagAgentName,
		config.FlagModel,
		config.FlagRowCount,
		config.FlagMaxChunks,
	}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: provisionShortDesc,
		Long:  provisionLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, fs, boundFlags)

			cmder.accountURL = v.GetString("snowflake.account_url")
			cmder.database = v.GetString("snowflake.database")
			cmder.schema = v.GetString("snowflake.schema")
			cmder.warehouse = v.GetString("snowflake.warehouse")
			cmder.agentName = v.GetString("snowflake.agent_name")
			cmder.model = v.GetString("provision.model")
			cmder.rowCount = v.GetUint("provision.row_count")
			cmder.maxChunks = v.GetUint("provision.max_chunks")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.company, "company", "", "Company name to build the demo for (required)")
	cmd.Flags().StringVar(&cmder.domain, "domain", "", "Company web domain (required)")
	cmd.Flags().StringVar(&cmder.vertical, "vertical", "", "Industry vertical (required)")
	cmd.Flags().StringVar(&cmder.subVertical, "sub-vertical", "", "Industry sub-vertical, when the vertical has them")
	cmd.Flags().StringVar(&cmder.audience, "audience", "", "Demo audience (required)")
	cmd.Flags().StringVar(&cmder.useCases, "use-cases", "", "Use cases to emphasize in the demo scenario")
	cmd.Flags().BoolVar(&cmder.showGuide, "guide", true, "Render the generated demo guide after provisioning")

	config.AddStringFlag(cmd, fs, config.FlagAccountURL, &cmder.accountURL)
	config.AddStringFlag(cmd, fs, config.FlagDatabase, &cmder.database)
	config.AddStringFlag(cmd, fs, config.FlagSchema, &cmder.schema)
	config.AddStringFlag(cmd, fs, config.FlagWarehouse, &cmder.warehouse)
	config.AddStringFlag(cmd, fs, config.FlagAgentName, &cmder.agentName)
	config.AddStringFlag(cmd, fs, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, fs, config.FlagRowCount, &cmder.rowCount)
	config.AddUintFlag(cmd, fs, config.FlagMaxChunks, &cmder.maxChunks)

	return cmd
}

func (c *provisionCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	form := wizard.Form{
		CompanyName: c.company,
		Domain:      c.domain,
		Vertical:    c.vertical,
		SubVertical: c.subVertical,
		Audience:    c.audience,
		UseCases:    c.useCases,
		RecordsPerTable: func() int {
			if c.rowCount == 0 {
				return 1
			}
			return int(c.rowCount)
		}(),
	}
	if err := wizard.ValidateForm(form); err != nil {
		return err
	}

	if c.accountURL == "" {
		return fmt.Errorf("snowflake account URL required (set snowflake.account_url or pass --account-url)")
	}

	creds, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	token, err := creds.GetKey("snowflake")
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no Snowflake token found; run 'demoforge auth snowflake' or set SNOWFLAKE_TOKEN")
	}

	sqlClient, err := snowsql.New(snowsql.Config{
		AccountURL: c.accountURL,
		Token:      token,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating snowflake sql client: %w", err)
	}

	fmt.Println()
	fmt.Printf("  %s\n\n", cliui.Banner(c.company, ""))

	steps := newStepPrinter()
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
		RowCount:  form.RecordsPerTable,
		MaxChunks: int(c.maxChunks),
		OnStep:    steps.begin,
	}, sqlClient, c.logger)
	if err != nil {
		return err
	}

	outcome, err := pipeline.Run(context.Background())
	steps.finish(err)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Demo provisioned: %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(outcome.Plan.Title),
	)
	for _, table := range outcome.Tables {
		fmt.Printf("  %s %s %s\n",
			cliui.DimStyle.Render("●"),
			cliui.ValueStyle.Render(table.Name),
			cliui.DimStyle.Render(fmt.Sprintf("(%d records)", table.Records)),
		)
	}
	fmt.Printf("\n  %s %s\n",
		cliui.KeyStyle.Render("Agent:"),
		cliui.NameStyle.Render(fmt.Sprintf("%s.%s.%s", c.database, c.schema, outcome.AgentName)),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Run 'demoforge chat' to converse with it."))

	if c.showGuide && outcome.Guide != "" {
		rendered, err := cliui.RenderMarkdown(outcome.Guide)
		if err != nil {
			rendered = outcome.Guide
		}
		fmt.Println(rendered)
	}

	return nil
}

// stepPrinter prints each pipeline stage as it starts and marks the previous
// one complete with its elapsed time.
type stepPrinter struct {
	current string
	started time.Time
}

func newStepPrinter() *stepPrinter {
	return &stepPrinter{}
}

func (p *stepPrinter) begin(step string) {
	p.closeCurrent(nil)
	p.current = step
	p.started = time.Now()
	fmt.Printf("  %s %s", cliui.DimStyle.Render("…"), step)
}

func (p *stepPrinter) finish(err error) {
	p.closeCurrent(err)
}

func (p *stepPrinter) closeCurrent(err error) {
	if p.current == "" {
		return
	}
	fmt.Printf("\r\033[K  %s %s %s\n",
		cliui.Mark(err),
		p.current,
		cliui.StepStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(time.Since(p.started)))),
	)
	p.current = ""
}
