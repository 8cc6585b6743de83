// Package chatcmder provides the chat command for interactive conversations
// with a provisioned Cortex agent.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/demoforge/demoforge/pkg/agent"
	"github.com/demoforge/demoforge/pkg/agentstream"
	"github.com/demoforge/demoforge/pkg/cliui"
	"github.com/demoforge/demoforge/pkg/config"
	"github.com/demoforge/demoforge/pkg/credentials"
	"github.com/demoforge/demoforge/pkg/logger"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("agent> ")
)

type chatCommander struct {
	accountURL string
	database   string
	schema     string
	agentName  string
	configDir  string
	debug      bool

	logger *slog.Logger
	client *agent.Client
}

const chatLongDesc string = `Start an interactive chat session with a provisioned Cortex agent.

Questions stream through the agent's :run endpoint; answers print as they
arrive. Charts returned by Cortex Analyst are reported by count, and the
conversation history rides along on every turn.

The Snowflake token comes from "demoforge auth snowflake" or the
SNOWFLAKE_TOKEN environment variable.

Examples:
  demoforge chat
  demoforge chat --agent-name ACME_CORP_AGENT
  demoforge chat --account-url https://myorg-myaccount.snowflakecomputing.com`

const chatShortDesc string = "Interactive chat with a provisioned Cortex agent"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}
	fs := config.DefaultFlagSet()

	boundFlags := []string{
		config.FlagAccountURL,
		config.FlagDatabase,
		config.FlagSchema,
		config.FlagAgentName,
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
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
			cmder.agentName = v.GetString("snowflake.agent_name")
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

	config.AddStringFlag(cmd, fs, config.FlagAccountURL, &cmder.accountURL)
	config.AddStringFlag(cmd, fs, config.FlagDatabase, &cmder.database)
	config.AddStringFlag(cmd, fs, config.FlagSchema, &cmder.schema)
	config.AddStringFlag(cmd, fs, config.FlagAgentName, &cmder.agentName)

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

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

	c.client, err = agent.New(agent.Config{
		AccountURL: c.accountURL,
		Database:   c.database,
		Schema:     c.schema,
		AgentName:  c.agentName,
		Token:      token,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating agent client: %w", err)
	}

	fmt.Println()
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Agent:"),
		cliui.NameStyle.Render(fmt.Sprintf("%s.%s.%s", c.database, c.schema, c.agentName)),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /exit or Ctrl+D to quit."))

	var history []agent.Message
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		result, err := c.askAndStream(input, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		history = append(history, agent.NewTextMessage("user", input))
		history = append(history, agent.NewTextMessage("assistant", result.Text))

		if len(result.Charts) > 0 {
			fmt.Printf("\n  %s\n",
				cliui.DimStyle.Render(fmt.Sprintf("(%d chart(s) returned)", len(result.Charts))))
		}

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// askAndStream sends the question and prints answer tokens as they arrive.
// Status updates print dimmed above the answer.
func (c *chatCommander) askAndStream(question string, history []agent.Message) (*agentstream.Result, error) {
	printedPrompt := false

	handlers := agentstream.Handlers{
		OnStatus: func(_, message string) {
			if message != "" && !printedPrompt {
				fmt.Printf("\r\033[K  %s", cliui.DimStyle.Render(message))
			}
		},
		OnText: func(delta string) {
			if !printedPrompt {
				fmt.Printf("\r\033[K%s", assistantPrompt)
				printedPrompt = true
			}
			fmt.Print(delta)
		},
	}

	result, err := c.client.Ask(context.Background(), question, history, handlers)
	if err != nil {
		// A dropped stream still yields the partial answer.
		if result != nil && result.Text != "" {
			fmt.Printf("\n  %s %v\n", cliui.WarnStyle.Render("!"), err)
			return result, nil
		}
		return nil, err
	}

	if !printedPrompt {
		fmt.Printf("\r\033[K%s%s", assistantPrompt, result.Text)
	}

	return result, nil
}
