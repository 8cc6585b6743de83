// Package demoforgecmder
package demoforgecmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/demoforge/demoforge/cmd/demoforge/auth"
	chatcmder "github.com/demoforge/demoforge/cmd/demoforge/chat"
	configcmder "github.com/demoforge/demoforge/cmd/demoforge/config"
	provisioncmder "github.com/demoforge/demoforge/cmd/demoforge/provision"
	servecmder "github.com/demoforge/demoforge/cmd/demoforge/serve"
	wizardcmder "github.com/demoforge/demoforge/cmd/demoforge/wizard"
	versioncmder "github.com/demoforge/demoforge/cmd/version"
)

const demoforgeLongDesc string = `Demoforge builds branded Snowflake Intelligence demos in minutes.

Walk through the wizard to describe a company, pick its brand assets,
provision synthetic data and a Cortex agent, then chat with the result:
  demoforge wizard      Interactive demo setup
  demoforge provision   Provision the demo environment
  demoforge chat        Converse with the provisioned agent
  demoforge serve       Run the demoforge API server`

const demoforgeShortDesc string = "Demoforge - Branded Snowflake demos"

func NewDemoforgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demoforge",
		Short: demoforgeShortDesc,
		Long:  demoforgeLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .demoforge/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(wizardcmder.NewWizardCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(provisioncmder.NewProvisionCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
