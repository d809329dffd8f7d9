// Command tonide drives the workspace service without the gateway: projects
// are created, inspected and built against the configured stores directly.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel   string
	jsonOutput bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tonide",
		Short: "Manage FunC workspaces from the command line",
		Long: `tonide operates on the same project and content stores as the gateway.

Examples:
  # Start a project from the counter template
  tonide create counter --template tonCounter

  # Import an existing project from a zip archive
  tonide import ./wallet.zip --name wallet

  # Compile a project starting at its entry file
  tonide build <project-id> contracts/counter.fc`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newCreateCmd(),
		newImportCmd(),
		newListCmd(),
		newTreeCmd(),
		newCatCmd(),
		newBuildCmd(),
		newDeleteCmd(),
	)
	return root
}
