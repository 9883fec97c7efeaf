package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath  string
	dataPath    string
	projectName string
	verbose     bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "beltplan",
		Short: "Beltplan CLI - Plan production chains against a game definition",
		Long: `Beltplan CLI edits factory plans: pages of recipe rows solved into
per-second flows, with milestone-based accessibility tracking.

Examples:
  beltplan project create --name base
  beltplan recipe add --page Iron --recipe iron-plate
  beltplan recipe configure --page Iron --row 0 --entity electric-furnace
  beltplan link create --page Iron --good iron-plate
  beltplan solve --page Iron
  beltplan flows --page Iron
  beltplan milestones set automation logistics chemical-science-pack
  beltplan deps tree --kind recipe --name electronic-circuit`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "",
		"Path to the game definition JSON file")
	rootCmd.PersistentFlags().StringVar(&projectName, "project", "",
		"Project name (falls back to the configured default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewProjectCommand())
	rootCmd.AddCommand(NewPageCommand())
	rootCmd.AddCommand(NewRecipeCommand())
	rootCmd.AddCommand(NewLinkCommand())
	rootCmd.AddCommand(NewSolveCommand())
	rootCmd.AddCommand(NewFlowsCommand())
	rootCmd.AddCommand(NewMilestonesCommand())
	rootCmd.AddCommand(NewDepsCommand())
	rootCmd.AddCommand(NewUndoCommand())
	rootCmd.AddCommand(NewRedoCommand())
	rootCmd.AddCommand(NewHealthCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
