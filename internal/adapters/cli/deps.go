package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/progression/queries"
)

// NewDepsCommand creates the deps command with subcommands
func NewDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Inspect dependencies and accessibility",
		Long: `Inspect why an object is or is not reachable.

'deps tree' renders the boolean dependency structure the accessibility
analysis walks, with each requirement's current state. 'deps status'
summarizes one object: reachable at all, automatable, reachable under
the current unlocks, and which milestones gate it.

Examples:
  beltplan deps tree --kind recipe --name kovarex-enrichment-process
  beltplan deps status --kind good --name uranium-235`,
	}

	// Add subcommands
	cmd.AddCommand(newDepsTreeCommand())
	cmd.AddCommand(newDepsStatusCommand())

	return cmd
}

// newDepsTreeCommand creates the deps tree subcommand
func newDepsTreeCommand() *cobra.Command {
	var (
		kind     string
		name     string
		noColors bool
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show an object's dependency tree",
		Long: `Render an object's dependency structure as a tree.

Requirement lists show their category (ingredient, crafting entity,
fuel, ...) and whether all or any listed object satisfies them. Leaves
are marked ✓ when currently accessible.

Examples:
  beltplan deps tree --kind recipe --name iron-plate
  beltplan deps tree --kind technology --name automation`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDepsTree(kind, name, !noColors)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Object kind: good, recipe, technology, entity [required]")
	cmd.Flags().StringVar(&name, "name", "", "Object name [required]")
	cmd.Flags().BoolVar(&noColors, "no-colors", false, "Disable colored output")
	cmd.MarkFlagRequired("kind")
	cmd.MarkFlagRequired("name")

	return cmd
}

// newDepsStatusCommand creates the deps status subcommand
func newDepsStatusCommand() *cobra.Command {
	var (
		kind string
		name string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show an object's accessibility",
		Long: `Summarize one object's accessibility state: reachable at all,
automatable without manual crafting, reachable under the current
unlocks, and the milestones gating it.

Example:
  beltplan deps status --kind good --name uranium-235`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDepsStatus(kind, name)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Object kind: good, recipe, technology, entity [required]")
	cmd.Flags().StringVar(&name, "name", "", "Object name [required]")
	cmd.MarkFlagRequired("kind")
	cmd.MarkFlagRequired("name")

	return cmd
}

// runDepsTree executes the deps tree command
func runDepsTree(kind, name string, useColors bool) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := queries.NewExplainDependenciesHandler(planning.Session)
	result, err := handler.Handle(ctx, &queries.ExplainDependenciesQuery{Kind: kind, Name: name})
	if err != nil {
		return err
	}
	response := result.(*queries.ExplainDependenciesResponse)

	formatter := NewTreeFormatter(useColors)
	color.New(color.FgCyan, color.Bold).Printf("%s\n", response.Object)
	fmt.Print(formatter.FormatTree(response.Root))
	fmt.Printf("\n%s\n", formatter.FormatTreeSummary(response.Root))

	return nil
}

// runDepsStatus executes the deps status command
func runDepsStatus(kind, name string) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := queries.NewGetAccessibilityHandler(planning.Session)
	result, err := handler.Handle(ctx, &queries.GetAccessibilityQuery{Kind: kind, Name: name})
	if err != nil {
		return err
	}
	response := result.(*queries.GetAccessibilityResponse)

	color.New(color.FgCyan, color.Bold).Printf("%s [%s]\n\n", response.Object, response.Kind)
	fmt.Printf("Accessible:        %s\n", checkMark(response.Accessible))
	fmt.Printf("Automatable:       %s\n", checkMark(response.Automatable))
	fmt.Printf("With unlocks:      %s\n", checkMark(response.AccessibleNow))
	fmt.Printf("At next milestone: %s\n", checkMark(response.AccessibleAtNext))

	if response.Highest != "" {
		fmt.Printf("\nGated behind: %s\n", response.Highest)
	}
	if len(response.Milestones) > 0 {
		fmt.Println("Required milestones:")
		for _, milestone := range response.Milestones {
			fmt.Printf("  - %s\n", milestone)
		}
	}

	return nil
}
