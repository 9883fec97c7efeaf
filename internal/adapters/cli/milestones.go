package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/progression/commands"
	"github.com/factorlab/beltplan-go/internal/application/progression/queries"
)

// NewMilestonesCommand creates the milestones command with subcommands
func NewMilestonesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestones",
		Short: "Manage progression milestones",
		Long: `Manage the project's milestone list and accessibility overrides.

Milestones split the game's progression into stages: every object is
tagged with the earliest milestone it becomes reachable under, and rows
using objects beyond an unlocked milestone get warnings instead of being
blocked. Milestone references are technology names by default; prefix
with a kind for other objects ("good:space-science-pack").

Examples:
  beltplan milestones list
  beltplan milestones set automation logistics chemical-science-pack
  beltplan milestones unlock automation
  beltplan milestones mark --kind good --name wood --as inaccessible`,
	}

	// Add subcommands
	cmd.AddCommand(newMilestonesListCommand())
	cmd.AddCommand(newMilestonesSetCommand())
	cmd.AddCommand(newMilestonesUnlockCommand())
	cmd.AddCommand(newMilestonesLockCommand())
	cmd.AddCommand(newMilestonesRecomputeCommand())
	cmd.AddCommand(newMilestonesMarkCommand())

	return cmd
}

// newMilestonesListCommand creates the milestones list subcommand
func newMilestonesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured milestones",
		Long: `List the project's milestones in effective order, with unlock
state and whether each is reachable at all under the current data.

Example:
  beltplan milestones list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestonesList()
		},
	}
}

// newMilestonesSetCommand creates the milestones set subcommand
func newMilestonesSetCommand() *cobra.Command {
	var autoSort bool

	cmd := &cobra.Command{
		Use:   "set [milestone...]",
		Short: "Replace the milestone list",
		Long: `Replace the project's milestone list and recompute accessibility.

Arguments are milestone references in the order you want them; with
auto-sort on (the default) they are reordered by dependency instead.
Passing no arguments clears the list.

Examples:
  beltplan milestones set automation logistics
  beltplan milestones set --auto-sort=false automation logistics
  beltplan milestones set`,
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &commands.SetMilestonesCommand{Milestones: args}
			if cmd.Flags().Changed("auto-sort") {
				request.AutoSort = &autoSort
			}
			return runMilestonesSet(request)
		},
	}

	cmd.Flags().BoolVar(&autoSort, "auto-sort", true, "Reorder milestones by dependency")

	return cmd
}

// newMilestonesUnlockCommand creates the milestones unlock subcommand
func newMilestonesUnlockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <milestone>",
		Short: "Mark a milestone as cleared",
		Long: `Mark a configured milestone as cleared in your save. Objects
gated behind it stop producing "not yet unlocked" warnings.

Example:
  beltplan milestones unlock automation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestonesSetUnlocked(args[0], true)
		},
	}
}

// newMilestonesLockCommand creates the milestones lock subcommand
func newMilestonesLockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lock <milestone>",
		Short: "Mark a milestone as not cleared",
		Long: `Undo an unlock, restoring the milestone's warnings.

Example:
  beltplan milestones lock automation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestonesSetUnlocked(args[0], false)
		},
	}
}

// newMilestonesRecomputeCommand creates the milestones recompute subcommand
func newMilestonesRecomputeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Recompute accessibility",
		Long: `Rerun the full accessibility analysis and re-solve every page.
Useful after editing overrides by hand or reloading game data.

Example:
  beltplan milestones recompute`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestonesRecompute()
		},
	}
}

// newMilestonesMarkCommand creates the milestones mark subcommand
func newMilestonesMarkCommand() *cobra.Command {
	var (
		kind string
		name string
		mark string
	)

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Override an object's accessibility",
		Long: `Force an object to count as accessible or inaccessible regardless
of what the dependency analysis derives, or clear a previous override.

Marking an object inaccessible also hides everything only reachable
through it, which is how mods' scripted or disabled content is pruned.

Examples:
  beltplan milestones mark --kind good --name wood --as inaccessible
  beltplan milestones mark --kind recipe --name fill-crude-oil-barrel --as accessible
  beltplan milestones mark --kind good --name wood --as clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMilestonesMark(kind, name, mark)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Object kind: good, recipe, technology, entity [required]")
	cmd.Flags().StringVar(&name, "name", "", "Object name [required]")
	cmd.Flags().StringVar(&mark, "as", "", "Override: accessible, inaccessible or clear [required]")
	cmd.MarkFlagRequired("kind")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("as")

	return cmd
}

// runMilestonesList executes the milestones list command
func runMilestonesList() error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := queries.NewListMilestonesHandler(planning.Session)
	result, err := handler.Handle(ctx, &queries.ListMilestonesQuery{})
	if err != nil {
		return err
	}
	response := result.(*queries.ListMilestonesResponse)

	if len(response.Milestones) == 0 {
		fmt.Println("No milestones configured. Add some with 'beltplan milestones set'.")
		return nil
	}

	fmt.Printf("Auto-sort: %s\n\n", checkMark(response.AutoSort))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"#", "Milestone", "Kind", "Unlocked", "Reachable"}),
	)
	for _, m := range response.Milestones {
		table.Append([]string{
			fmt.Sprintf("%d", m.Index),
			m.Name,
			m.Kind,
			checkMark(m.Unlocked),
			checkMark(m.Reachable),
		})
	}
	table.Render()

	printWarnings(response.Warnings)

	return nil
}

// runMilestonesSet executes the milestones set command
func runMilestonesSet(request *commands.SetMilestonesCommand) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewSetMilestonesHandler(planning.Session)
	result, err := handler.Handle(ctx, request)
	if err != nil {
		return err
	}
	response := result.(*commands.SetMilestonesResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	if len(response.Milestones) == 0 {
		fmt.Println("✓ Milestones cleared")
	} else {
		fmt.Printf("✓ Milestones set (%d):\n", len(response.Milestones))
		for i, name := range response.Milestones {
			fmt.Printf("  %d. %s\n", i+1, name)
		}
	}
	printWarnings(response.Warnings)

	return nil
}

// runMilestonesSetUnlocked executes the milestones unlock/lock commands
func runMilestonesSetUnlocked(milestone string, unlocked bool) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewSetMilestoneUnlockedHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.SetMilestoneUnlockedCommand{
		Milestone: milestone,
		Unlocked:  unlocked,
	})
	if err != nil {
		return err
	}
	response := result.(*commands.SetMilestoneUnlockedResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	if response.Unlocked {
		fmt.Printf("✓ Unlocked %s\n", response.Milestone)
	} else {
		fmt.Printf("✓ Locked %s\n", response.Milestone)
	}

	return nil
}

// runMilestonesRecompute executes the milestones recompute command
func runMilestonesRecompute() error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewRecomputeMilestonesHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.RecomputeMilestonesCommand{})
	if err != nil {
		return err
	}
	response := result.(*commands.RecomputeMilestonesResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	color.New(color.FgGreen).Println("✓ Accessibility recomputed")
	if len(response.Milestones) > 0 {
		fmt.Printf("  Milestones: %d\n", len(response.Milestones))
	}
	printWarnings(response.Warnings)

	return nil
}

// runMilestonesMark executes the milestones mark command
func runMilestonesMark(kind, name, mark string) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewMarkAccessibilityHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.MarkAccessibilityCommand{
		Kind: kind,
		Name: name,
		Mark: mark,
	})
	if err != nil {
		return err
	}
	response := result.(*commands.MarkAccessibilityResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	state := "inaccessible"
	if response.Accessible {
		state = "accessible"
	}
	fmt.Printf("✓ %s is now %s\n", response.Object, state)

	return nil
}

// printWarnings lists analysis warnings in yellow.
func printWarnings(warnings []string) {
	for _, warning := range warnings {
		color.New(color.FgYellow).Printf("  ⚠ %s\n", warning)
	}
}
