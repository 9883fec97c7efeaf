package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
)

// NewLinkCommand creates the link command with subcommands
func NewLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage production links",
		Long: `Create, tune and remove production links.

A link balances production and consumption of one good across the rows
of a table. An amount of zero balances exactly; a positive amount
requests that much surplus per second. Links on a nested table only see
the rows inside it.

Examples:
  beltplan link create --page Iron --good iron-plate
  beltplan link create --page Iron --good iron-plate --amount 30
  beltplan link set --page Iron --good iron-plate --amount 45
  beltplan link remove --page Iron --good iron-plate`,
	}

	// Add subcommands
	cmd.AddCommand(newLinkCreateCommand())
	cmd.AddCommand(newLinkSetCommand())
	cmd.AddCommand(newLinkRemoveCommand())

	return cmd
}

// newLinkCreateCommand creates the link create subcommand
func newLinkCreateCommand() *cobra.Command {
	var (
		page      string
		tablePath string
		good      string
		quality   string
		amount    float64
		algorithm string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a link",
		Long: `Create a link for a good on a page or one of its nested tables.

Examples:
  beltplan link create --page Iron --good iron-plate
  beltplan link create --page Iron --good iron-plate --amount 30
  beltplan link create --page Iron --table 2 --good iron-ore`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinkCreate(page, tablePath, good, quality, amount, algorithm)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&tablePath, "table", "", "Row path of the nested table to link at")
	cmd.Flags().StringVar(&good, "good", "", "Good name [required]")
	cmd.Flags().StringVar(&quality, "quality", "", "Good quality (default: normal)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Requested surplus per second (0 balances)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Match algorithm hint")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("good")

	return cmd
}

// newLinkSetCommand creates the link set subcommand
func newLinkSetCommand() *cobra.Command {
	var (
		page      string
		tablePath string
		good      string
		quality   string
		amount    float64
		algorithm string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change a link",
		Long: `Change the requested amount or match algorithm of an existing link.
Only the flags you pass change.

Examples:
  beltplan link set --page Iron --good iron-plate --amount 45
  beltplan link set --page Iron --good iron-plate --amount 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := parseRowPath(tablePath)
			if err != nil {
				return err
			}

			request := &commands.SetLinkCommand{
				Page:      page,
				TablePath: path,
				Good:      good,
				Quality:   quality,
			}
			if cmd.Flags().Changed("amount") {
				request.Amount = &amount
			}
			if cmd.Flags().Changed("algorithm") {
				request.Algorithm = &algorithm
			}

			return runLinkSet(request)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&tablePath, "table", "", "Row path of the nested table")
	cmd.Flags().StringVar(&good, "good", "", "Good name [required]")
	cmd.Flags().StringVar(&quality, "quality", "", "Good quality (default: normal)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Requested surplus per second")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Match algorithm hint")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("good")

	return cmd
}

// newLinkRemoveCommand creates the link remove subcommand
func newLinkRemoveCommand() *cobra.Command {
	var (
		page      string
		tablePath string
		good      string
		quality   string
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a link",
		Long: `Remove a link. The good's flows are no longer balanced and feed
the page totals directly.

Example:
  beltplan link remove --page Iron --good iron-plate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinkRemove(page, tablePath, good, quality)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&tablePath, "table", "", "Row path of the nested table")
	cmd.Flags().StringVar(&good, "good", "", "Good name [required]")
	cmd.Flags().StringVar(&quality, "quality", "", "Good quality (default: normal)")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("good")

	return cmd
}

// runLinkCreate executes the link create command
func runLinkCreate(page, tablePath, good, quality string, amount float64, algorithm string) error {
	ctx := context.Background()

	path, err := parseRowPath(tablePath)
	if err != nil {
		return err
	}

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewCreateLinkHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.CreateLinkCommand{
		Page:      page,
		TablePath: path,
		Good:      good,
		Quality:   quality,
		Amount:    amount,
		Algorithm: algorithm,
	})
	if err != nil {
		return err
	}
	response := result.(*commands.CreateLinkResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("✓ Linked %s\n", response.Good)
	printSolveStatus(response.SolveError)

	return nil
}

// runLinkSet executes the link set command
func runLinkSet(request *commands.SetLinkCommand) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewSetLinkHandler(planning.Session)
	result, err := handler.Handle(ctx, request)
	if err != nil {
		return err
	}
	response := result.(*commands.SetLinkResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("✓ Link updated: amount %s", formatFlow(response.Amount))
	if response.Algorithm != "" {
		fmt.Printf(", algorithm %s", response.Algorithm)
	}
	fmt.Println()
	printSolveStatus(response.SolveError)

	return nil
}

// runLinkRemove executes the link remove command
func runLinkRemove(page, tablePath, good, quality string) error {
	ctx := context.Background()

	path, err := parseRowPath(tablePath)
	if err != nil {
		return err
	}

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewRemoveLinkHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.RemoveLinkCommand{
		Page:      page,
		TablePath: path,
		Good:      good,
		Quality:   quality,
	})
	if err != nil {
		return err
	}
	response := result.(*commands.RemoveLinkResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("✓ Unlinked %s\n", response.Good)
	printSolveStatus(response.SolveError)

	return nil
}
