package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/planning/queries"
)

// NewFlowsCommand creates the flows command
func NewFlowsCommand() *cobra.Command {
	var (
		page      string
		showLinks bool
	)

	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Show a page's solved state",
		Long: `Show a page's rows, net flows and links after the last solve.

Rows are listed with their solved rate and building counts, nested rows
with dotted paths. Net flows are per second at the page's top level;
positive is surplus, negative is demand.

Examples:
  beltplan flows --page Iron
  beltplan flows --page Iron --links`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlows(page, showLinks)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().BoolVar(&showLinks, "links", false, "Include the link table")
	cmd.MarkFlagRequired("page")

	return cmd
}

// runFlows executes the flows command
func runFlows(page string, showLinks bool) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := queries.NewGetPageFlowsHandler(planning.Session)
	result, err := handler.Handle(ctx, &queries.GetPageFlowsQuery{Page: page})
	if err != nil {
		return err
	}
	response := result.(*queries.GetPageFlowsResponse)

	displayFlows(response, showLinks)

	return nil
}

// displayFlows renders a page's solved state
func displayFlows(response *queries.GetPageFlowsResponse, showLinks bool) {
	color.New(color.FgCyan, color.Bold).Printf("Page: %s\n", response.Page)
	printSolveStatus(response.SolveError)
	fmt.Println()

	if len(response.Rows) == 0 {
		fmt.Println("No rows. Add one with 'beltplan recipe add'.")
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Row", "Recipe", "Entity", "Rate/s", "Buildings", "Built", "On"}),
	)
	for _, row := range response.Rows {
		name := row.Recipe
		if row.Research {
			name += " (research)"
		}
		table.Append([]string{
			row.Path,
			name,
			row.Entity,
			formatFlow(row.Rate),
			formatCount(row.Buildings),
			formatCount(row.Built),
			checkMark(row.Enabled),
		})
	}
	table.Render()

	for _, row := range response.Rows {
		for _, warning := range row.Warnings {
			color.New(color.FgYellow).Printf("  ⚠ row %s: %s\n", row.Path, warning)
		}
	}

	if len(response.Flows) > 0 {
		fmt.Println()
		color.New(color.Bold).Println("Net flows")
		flowTable := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Good", "Per Second", "Linked"}),
		)
		for _, flow := range response.Flows {
			flowTable.Append([]string{
				displayGood(flow.Good, flow.Quality),
				formatFlow(flow.PerSecond),
				checkMark(flow.Linked),
			})
		}
		flowTable.Render()
	}

	if showLinks {
		fmt.Println()
		color.New(color.Bold).Println("Links")
		if len(response.Links) == 0 {
			fmt.Println("No links. Create one with 'beltplan link create'.")
			return
		}
		linkTable := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Table", "Good", "Amount", "Algorithm", "Flow", "Matched"}),
		)
		for _, link := range response.Links {
			tablePath := link.TablePath
			if tablePath == "" {
				tablePath = "top"
			}
			matched := checkMark(link.Matched)
			if !link.Matched {
				matched = fmt.Sprintf("no (%s unmatched)", formatFlow(link.NotMatched))
			}
			linkTable.Append([]string{
				tablePath,
				displayGood(link.Good, link.Quality),
				formatFlow(link.Amount),
				link.Algorithm,
				formatFlow(link.Flow),
				matched,
			})
		}
		linkTable.Render()
	}
}

// displayGood renders a good with its quality when it is not the baseline.
func displayGood(good, quality string) string {
	if quality == "" || quality == "normal" {
		return good
	}
	return fmt.Sprintf("%s (%s)", good, quality)
}
