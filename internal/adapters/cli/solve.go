package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
)

// NewSolveCommand creates the solve command
func NewSolveCommand() *cobra.Command {
	var (
		page string
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Re-solve pages",
		Long: `Run the production solver on one page or every page.

Edits already re-solve on the fly, so this is mainly useful after
changing milestones or settings, or after a data reload.

Examples:
  beltplan solve --page Iron
  beltplan solve --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return runSolveAll()
			}
			if page == "" {
				return fmt.Errorf("either --page or --all is required")
			}
			return runSolvePage(page)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id")
	cmd.Flags().BoolVar(&all, "all", false, "Solve every page")

	return cmd
}

// runSolvePage executes the solve command for a single page
func runSolvePage(page string) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewSolvePageHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.SolvePageCommand{Page: page})
	if err != nil {
		return err
	}
	response := result.(*commands.SolvePageResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	printSolveStatus(response.SolveError)

	return nil
}

// runSolveAll executes the solve command across every page
func runSolveAll() error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	pages := planning.Session.Project().Pages
	if len(pages) == 0 {
		fmt.Println("No pages to solve")
		return nil
	}

	solved := 0
	for _, p := range pages {
		if err := planning.Session.SolvePage(ctx, p); err != nil {
			return fmt.Errorf("failed to solve page %s: %w", p.Name, err)
		}
		if p.LastSolveError == "" {
			solved++
			color.New(color.FgGreen).Printf("✓ %s\n", p.Name)
		} else {
			color.New(color.FgYellow).Printf("⚠ %s: %s\n", p.Name, p.LastSolveError)
		}
	}

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("\nSolved %d/%d pages\n", solved, len(pages))

	return nil
}
