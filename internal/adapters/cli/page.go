package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
)

// NewPageCommand creates the page command with subcommands
func NewPageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage project pages",
		Long: `Add, list and remove pages of the open project.

A page is one production table solved as a unit. Rows can nest further
tables, but each page is an independent planning problem.

Examples:
  beltplan page add --name Iron
  beltplan page list
  beltplan page remove --page Iron`,
	}

	// Add subcommands
	cmd.AddCommand(newPageAddCommand())
	cmd.AddCommand(newPageListCommand())
	cmd.AddCommand(newPageRemoveCommand())

	return cmd
}

// newPageAddCommand creates the page add subcommand
func newPageAddCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a page",
		Long: `Add an empty page to the project.

Example:
  beltplan page add --name Iron`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageAdd(name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Page name [required]")
	cmd.MarkFlagRequired("name")

	return cmd
}

// newPageListCommand creates the page list subcommand
func newPageListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages",
		Long: `List the project's pages with row counts and solve state.

Example:
  beltplan page list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageList()
		},
	}

	return cmd
}

// newPageRemoveCommand creates the page remove subcommand
func newPageRemoveCommand() *cobra.Command {
	var page string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a page",
		Long: `Remove a page from the project.

Example:
  beltplan page remove --page Iron`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageRemove(page)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.MarkFlagRequired("page")

	return cmd
}

// runPageAdd executes the page add command
func runPageAdd(name string) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewCreatePageHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.CreatePageCommand{Name: name})
	if err != nil {
		return err
	}
	response := result.(*commands.CreatePageResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Println("✓ Page added")
	fmt.Printf("  Name: %s\n", response.Name)
	fmt.Printf("  ID:   %s\n", response.PageID)

	return nil
}

// runPageList executes the page list command
func runPageList() error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	proj := planning.Session.Project()
	if len(proj.Pages) == 0 {
		fmt.Println("No pages found")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Name", "Rows", "Links", "Solve", "ID"}),
	)
	for _, page := range proj.Pages {
		solve := "ok"
		if page.LastSolveError != "" {
			solve = page.LastSolveError
		}
		table.Append([]string{
			page.Name,
			fmt.Sprintf("%d", len(page.Table.Rows)),
			fmt.Sprintf("%d", len(page.Table.Links)),
			solve,
			page.ID.String(),
		})
	}
	table.Render()

	return nil
}

// runPageRemove executes the page remove command
func runPageRemove(page string) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewRemovePageHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.RemovePageCommand{Page: page})
	if err != nil {
		return err
	}
	response := result.(*commands.RemovePageResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("✓ Page %q removed\n", response.Name)
	return nil
}
