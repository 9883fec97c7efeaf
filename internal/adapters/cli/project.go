package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/adapters/dataload"
	"github.com/factorlab/beltplan-go/internal/domain/project"
	"github.com/factorlab/beltplan-go/internal/infrastructure/database"
)

// NewProjectCommand creates the project command with subcommands
func NewProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage stored projects",
		Long: `Create, inspect and delete factory planning projects.

A project holds milestone settings and any number of pages. Projects are
stored in the project store configured under database settings.

Examples:
  beltplan project create --name base
  beltplan project list
  beltplan project info --project base
  beltplan project delete --project scratch`,
	}

	// Add subcommands
	cmd.AddCommand(newProjectCreateCommand())
	cmd.AddCommand(newProjectListCommand())
	cmd.AddCommand(newProjectInfoCommand())
	cmd.AddCommand(newProjectDeleteCommand())

	return cmd
}

// newProjectCreateCommand creates the project create subcommand
func newProjectCreateCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		Long: `Create a new empty project in the store.

The project starts with default settings, no milestones and no pages.

Example:
  beltplan project create --name base`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectCreate(name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name [required]")
	cmd.MarkFlagRequired("name")

	return cmd
}

// newProjectListCommand creates the project list subcommand
func newProjectListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored projects",
		Long: `List every project in the store with its page count.

Example:
  beltplan project list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectList()
		},
	}

	return cmd
}

// newProjectInfoCommand creates the project info subcommand
func newProjectInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show project details",
		Long: `Show a project's settings, milestones and pages.

Loads the project against the game definition, so resolution problems
(renamed goods, removed recipes) surface here.

Example:
  beltplan project info --project base`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectInfo()
		},
	}

	return cmd
}

// newProjectDeleteCommand creates the project delete subcommand
func newProjectDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a project",
		Long: `Delete a project and all of its pages from the store.

Example:
  beltplan project delete --project scratch --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectDelete(force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}

// runProjectCreate executes the project create command
func runProjectCreate(name string) error {
	ctx := context.Background()

	_, db, repo, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close(db)

	// Reject duplicates by name: the store allows them, the CLI addresses
	// projects by name.
	if _, err := repo.FindByName(ctx, name); err == nil {
		return fmt.Errorf("project %q already exists", name)
	}

	proj := project.New(name)
	data := project.ProjectData{
		ID:   proj.ID.String(),
		Name: proj.Name,
	}
	if err := repo.Save(ctx, &data); err != nil {
		return err
	}

	fmt.Println("✓ Project created")
	fmt.Printf("  Name: %s\n", name)
	fmt.Printf("  ID:   %s\n", proj.ID)
	fmt.Printf("\nSet it as default with 'beltplan config set-project %s'.\n", name)

	return nil
}

// runProjectList executes the project list command
func runProjectList() error {
	ctx := context.Background()

	_, db, repo, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close(db)

	summaries, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Name", "Pages", "Updated", "ID"}),
	)
	for _, summary := range summaries {
		table.Append([]string{
			summary.Name,
			fmt.Sprintf("%d", summary.Pages),
			summary.UpdatedAt,
			summary.ID,
		})
	}
	table.Render()

	return nil
}

// runProjectInfo executes the project info command
func runProjectInfo() error {
	ctx := context.Background()

	cfg, db, repo, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close(db)

	name, err := resolveProjectName()
	if err != nil {
		return err
	}

	data, err := repo.FindByName(ctx, name)
	if err != nil {
		return err
	}

	gameDB, err := dataload.NewLoader().Load(resolveDataPath(cfg))
	if err != nil {
		return fmt.Errorf("failed to load game definition: %w", err)
	}

	proj, err := project.Restore(*data, gameDB)
	if err != nil {
		return err
	}

	fmt.Printf("\nPROJECT %s\n", proj.Name)
	fmt.Printf("ID: %s\n", proj.ID)

	fmt.Println("\nSettings:")
	fmt.Printf("  Auto-sort milestones:  %v\n", proj.Settings.AutoSortMilestones)
	fmt.Printf("  Mining productivity:   %.0f%%\n", proj.Settings.MiningProductivity*100)
	fmt.Printf("  Research speed:        %.0f%%\n", proj.Settings.ResearchSpeed*100)
	fmt.Printf("  Research productivity: %.0f%%\n", proj.Settings.ResearchProductivity*100)

	fmt.Printf("\nMilestones (%d):\n", len(proj.Settings.Milestones))
	for i, id := range proj.Settings.Milestones {
		info := gameDB.Get(id).Info()
		state := " "
		if proj.Settings.UnlockedMilestones[id] {
			state = "✓"
		}
		fmt.Printf("  %2d. [%s] %s (%s)\n", i+1, state, info.Name, info.Kind)
	}

	fmt.Printf("\nPages (%d):\n", len(proj.Pages))
	for _, page := range proj.Pages {
		fmt.Printf("  %-20s %d rows, %d links\n", page.Name, len(page.Table.Rows), len(page.Table.Links))
	}
	fmt.Println()

	return nil
}

// runProjectDelete executes the project delete command
func runProjectDelete(force bool) error {
	ctx := context.Background()

	_, db, repo, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close(db)

	name, err := resolveProjectName()
	if err != nil {
		return err
	}

	data, err := repo.FindByName(ctx, name)
	if err != nil {
		return err
	}

	if !force {
		fmt.Printf("Delete project %q with %d page(s)? [y/N]: ", data.Name, len(data.Pages))
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := repo.Delete(ctx, data.ID); err != nil {
		return err
	}

	fmt.Printf("✓ Project %q deleted\n", name)
	return nil
}
