package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
)

// NewRecipeCommand creates the recipe command with subcommands
func NewRecipeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage recipe rows",
		Long: `Add, configure and remove recipe rows on a page.

Every row pairs a recipe (or research) with a crafting entity, optional
fuel and modules. Each edit re-solves the page immediately; solver
diagnostics are reported but never block the edit.

Examples:
  beltplan recipe add --page Iron --recipe iron-plate
  beltplan recipe add --page Labs --recipe automation --table 0
  beltplan recipe configure --page Iron --row 0 --entity electric-furnace
  beltplan recipe configure --page Iron --row 0 --module "speed-module:2"
  beltplan recipe configure --page Iron --row 0 --pin product --pin-good iron-plate --pin-value 15
  beltplan recipe disable --page Iron --row 2
  beltplan recipe remove --page Iron --row 2`,
	}

	// Add subcommands
	cmd.AddCommand(newRecipeAddCommand())
	cmd.AddCommand(newRecipeRemoveCommand())
	cmd.AddCommand(newRecipeConfigureCommand())
	cmd.AddCommand(newRecipeEnableCommand())
	cmd.AddCommand(newRecipeDisableCommand())

	return cmd
}

// newRecipeAddCommand creates the recipe add subcommand
func newRecipeAddCommand() *cobra.Command {
	var (
		page      string
		recipe    string
		quality   string
		tablePath string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recipe row",
		Long: `Add a recipe or research row to a page.

The recipe name is looked up among recipes first, then technologies, so
research rows need no special syntax. Use --table to add the row to a
nested table; the sub-table is created on demand.

Examples:
  beltplan recipe add --page Iron --recipe iron-plate
  beltplan recipe add --page Iron --recipe iron-plate --quality rare
  beltplan recipe add --page Iron --recipe iron-ore --table 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipeAdd(page, recipe, quality, tablePath)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&recipe, "recipe", "", "Recipe or technology name [required]")
	cmd.Flags().StringVar(&quality, "quality", "", "Recipe quality (default: normal)")
	cmd.Flags().StringVar(&tablePath, "table", "", "Row path of the nested table to add to")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("recipe")

	return cmd
}

// newRecipeRemoveCommand creates the recipe remove subcommand
func newRecipeRemoveCommand() *cobra.Command {
	var (
		page string
		row  string
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a recipe row",
		Long: `Remove a row (and its nested table, if any) from a page.

Example:
  beltplan recipe remove --page Iron --row 1.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipeRemove(page, row)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&row, "row", "", "Dotted row path [required]")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("row")

	return cmd
}

// newRecipeConfigureCommand creates the recipe configure subcommand
func newRecipeConfigureCommand() *cobra.Command {
	var (
		page          string
		row           string
		entity        string
		entityQuality string
		fuel          string
		fuelQuality   string

		pinMode  string
		pinValue float64
		pinGood  string

		built float64

		modules       []string
		filler        string
		beacon        string
		beaconModules []string
		clearModules  bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure a recipe row",
		Long: `Change a row's crafting entity, fuel, modules or pinned quantity.

Only the flags you pass change; everything else keeps its value. Pass an
empty string to clear a selection (--fuel "").

Module stacks use "name:count" or "name:quality:count". Beacons use
"entity:count" with their own --beacon-module stacks.

Pin modes fix one quantity and let the solver derive the rest:
  count       - fixed building count (--pin-value buildings)
  fuel        - fixed fuel burn (--pin-value per second)
  ingredient  - fixed ingredient draw (--pin-good, --pin-value per second)
  product     - fixed production (--pin-good, --pin-value per second)
  none        - release the pin

Examples:
  beltplan recipe configure --page Iron --row 0 --entity electric-furnace
  beltplan recipe configure --page Iron --row 0 --fuel coal
  beltplan recipe configure --page Iron --row 0 --module "productivity-module-2:4" --filler speed-module
  beltplan recipe configure --page Iron --row 0 --beacon "beacon:8" --beacon-module "speed-module-3:2"
  beltplan recipe configure --page Iron --row 0 --pin count --pin-value 10
  beltplan recipe configure --page Iron --row 0 --built 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := parseRowPath(row)
			if err != nil {
				return err
			}

			request := &commands.ConfigureRowCommand{Page: page, Path: path}
			flags := cmd.Flags()

			if flags.Changed("entity") {
				request.Entity = &entity
			}
			if flags.Changed("entity-quality") {
				request.EntityQuality = &entityQuality
			}
			if flags.Changed("fuel") {
				request.Fuel = &fuel
			}
			if flags.Changed("fuel-quality") {
				request.FuelQuality = &fuelQuality
			}
			if flags.Changed("pin") {
				mode := pinMode
				if mode == "none" {
					mode = ""
				}
				request.FixedMode = &mode
			}
			if flags.Changed("pin-value") {
				request.FixedValue = &pinValue
			}
			if flags.Changed("pin-good") {
				request.FixedGood = &pinGood
			}
			if flags.Changed("built") {
				request.BuiltBuildings = &built
			}

			if clearModules {
				request.ClearModules = true
			} else if len(modules) > 0 || filler != "" || beacon != "" || len(beaconModules) > 0 {
				spec, err := buildModuleSpec(modules, filler, beacon, beaconModules)
				if err != nil {
					return err
				}
				request.Modules = spec
			}

			return runRecipeConfigure(request)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&row, "row", "", "Dotted row path [required]")
	cmd.Flags().StringVar(&entity, "entity", "", "Crafting entity name (empty to clear)")
	cmd.Flags().StringVar(&entityQuality, "entity-quality", "", "Crafting entity quality")
	cmd.Flags().StringVar(&fuel, "fuel", "", "Fuel good name (empty to clear)")
	cmd.Flags().StringVar(&fuelQuality, "fuel-quality", "", "Fuel quality")
	cmd.Flags().StringVar(&pinMode, "pin", "", "Pin mode: count, fuel, ingredient, product, none")
	cmd.Flags().Float64Var(&pinValue, "pin-value", 0, "Pinned quantity")
	cmd.Flags().StringVar(&pinGood, "pin-good", "", "Good for ingredient/product pins")
	cmd.Flags().Float64Var(&built, "built", 0, "Physically built building count")
	cmd.Flags().StringArrayVar(&modules, "module", nil, "Module stack name:count or name:quality:count (repeatable)")
	cmd.Flags().StringVar(&filler, "filler", "", "Module filling the remaining slots")
	cmd.Flags().StringVar(&beacon, "beacon", "", "Beacon entity:count")
	cmd.Flags().StringArrayVar(&beaconModules, "beacon-module", nil, "Beacon module stack (repeatable)")
	cmd.Flags().BoolVar(&clearModules, "clear-modules", false, "Remove all modules and beacons")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("row")

	return cmd
}

// newRecipeEnableCommand creates the recipe enable subcommand
func newRecipeEnableCommand() *cobra.Command {
	var (
		page string
		row  string
	)

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Enable a recipe row",
		Long: `Re-enable a disabled row so it participates in the solve again.

Example:
  beltplan recipe enable --page Iron --row 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipeSetEnabled(page, row, true)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&row, "row", "", "Dotted row path [required]")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("row")

	return cmd
}

// newRecipeDisableCommand creates the recipe disable subcommand
func newRecipeDisableCommand() *cobra.Command {
	var (
		page string
		row  string
	)

	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable a recipe row",
		Long: `Disable a row without removing it. Disabled rows keep their
configuration but contribute nothing to the solve.

Example:
  beltplan recipe disable --page Iron --row 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipeSetEnabled(page, row, false)
		},
	}

	cmd.Flags().StringVar(&page, "page", "", "Page name or id [required]")
	cmd.Flags().StringVar(&row, "row", "", "Dotted row path [required]")
	cmd.MarkFlagRequired("page")
	cmd.MarkFlagRequired("row")

	return cmd
}

// runRecipeAdd executes the recipe add command
func runRecipeAdd(page, recipe, quality, tablePath string) error {
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

	handler := commands.NewAddRecipeHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.AddRecipeCommand{
		Page:      page,
		TablePath: path,
		Recipe:    recipe,
		Quality:   quality,
	})
	if err != nil {
		return err
	}
	response := result.(*commands.AddRecipeResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("✓ Added %s at row %s\n", response.Recipe, joinPath(response.RowPath))
	printSolveStatus(response.SolveError)

	return nil
}

// runRecipeRemove executes the recipe remove command
func runRecipeRemove(page, row string) error {
	ctx := context.Background()

	path, err := parseRowPath(row)
	if err != nil {
		return err
	}

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewRemoveRowHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.RemoveRowCommand{Page: page, Path: path})
	if err != nil {
		return err
	}
	response := result.(*commands.RemoveRowResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Printf("✓ Removed %s\n", response.Recipe)
	printSolveStatus(response.SolveError)

	return nil
}

// runRecipeConfigure executes the recipe configure command
func runRecipeConfigure(request *commands.ConfigureRowCommand) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewConfigureRowHandler(planning.Session)
	result, err := handler.Handle(ctx, request)
	if err != nil {
		return err
	}
	response := result.(*commands.ConfigureRowResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	fmt.Println("✓ Row configured")
	if response.FixedBuildings > 0 {
		fmt.Printf("  Fixed buildings: %s\n", formatCount(response.FixedBuildings))
	}
	printSolveStatus(response.SolveError)

	return nil
}

// runRecipeSetEnabled executes the recipe enable/disable commands
func runRecipeSetEnabled(page, row string, enabled bool) error {
	ctx := context.Background()

	path, err := parseRowPath(row)
	if err != nil {
		return err
	}

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewSetRowEnabledHandler(planning.Session)
	result, err := handler.Handle(ctx, &commands.SetRowEnabledCommand{
		Page:    page,
		Path:    path,
		Enabled: enabled,
	})
	if err != nil {
		return err
	}
	response := result.(*commands.SetRowEnabledResponse)

	if err := planning.Save(ctx); err != nil {
		return err
	}

	if response.Enabled {
		fmt.Println("✓ Row enabled")
	} else {
		fmt.Println("✓ Row disabled")
	}
	printSolveStatus(response.SolveError)

	return nil
}

// buildModuleSpec assembles a module spec from flag values.
func buildModuleSpec(modules []string, filler, beacon string, beaconModules []string) (*commands.ModuleSpec, error) {
	spec := &commands.ModuleSpec{FillerModule: filler}

	for _, raw := range modules {
		entry, err := parseModuleEntry(raw)
		if err != nil {
			return nil, err
		}
		spec.Modules = append(spec.Modules, entry)
	}

	if beacon != "" {
		name, count, err := splitNameCount(beacon)
		if err != nil {
			return nil, fmt.Errorf("invalid beacon %q: expected entity:count", beacon)
		}
		spec.Beacon = &commands.BeaconSpec{Entity: name, Count: count}
		for _, raw := range beaconModules {
			entry, err := parseModuleEntry(raw)
			if err != nil {
				return nil, err
			}
			spec.Beacon.Modules = append(spec.Beacon.Modules, entry)
		}
	} else if len(beaconModules) > 0 {
		return nil, fmt.Errorf("--beacon-module requires --beacon")
	}

	return spec, nil
}

// parseModuleEntry parses "name:count" or "name:quality:count".
func parseModuleEntry(raw string) (commands.ModuleEntrySpec, error) {
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 2:
		count, err := strconv.Atoi(parts[1])
		if err != nil || count <= 0 {
			return commands.ModuleEntrySpec{}, fmt.Errorf("invalid module %q: expected name:count", raw)
		}
		return commands.ModuleEntrySpec{Module: parts[0], Count: count}, nil
	case 3:
		count, err := strconv.Atoi(parts[2])
		if err != nil || count <= 0 {
			return commands.ModuleEntrySpec{}, fmt.Errorf("invalid module %q: expected name:quality:count", raw)
		}
		return commands.ModuleEntrySpec{Module: parts[0], Quality: parts[1], Count: count}, nil
	default:
		return commands.ModuleEntrySpec{}, fmt.Errorf("invalid module %q: expected name:count or name:quality:count", raw)
	}
}

// splitNameCount parses "name:count".
func splitNameCount(raw string) (string, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("expected name:count")
	}
	count, err := strconv.Atoi(parts[1])
	if err != nil || count <= 0 {
		return "", 0, fmt.Errorf("expected name:count")
	}
	return parts[0], count, nil
}

// joinPath renders a row path with dots.
func joinPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}
