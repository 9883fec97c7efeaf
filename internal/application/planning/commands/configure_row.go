package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/planner"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// ConfigureRowCommand represents a command to change a row's machine, fuel,
// modules or pinned quantity. Nil fields leave the current value untouched;
// pointed-to empty strings clear the selection.
type ConfigureRowCommand struct {
	Page string
	Path []int

	Entity        *string
	EntityQuality *string
	Fuel          *string
	FuelQuality   *string

	// FixedMode selects the pinned quantity: "count", "fuel", "ingredient",
	// "product" or "" to unpin. FixedValue is a building count for count
	// mode and a per-second flow for the others. FixedGood names the good
	// for ingredient and product modes.
	FixedMode  *string
	FixedValue *float64
	FixedGood  *string

	BuiltBuildings *float64

	Modules      *ModuleSpec
	ClearModules bool
}

// ModuleSpec describes a row's module configuration by name.
type ModuleSpec struct {
	Modules      []ModuleEntrySpec
	FillerModule string
	Beacon       *BeaconSpec
}

// ModuleEntrySpec is one module stack by name.
type ModuleEntrySpec struct {
	Module  string
	Quality string
	Count   int
}

// BeaconSpec describes the beacons affecting a row by name.
type BeaconSpec struct {
	Entity  string
	Count   int
	Modules []ModuleEntrySpec
}

// ConfigureRowResponse represents the result of configuring a row.
type ConfigureRowResponse struct {
	FixedBuildings float64
	SolveError     string
}

// ConfigureRowHandler handles the ConfigureRow command
type ConfigureRowHandler struct {
	session *session.Session
}

// NewConfigureRowHandler creates a new ConfigureRowHandler
func NewConfigureRowHandler(s *session.Session) *ConfigureRowHandler {
	return &ConfigureRowHandler{session: s}
}

// Handle executes the ConfigureRow command
func (h *ConfigureRowHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*ConfigureRowCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ConfigureRowCommand")
	}

	page, err := h.session.FindPage(cmd.Page)
	if err != nil {
		return nil, err
	}
	row, err := session.RowAt(page, cmd.Path)
	if err != nil {
		return nil, err
	}

	h.session.RecordUndo()

	db := h.session.Database()
	in := h.session.SolveInputs()

	// A flow-pinned row keeps its pinned flow constant across machine and
	// module changes, so capture it with the outgoing parameters first.
	keepFlow, keep := 0.0, false
	if cmd.FixedMode == nil && cmd.FixedValue == nil && flowPinned(row.FixedMode) {
		row.Params = production.CalculateParameters(db, row, in.Bonuses, in.QualityAccessible)
		keepFlow = pinnedFlow(row)
		keep = true
	}

	if err := h.applySelection(cmd, row); err != nil {
		return nil, err
	}
	if err := h.applyModules(cmd, row); err != nil {
		return nil, err
	}
	if err := h.applyPin(cmd, row, db, in, keepFlow, keep); err != nil {
		return nil, err
	}
	if cmd.BuiltBuildings != nil {
		row.BuiltBuildings = *cmd.BuiltBuildings
	}

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &ConfigureRowResponse{
		FixedBuildings: row.FixedBuildings,
		SolveError:     solveErr,
	}, nil
}

func (h *ConfigureRowHandler) applySelection(cmd *ConfigureRowCommand, row *production.RecipeRow) error {
	if cmd.Entity != nil {
		if *cmd.Entity == "" {
			row.Entity = nil
			row.EntityQuality = nil
		} else {
			entity, err := h.session.ResolveEntity(*cmd.Entity)
			if err != nil {
				return err
			}
			row.Entity = entity
		}
	}
	if cmd.EntityQuality != nil {
		quality, err := h.session.ResolveQuality(*cmd.EntityQuality)
		if err != nil {
			return err
		}
		row.EntityQuality = quality
	}
	if cmd.Fuel != nil {
		if *cmd.Fuel == "" {
			row.Fuel = nil
			row.FuelQuality = nil
		} else {
			fuel, err := h.session.ResolveGood(*cmd.Fuel)
			if err != nil {
				return err
			}
			row.Fuel = fuel
		}
	}
	if cmd.FuelQuality != nil {
		quality, err := h.session.ResolveQuality(*cmd.FuelQuality)
		if err != nil {
			return err
		}
		row.FuelQuality = quality
	}
	return nil
}

func (h *ConfigureRowHandler) applyModules(cmd *ConfigureRowCommand, row *production.RecipeRow) error {
	if cmd.ClearModules {
		row.Modules = nil
	}
	if cmd.Modules == nil {
		return nil
	}
	template := &production.ModuleTemplate{}
	for _, spec := range cmd.Modules.Modules {
		entry, err := h.resolveModuleEntry(spec)
		if err != nil {
			return err
		}
		template.Modules = append(template.Modules, entry)
	}
	if cmd.Modules.FillerModule != "" {
		filler, err := h.session.ResolveGood(cmd.Modules.FillerModule)
		if err != nil {
			return err
		}
		template.FillerModule = filler
	}
	if cmd.Modules.Beacon != nil {
		beaconEntity, err := h.session.ResolveEntity(cmd.Modules.Beacon.Entity)
		if err != nil {
			return err
		}
		beacon := &production.BeaconConfig{Entity: beaconEntity, Count: cmd.Modules.Beacon.Count}
		for _, spec := range cmd.Modules.Beacon.Modules {
			entry, err := h.resolveModuleEntry(spec)
			if err != nil {
				return err
			}
			beacon.Modules = append(beacon.Modules, entry)
		}
		template.Beacon = beacon
	}
	row.Modules = template
	return nil
}

func (h *ConfigureRowHandler) resolveModuleEntry(spec ModuleEntrySpec) (production.ModuleEntry, error) {
	module, err := h.session.ResolveGood(spec.Module)
	if err != nil {
		return production.ModuleEntry{}, err
	}
	quality, err := h.session.ResolveQuality(spec.Quality)
	if err != nil {
		return production.ModuleEntry{}, err
	}
	return production.ModuleEntry{Module: module, Quality: quality, Count: spec.Count}, nil
}

// applyPin sets or re-derives the row's pinned building count. Flow pins are
// solved backward through the fresh parameters; count pins apply directly.
func (h *ConfigureRowHandler) applyPin(cmd *ConfigureRowCommand, row *production.RecipeRow, db *gamedata.Database, in planner.Inputs, keepFlow float64, keep bool) error {
	if cmd.FixedMode != nil {
		row.FixedMode = production.ParseFixedMode(*cmd.FixedMode)
		row.FixedGood = nil
		switch row.FixedMode {
		case production.FixedFuel:
			row.FixedGood = row.Fuel
		case production.FixedIngredient, production.FixedProduct:
			if cmd.FixedGood == nil {
				return fmt.Errorf("fixed mode %q needs a good", *cmd.FixedMode)
			}
			good, err := h.session.ResolveGood(*cmd.FixedGood)
			if err != nil {
				return err
			}
			row.FixedGood = good
		}
	}
	if row.FixedMode == production.FixedNone {
		row.FixedBuildings = 0
		row.FixedGood = nil
		return nil
	}

	row.Params = production.CalculateParameters(db, row, in.Bonuses, in.QualityAccessible)

	value := keepFlow
	if cmd.FixedValue != nil {
		value = *cmd.FixedValue
	} else if !keep {
		// Mode changed without a value; nothing to derive from yet.
		return nil
	}

	switch row.FixedMode {
	case production.FixedCount:
		row.FixedBuildings = value
	case production.FixedFuel:
		row.FixedBuildings = row.BuildingsForFuelFlow(value)
	case production.FixedIngredient:
		i := ingredientIndexOf(row.Recipe, row.FixedGood)
		if i < 0 {
			return fmt.Errorf("recipe %q has no ingredient %q", row.Recipe.Name, row.FixedGood.Name)
		}
		row.FixedBuildings = row.BuildingsForIngredientFlow(i, value)
	case production.FixedProduct:
		i := productIndexOf(row.Recipe, row.FixedGood)
		if i < 0 {
			return fmt.Errorf("recipe %q has no product %q", row.Recipe.Name, row.FixedGood.Name)
		}
		row.FixedBuildings = row.BuildingsForProductFlow(i, value)
	}
	return nil
}

func flowPinned(mode production.FixedMode) bool {
	return mode == production.FixedFuel || mode == production.FixedIngredient || mode == production.FixedProduct
}

// pinnedFlow computes the per-second flow a pinned row currently holds.
// Parameters must be fresh.
func pinnedFlow(row *production.RecipeRow) float64 {
	if row.Params.RecipeTime <= 0 {
		return 0
	}
	rate := row.FixedBuildings / row.Params.RecipeTime
	switch row.FixedMode {
	case production.FixedFuel:
		return row.Params.FuelUsagePerSecond * row.FixedBuildings
	case production.FixedIngredient:
		if i := ingredientIndexOf(row.Recipe, row.FixedGood); i >= 0 {
			return rate * row.Recipe.Ingredients[i].Amount
		}
	case production.FixedProduct:
		if i := productIndexOf(row.Recipe, row.FixedGood); i >= 0 {
			return rate * row.Recipe.Products[i].ExpectedAmount() * (1 + row.Params.Productivity)
		}
	}
	return 0
}

func ingredientIndexOf(recipe *gamedata.Recipe, good *gamedata.Good) int {
	if good == nil {
		return -1
	}
	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]
		if ing.Good == good.ID {
			return i
		}
		for _, v := range ing.Variants {
			if v == good.ID {
				return i
			}
		}
	}
	return -1
}

func productIndexOf(recipe *gamedata.Recipe, good *gamedata.Good) int {
	if good == nil {
		return -1
	}
	for i := range recipe.Products {
		if recipe.Products[i].Good == good.ID {
			return i
		}
	}
	return -1
}
