package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// AddRecipeCommand represents a command to add a recipe or technology row to
// a page. TablePath addresses the row whose sub-table receives the new row;
// an empty path targets the page's root table.
type AddRecipeCommand struct {
	Page      string
	TablePath []int
	Recipe    string
	Quality   string
}

// AddRecipeResponse represents the result of adding a row. SolveError
// carries the diagnostic when the page's new model could not be solved.
type AddRecipeResponse struct {
	RowPath    []int
	Recipe     string
	SolveError string
}

// AddRecipeHandler handles the AddRecipe command
type AddRecipeHandler struct {
	session *session.Session
}

// NewAddRecipeHandler creates a new AddRecipeHandler
func NewAddRecipeHandler(s *session.Session) *AddRecipeHandler {
	return &AddRecipeHandler{session: s}
}

// Handle executes the AddRecipe command
func (h *AddRecipeHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*AddRecipeCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AddRecipeCommand")
	}

	page, err := h.session.FindPage(cmd.Page)
	if err != nil {
		return nil, err
	}

	craftable, err := h.session.ResolveCraftable(cmd.Recipe)
	if err != nil {
		return nil, err
	}
	quality, err := h.session.ResolveQuality(cmd.Quality)
	if err != nil {
		return nil, err
	}

	// Everything resolves, so snapshot before mutating.
	h.session.RecordUndo()

	table, err := session.TableAt(page, cmd.TablePath, true)
	if err != nil {
		return nil, err
	}

	var row *production.RecipeRow
	switch o := craftable.(type) {
	case *gamedata.Recipe:
		row = production.NewRecipeRow(o, quality)
	case *gamedata.Technology:
		row = production.NewTechnologyRow(o, quality)
	default:
		return nil, fmt.Errorf("object %q is not craftable", cmd.Recipe)
	}
	table.AddRow(row)

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &AddRecipeResponse{
		RowPath:    append(clonePath(cmd.TablePath), len(table.Rows)-1),
		Recipe:     craftable.Info().Name,
		SolveError: solveErr,
	}, nil
}
