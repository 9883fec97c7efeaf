package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// CreateLinkCommand represents a command to create a balance link for a good
// on a table. TablePath addresses the owning table the same way AddRecipe
// does; Amount is the external in- or outflow the link tolerates.
type CreateLinkCommand struct {
	Page      string
	TablePath []int
	Good      string
	Quality   string
	Amount    float64
	Algorithm string
}

// CreateLinkResponse represents the result of creating a link.
type CreateLinkResponse struct {
	Good       string
	Quality    string
	SolveError string
}

// CreateLinkHandler handles the CreateLink command
type CreateLinkHandler struct {
	session *session.Session
}

// NewCreateLinkHandler creates a new CreateLinkHandler
func NewCreateLinkHandler(s *session.Session) *CreateLinkHandler {
	return &CreateLinkHandler{session: s}
}

// Handle executes the CreateLink command
func (h *CreateLinkHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CreateLinkCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CreateLinkCommand")
	}

	page, err := h.session.FindPage(cmd.Page)
	if err != nil {
		return nil, err
	}
	good, err := h.session.ResolveGood(cmd.Good)
	if err != nil {
		return nil, err
	}
	quality, err := h.session.ResolveQuality(cmd.Quality)
	if err != nil {
		return nil, err
	}
	table, err := session.TableAt(page, cmd.TablePath, false)
	if err != nil {
		return nil, err
	}

	h.session.RecordUndo()

	// Fluids have no tiers; store the effective quality so duplicate
	// detection treats all tiers of a fluid as one link.
	quality = production.EffectiveQuality(h.session.Database(), good, quality)
	link, err := table.AddLink(good, quality, cmd.Amount, production.ParseLinkAlgorithm(cmd.Algorithm))
	if err != nil {
		return nil, err
	}

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &CreateLinkResponse{
		Good:       link.Good.Name,
		Quality:    link.Quality.Name,
		SolveError: solveErr,
	}, nil
}
