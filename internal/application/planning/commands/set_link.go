package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/production"
	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// SetLinkCommand represents a command to change an existing link's external
// amount or balancing algorithm. Nil fields keep the current value.
type SetLinkCommand struct {
	Page      string
	TablePath []int
	Good      string
	Quality   string

	Amount    *float64
	Algorithm *string
}

// SetLinkResponse represents the result of changing a link.
type SetLinkResponse struct {
	Amount     float64
	Algorithm  string
	SolveError string
}

// SetLinkHandler handles the SetLink command
type SetLinkHandler struct {
	session *session.Session
}

// NewSetLinkHandler creates a new SetLinkHandler
func NewSetLinkHandler(s *session.Session) *SetLinkHandler {
	return &SetLinkHandler{session: s}
}

// Handle executes the SetLink command
func (h *SetLinkHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*SetLinkCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SetLinkCommand")
	}

	page, err := h.session.FindPage(cmd.Page)
	if err != nil {
		return nil, err
	}
	link, err := findLink(h.session, page, cmd.TablePath, cmd.Good, cmd.Quality)
	if err != nil {
		return nil, err
	}

	h.session.RecordUndo()

	if cmd.Amount != nil {
		link.Amount = *cmd.Amount
	}
	if cmd.Algorithm != nil {
		link.Algorithm = production.ParseLinkAlgorithm(*cmd.Algorithm)
	}

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &SetLinkResponse{
		Amount:     link.Amount,
		Algorithm:  link.Algorithm.String(),
		SolveError: solveErr,
	}, nil
}

// findLink resolves a user link owned by the addressed table itself.
func findLink(s *session.Session, page *project.Page, tablePath []int, goodName, qualityName string) (*production.ProductionLink, error) {
	good, err := s.ResolveGood(goodName)
	if err != nil {
		return nil, err
	}
	quality, err := s.ResolveQuality(qualityName)
	if err != nil {
		return nil, err
	}
	table, err := session.TableAt(page, tablePath, false)
	if err != nil {
		return nil, err
	}
	quality = production.EffectiveQuality(s.Database(), good, quality)
	for _, link := range table.Links {
		if link.Good == good && link.Quality == quality {
			return link, nil
		}
	}
	return nil, &session.LinkNotFoundError{Good: goodName}
}
