package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// RemoveLinkCommand represents a command to remove a balance link from a
// table. The good's flow stops being balanced at that level and bubbles up
// to the parent table instead.
type RemoveLinkCommand struct {
	Page      string
	TablePath []int
	Good      string
	Quality   string
}

// RemoveLinkResponse represents the result of removing a link.
type RemoveLinkResponse struct {
	Good       string
	SolveError string
}

// RemoveLinkHandler handles the RemoveLink command
type RemoveLinkHandler struct {
	session *session.Session
}

// NewRemoveLinkHandler creates a new RemoveLinkHandler
func NewRemoveLinkHandler(s *session.Session) *RemoveLinkHandler {
	return &RemoveLinkHandler{session: s}
}

// Handle executes the RemoveLink command
func (h *RemoveLinkHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RemoveLinkCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RemoveLinkCommand")
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

	if !link.Owner().RemoveLink(link) {
		return nil, &session.LinkNotFoundError{Good: cmd.Good}
	}

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &RemoveLinkResponse{Good: cmd.Good, SolveError: solveErr}, nil
}
