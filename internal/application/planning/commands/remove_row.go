package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// RemoveRowCommand represents a command to remove a row, together with its
// nested sub-table, from a page.
type RemoveRowCommand struct {
	Page string
	Path []int
}

// RemoveRowResponse represents the result of removing a row.
type RemoveRowResponse struct {
	Recipe     string
	SolveError string
}

// RemoveRowHandler handles the RemoveRow command
type RemoveRowHandler struct {
	session *session.Session
}

// NewRemoveRowHandler creates a new RemoveRowHandler
func NewRemoveRowHandler(s *session.Session) *RemoveRowHandler {
	return &RemoveRowHandler{session: s}
}

// Handle executes the RemoveRow command
func (h *RemoveRowHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RemoveRowCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RemoveRowCommand")
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

	if !row.Owner().RemoveRow(row) {
		return nil, &session.RowNotFoundError{Path: cmd.Path}
	}

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &RemoveRowResponse{
		Recipe:     row.Recipe.Name,
		SolveError: solveErr,
	}, nil
}
