package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// SetRowEnabledCommand represents a command to enable or disable a row.
// Disabled rows keep their configuration but contribute nothing to the
// solution.
type SetRowEnabledCommand struct {
	Page    string
	Path    []int
	Enabled bool
}

// SetRowEnabledResponse represents the result of toggling a row.
type SetRowEnabledResponse struct {
	Enabled    bool
	SolveError string
}

// SetRowEnabledHandler handles the SetRowEnabled command
type SetRowEnabledHandler struct {
	session *session.Session
}

// NewSetRowEnabledHandler creates a new SetRowEnabledHandler
func NewSetRowEnabledHandler(s *session.Session) *SetRowEnabledHandler {
	return &SetRowEnabledHandler{session: s}
}

// Handle executes the SetRowEnabled command
func (h *SetRowEnabledHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*SetRowEnabledCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SetRowEnabledCommand")
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
	row.Enabled = cmd.Enabled

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &SetRowEnabledResponse{Enabled: row.Enabled, SolveError: solveErr}, nil
}
