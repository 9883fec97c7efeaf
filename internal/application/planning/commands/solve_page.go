package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// SolvePageCommand represents a command to re-solve a page without editing
// it, for example after milestone or bonus changes.
type SolvePageCommand struct {
	Page string
}

// SolvePageResponse represents the result of a solve pass.
type SolvePageResponse struct {
	Solved     bool
	SolveError string
}

// SolvePageHandler handles the SolvePage command
type SolvePageHandler struct {
	session *session.Session
}

// NewSolvePageHandler creates a new SolvePageHandler
func NewSolvePageHandler(s *session.Session) *SolvePageHandler {
	return &SolvePageHandler{session: s}
}

// Handle executes the SolvePage command
func (h *SolvePageHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*SolvePageCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SolvePageCommand")
	}

	page, err := h.session.FindPage(cmd.Page)
	if err != nil {
		return nil, err
	}

	solveErr, err := solveAndReport(ctx, h.session, page)
	if err != nil {
		return nil, err
	}

	return &SolvePageResponse{Solved: solveErr == "", SolveError: solveErr}, nil
}
