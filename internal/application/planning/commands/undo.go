package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// UndoCommand represents a command to restore the project state recorded
// before the last edit.
type UndoCommand struct{}

// RedoCommand represents a command to reapply the last undone edit.
type RedoCommand struct{}

// UndoResponse represents the result of an undo or redo. Done is false when
// the history had nothing to step through.
type UndoResponse struct {
	Done bool
}

// UndoHandler handles the Undo and Redo commands
type UndoHandler struct {
	session *session.Session
}

// NewUndoHandler creates a new UndoHandler
func NewUndoHandler(s *session.Session) *UndoHandler {
	return &UndoHandler{session: s}
}

// Handle executes the Undo or Redo command
func (h *UndoHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	proj := h.session.Project()
	db := h.session.Database()

	var done bool
	var err error
	switch request.(type) {
	case *UndoCommand:
		done, err = proj.Undo(db)
	case *RedoCommand:
		done, err = proj.Redo(db)
	default:
		return nil, fmt.Errorf("invalid request type: expected *UndoCommand or *RedoCommand")
	}
	if err != nil {
		return nil, err
	}
	if !done {
		return &UndoResponse{Done: false}, nil
	}

	// The restored snapshot may differ anywhere, including settings, so
	// recompute accessibility and re-solve every page.
	if err := h.session.RecomputeAccessibility(ctx); err != nil {
		return nil, err
	}
	h.session.SolveAllPages(ctx)

	return &UndoResponse{Done: true}, nil
}
