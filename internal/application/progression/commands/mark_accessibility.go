package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// MarkAccessibilityCommand represents a command to override an object's
// computed accessibility. Mark is "accessible", "inaccessible" or "clear";
// the two override sets are mutually exclusive per object.
type MarkAccessibilityCommand struct {
	Kind string
	Name string
	Mark string
}

// MarkAccessibilityResponse represents the result of an override change.
type MarkAccessibilityResponse struct {
	Object     string
	Accessible bool
}

// MarkAccessibilityHandler handles the MarkAccessibility command
type MarkAccessibilityHandler struct {
	session *session.Session
}

// NewMarkAccessibilityHandler creates a new MarkAccessibilityHandler
func NewMarkAccessibilityHandler(s *session.Session) *MarkAccessibilityHandler {
	return &MarkAccessibilityHandler{session: s}
}

// Handle executes the MarkAccessibility command
func (h *MarkAccessibilityHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*MarkAccessibilityCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *MarkAccessibilityCommand")
	}

	obj, err := h.session.ResolveMilestone(cmd.Kind, cmd.Name)
	if err != nil {
		return nil, err
	}
	id := obj.Info().ID

	h.session.RecordUndo()

	settings := &h.session.Project().Settings
	delete(settings.MarkedAccessible, id)
	delete(settings.MarkedInaccessible, id)
	switch cmd.Mark {
	case "accessible":
		settings.MarkedAccessible[id] = true
	case "inaccessible":
		settings.MarkedInaccessible[id] = true
	case "clear":
	default:
		return nil, fmt.Errorf("unknown mark %q, want accessible, inaccessible or clear", cmd.Mark)
	}

	if err := h.session.RecomputeAccessibility(ctx); err != nil {
		return nil, err
	}
	h.session.SolveAllPages(ctx)

	return &MarkAccessibilityResponse{
		Object:     obj.Info().Name,
		Accessible: h.session.Engine().IsAccessible(id),
	}, nil
}
