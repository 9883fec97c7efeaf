package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// RecomputeMilestonesCommand represents a command to rerun the accessibility
// computation from the current settings and re-solve every page against the
// new milestone state.
type RecomputeMilestonesCommand struct{}

// RecomputeMilestonesResponse represents the result of an accessibility
// recomputation.
type RecomputeMilestonesResponse struct {
	Milestones []string
	Warnings   []string
}

// RecomputeMilestonesHandler handles the RecomputeMilestones command
type RecomputeMilestonesHandler struct {
	session *session.Session
}

// NewRecomputeMilestonesHandler creates a new RecomputeMilestonesHandler
func NewRecomputeMilestonesHandler(s *session.Session) *RecomputeMilestonesHandler {
	return &RecomputeMilestonesHandler{session: s}
}

// Handle executes the RecomputeMilestones command
func (h *RecomputeMilestonesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*RecomputeMilestonesCommand); !ok {
		return nil, fmt.Errorf("invalid request type: expected *RecomputeMilestonesCommand")
	}

	if err := h.session.RecomputeAccessibility(ctx); err != nil {
		return nil, err
	}
	h.session.SolveAllPages(ctx)

	engine := h.session.Engine()
	db := h.session.Database()
	resp := &RecomputeMilestonesResponse{}
	for _, id := range engine.Milestones() {
		resp.Milestones = append(resp.Milestones, db.Get(id).Info().Name)
	}
	for _, w := range engine.Warnings() {
		resp.Warnings = append(resp.Warnings, w.Message)
	}
	return resp, nil
}
