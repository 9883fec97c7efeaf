package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
	"github.com/factorlab/beltplan-go/internal/domain/milestones"
)

// SetMilestonesCommand represents a command to replace the project's
// milestone list. Each entry names an object as "kind:name"; a bare name
// means a technology, the most common milestone kind.
type SetMilestonesCommand struct {
	Milestones []string
	AutoSort   *bool
}

// SetMilestonesResponse represents the result of replacing the milestone
// list, in effective (possibly auto-sorted) order.
type SetMilestonesResponse struct {
	Milestones []string
	Warnings   []string
}

// SetMilestonesHandler handles the SetMilestones command
type SetMilestonesHandler struct {
	session *session.Session
}

// NewSetMilestonesHandler creates a new SetMilestonesHandler
func NewSetMilestonesHandler(s *session.Session) *SetMilestonesHandler {
	return &SetMilestonesHandler{session: s}
}

// Handle executes the SetMilestones command
func (h *SetMilestonesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*SetMilestonesCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SetMilestonesCommand")
	}
	if len(cmd.Milestones) > milestones.MaxMilestones {
		return nil, fmt.Errorf("too many milestones: %d, limit %d", len(cmd.Milestones), milestones.MaxMilestones)
	}

	ids := make([]gamedata.ObjectID, 0, len(cmd.Milestones))
	for _, ref := range cmd.Milestones {
		obj, err := resolveMilestoneRef(h.session, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, obj.Info().ID)
	}

	h.session.RecordUndo()

	settings := &h.session.Project().Settings
	settings.Milestones = ids
	if cmd.AutoSort != nil {
		settings.AutoSortMilestones = *cmd.AutoSort
	}

	if err := h.session.RecomputeAccessibility(ctx); err != nil {
		return nil, err
	}
	h.session.SolveAllPages(ctx)

	engine := h.session.Engine()
	db := h.session.Database()
	resp := &SetMilestonesResponse{}
	for _, id := range engine.Milestones() {
		resp.Milestones = append(resp.Milestones, db.Get(id).Info().Name)
	}
	for _, w := range engine.Warnings() {
		resp.Warnings = append(resp.Warnings, w.Message)
	}
	return resp, nil
}

// resolveMilestoneRef parses a "kind:name" reference, defaulting the kind to
// technology.
func resolveMilestoneRef(s *session.Session, ref string) (gamedata.Object, error) {
	kind, name := "technology", ref
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			kind, name = ref[:i], ref[i+1:]
			break
		}
	}
	return s.ResolveMilestone(kind, name)
}
