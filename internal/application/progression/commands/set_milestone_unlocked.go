package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// SetMilestoneUnlockedCommand represents a command to mark a milestone as
// cleared or not. Both directions only reinterpret the existing masks, so
// no dependency walks rerun.
type SetMilestoneUnlockedCommand struct {
	Milestone string
	Unlocked  bool
}

// SetMilestoneUnlockedResponse represents the result of toggling a
// milestone.
type SetMilestoneUnlockedResponse struct {
	Milestone string
	Unlocked  bool
}

// SetMilestoneUnlockedHandler handles the SetMilestoneUnlocked command
type SetMilestoneUnlockedHandler struct {
	session *session.Session
}

// NewSetMilestoneUnlockedHandler creates a new SetMilestoneUnlockedHandler
func NewSetMilestoneUnlockedHandler(s *session.Session) *SetMilestoneUnlockedHandler {
	return &SetMilestoneUnlockedHandler{session: s}
}

// Handle executes the SetMilestoneUnlocked command
func (h *SetMilestoneUnlockedHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*SetMilestoneUnlockedCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SetMilestoneUnlockedCommand")
	}

	obj, err := resolveMilestoneRef(h.session, cmd.Milestone)
	if err != nil {
		return nil, err
	}
	id := obj.Info().ID
	if !isConfiguredMilestone(h.session, id) {
		return nil, fmt.Errorf("%q is not a configured milestone", obj.Info().Name)
	}

	h.session.RecordUndo()

	settings := &h.session.Project().Settings
	if cmd.Unlocked {
		settings.UnlockedMilestones[id] = true
	} else {
		delete(settings.UnlockedMilestones, id)
	}
	h.session.Engine().ApplyUnlocks(unlockedList(settings.UnlockedMilestones))
	h.session.SolveAllPages(ctx)

	return &SetMilestoneUnlockedResponse{
		Milestone: obj.Info().Name,
		Unlocked:  cmd.Unlocked,
	}, nil
}

func isConfiguredMilestone(s *session.Session, id gamedata.ObjectID) bool {
	for _, m := range s.Project().Settings.Milestones {
		if m == id {
			return true
		}
	}
	return false
}

func unlockedList(set map[gamedata.ObjectID]bool) []gamedata.ObjectID {
	out := make([]gamedata.ObjectID, 0, len(set))
	for id, on := range set {
		if on {
			out = append(out, id)
		}
	}
	return out
}
