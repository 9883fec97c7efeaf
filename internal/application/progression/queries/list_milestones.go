package queries

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// ListMilestonesQuery represents a query for the configured milestones in
// effective order with their unlock and reachability state.
type ListMilestonesQuery struct{}

// ListMilestonesResponse represents the milestone list.
type ListMilestonesResponse struct {
	AutoSort   bool
	Milestones []*MilestoneEntry
	Warnings   []string
}

// MilestoneEntry is one configured milestone.
type MilestoneEntry struct {
	Index     int
	Name      string
	Kind      string
	Unlocked  bool
	Reachable bool
}

// ListMilestonesHandler handles the ListMilestones query
type ListMilestonesHandler struct {
	session *session.Session
}

// NewListMilestonesHandler creates a new ListMilestonesHandler
func NewListMilestonesHandler(s *session.Session) *ListMilestonesHandler {
	return &ListMilestonesHandler{session: s}
}

// Handle executes the ListMilestones query
func (h *ListMilestonesHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListMilestonesQuery); !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListMilestonesQuery")
	}

	engine := h.session.Engine()
	db := h.session.Database()
	settings := h.session.Project().Settings

	resp := &ListMilestonesResponse{AutoSort: settings.AutoSortMilestones}
	for i, id := range engine.Milestones() {
		info := db.Get(id).Info()
		resp.Milestones = append(resp.Milestones, &MilestoneEntry{
			Index:     i,
			Name:      info.Name,
			Kind:      info.Kind.String(),
			Unlocked:  settings.UnlockedMilestones[id],
			Reachable: engine.IsAccessible(id),
		})
	}
	for _, w := range engine.Warnings() {
		resp.Warnings = append(resp.Warnings, w.Message)
	}
	return resp, nil
}
