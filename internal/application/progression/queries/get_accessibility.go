package queries

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/gamedata"
)

// GetAccessibilityQuery represents a query for one object's accessibility
// state under the current milestone configuration.
type GetAccessibilityQuery struct {
	Kind string
	Name string
}

// GetAccessibilityResponse represents an object's accessibility state.
type GetAccessibilityResponse struct {
	Object      string
	Kind        string
	Accessible  bool
	Automatable bool

	// AccessibleNow honors the milestone unlock state; AccessibleAtNext
	// additionally assumes the next configured milestone falls.
	AccessibleNow    bool
	AccessibleAtNext bool

	// Highest is the latest-ordered milestone the object needs, empty when
	// it needs none. Milestones lists all of them in configured order.
	Highest    string
	Milestones []string
}

// GetAccessibilityHandler handles the GetAccessibility query
type GetAccessibilityHandler struct {
	session *session.Session
}

// NewGetAccessibilityHandler creates a new GetAccessibilityHandler
func NewGetAccessibilityHandler(s *session.Session) *GetAccessibilityHandler {
	return &GetAccessibilityHandler{session: s}
}

// Handle executes the GetAccessibility query
func (h *GetAccessibilityHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetAccessibilityQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetAccessibilityQuery")
	}

	obj, err := h.session.ResolveMilestone(query.Kind, query.Name)
	if err != nil {
		return nil, err
	}
	id := obj.Info().ID

	engine := h.session.Engine()
	db := h.session.Database()

	resp := &GetAccessibilityResponse{
		Object:           obj.Info().Name,
		Kind:             obj.Info().Kind.String(),
		Accessible:       engine.IsAccessible(id),
		Automatable:      engine.IsAutomatable(id),
		AccessibleNow:    engine.IsAccessibleWithCurrentMilestones(id),
		AccessibleAtNext: engine.IsAccessibleAtNextMilestone(id),
	}
	if highest := engine.GetHighest(id); highest != gamedata.NoObject {
		resp.Highest = db.Get(highest).Info().Name
	}
	mask := engine.MaskOf(id)
	for i, milestone := range engine.Milestones() {
		if mask&(1<<(i+1)) != 0 {
			resp.Milestones = append(resp.Milestones, db.Get(milestone).Info().Name)
		}
	}
	return resp, nil
}
