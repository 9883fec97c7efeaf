package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// RemovePageCommand represents a command to delete a page and everything on
// it.
type RemovePageCommand struct {
	Page string
}

// RemovePageResponse represents the result of deleting a page.
type RemovePageResponse struct {
	Name string
}

// RemovePageHandler handles the RemovePage command
type RemovePageHandler struct {
	session *session.Session
}

// NewRemovePageHandler creates a new RemovePageHandler
func NewRemovePageHandler(s *session.Session) *RemovePageHandler {
	return &RemovePageHandler{session: s}
}

// Handle executes the RemovePage command
func (h *RemovePageHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RemovePageCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RemovePageCommand")
	}

	page, err := h.session.FindPage(cmd.Page)
	if err != nil {
		return nil, err
	}

	h.session.RecordUndo()
	if !h.session.Project().RemovePage(page.ID) {
		return nil, &session.PageNotFoundError{Ref: cmd.Page}
	}

	return &RemovePageResponse{Name: page.Name}, nil
}
