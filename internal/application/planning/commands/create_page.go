package commands

import (
	"context"
	"fmt"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
)

// CreatePageCommand represents a command to add an empty page to the
// project.
type CreatePageCommand struct {
	Name string
}

// CreatePageResponse represents the result of creating a page.
type CreatePageResponse struct {
	PageID string
	Name   string
}

// CreatePageHandler handles the CreatePage command
type CreatePageHandler struct {
	session *session.Session
}

// NewCreatePageHandler creates a new CreatePageHandler
func NewCreatePageHandler(s *session.Session) *CreatePageHandler {
	return &CreatePageHandler{session: s}
}

// Handle executes the CreatePage command
func (h *CreatePageHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CreatePageCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CreatePageCommand")
	}
	if cmd.Name == "" {
		return nil, fmt.Errorf("page name must not be empty")
	}

	h.session.RecordUndo()
	page := h.session.Project().AddPage(cmd.Name)

	return &CreatePageResponse{PageID: page.ID.String(), Name: page.Name}, nil
}
