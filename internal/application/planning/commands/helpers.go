package commands

import (
	"context"
	"errors"

	"github.com/factorlab/beltplan-go/internal/application/planner"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/project"
)

// solveAndReport re-solves a page after an edit. The edit already happened,
// so solve diagnostics are reported in the response instead of failing the
// command; context cancellation still propagates as an error.
func solveAndReport(ctx context.Context, s *session.Session, page *project.Page) (string, error) {
	err := s.SolvePage(ctx, page)
	if err == nil {
		return "", nil
	}
	var solveErr *planner.SolveError
	if errors.As(err, &solveErr) {
		return solveErr.Reason, nil
	}
	return "", err
}

func clonePath(path []int) []int {
	return append([]int(nil), path...)
}
