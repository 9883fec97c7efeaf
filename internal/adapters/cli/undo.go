package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/planning/commands"
)

// NewUndoCommand creates the undo command
func NewUndoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last edit",
		Long: `Step the project back one edit. Every mutating command records an
undo point, so undo works across sessions of the stored project.

Example:
  beltplan undo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndoRedo(true)
		},
	}
}

// NewRedoCommand creates the redo command
func NewRedoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Reapply the last undone edit",
		Long: `Step forward again after an undo. The redo history clears as soon
as a new edit is made.

Example:
  beltplan redo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndoRedo(false)
		},
	}
}

// runUndoRedo executes the undo and redo commands
func runUndoRedo(undo bool) error {
	ctx := context.Background()

	planning, err := openPlanning(ctx)
	if err != nil {
		return err
	}
	defer planning.Close()

	handler := commands.NewUndoHandler(planning.Session)
	var request common.Request = &commands.UndoCommand{}
	if !undo {
		request = &commands.RedoCommand{}
	}
	result, err := handler.Handle(ctx, request)
	if err != nil {
		return err
	}
	response := result.(*commands.UndoResponse)

	if !response.Done {
		if undo {
			fmt.Println("Nothing to undo")
		} else {
			fmt.Println("Nothing to redo")
		}
		return nil
	}

	if err := planning.Save(ctx); err != nil {
		return err
	}

	if undo {
		fmt.Println("✓ Undone")
	} else {
		fmt.Println("✓ Redone")
	}

	return nil
}
