package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/model"
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as done",
	Long: `Mark a task as completed. A running record on the task is stopped.

Examples:
  irontrack done 12
  irontrack done 12 --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark task as not done")
}

func runDone(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	task, err := store.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("task not found: %d", id)
	}

	handle := task.OnChange(func(t *model.Task, field string) {
		logger.Debug("Task field changed", logger.F("task_id", t.ID()), logger.F("field", field))
	})
	defer task.RemoveOnChange(handle)

	out := cmd.OutOrStdout()
	done := !doneUndo

	// a completed task keeps no running record
	if done {
		r, err := store.StopRecord(ctx, task.ID(), now())
		switch {
		case errors.Is(err, db.ErrNotRunning):
		case err != nil:
			return fmt.Errorf("failed to stop record: %w", err)
		default:
			fmt.Fprintf(out, "■ Stopped record after %s\n", model.FormatDuration(r.Duration()))
		}
	}

	task.SetDone(done)
	if _, err := store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if !done {
		fmt.Fprintf(out, "○ Reopened: %q\n", task.Name())
		return nil
	}
	fmt.Fprintf(out, "✓ Completed: %q\n", task.Name())
	return nil
}
