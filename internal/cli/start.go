package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/db"
)

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start tracking time on a task",
	Long: `Open a record on a task. A task has at most one running record.

Examples:
  irontrack start 12
  irontrack start 12 --note "pairing"`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

var startNote string

func init() {
	startCmd.Flags().StringVarP(&startNote, "note", "n", "", "Name of the record")
}

func runStart(cmd *cobra.Command, args []string) error {
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

	if _, err := store.StartRecord(ctx, id, startNote, now()); err != nil {
		if errors.Is(err, db.ErrRecordRunning) {
			return fmt.Errorf("task %d is already running, stop it first", id)
		}
		return fmt.Errorf("failed to start record: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "▶ Started: %q\n", task.Name())
	return nil
}
