package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/model"
)

var stopCmd = &cobra.Command{
	Use:   "stop [task-id]",
	Short: "Stop the running record of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
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
	r, err := store.StopRecord(ctx, id, now())
	if errors.Is(err, db.ErrNotRunning) {
		return fmt.Errorf("task %d is not running", id)
	}
	if err != nil {
		return fmt.Errorf("failed to stop record: %w", err)
	}

	task, err := store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	total, err := newAggregator(store).DurationDisplay(ctx, task)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "■ Stopped after %s (total %s)\n", model.FormatDuration(r.Duration()), total)
	return nil
}
