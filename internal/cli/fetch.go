package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/transfer"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [task-id]",
	Short: "Fetch a task tree from the server and compare it locally",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	tasks, err := newClient().Pull(ctx, id)
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

	diffs, err := transfer.Compare(ctx, store, tasks)
	if err != nil {
		return err
	}
	printDifferences(cmd.OutOrStdout(), tasks, diffs)
	return nil
}
