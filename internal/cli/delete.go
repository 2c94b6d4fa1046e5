package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task and its records. Subtasks become top-level tasks.

Examples:
  irontrack delete 12
  irontrack rm 12 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteYes bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	if cfg.ConfirmDelete && !deleteYes {
		fmt.Fprintf(out, "About to delete: %q (ID: %d)\n", task.Name(), task.ID())
		fmt.Fprint(out, "Are you sure? [y/N]: ")
		confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		confirm = strings.TrimSpace(confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if err := store.DeleteTask(ctx, task.ID()); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	fmt.Fprintf(out, "Deleted: %q\n", task.Name())
	return nil
}
