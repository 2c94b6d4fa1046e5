package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/transfer"
)

var sendCmd = &cobra.Command{
	Use:   "send [task-id]",
	Short: "Send a task tree to the server for comparison",
	Long: `Send a task and its subtasks to the configured server. The server reports
which fields differ from its copy; nothing is written on either side.

Examples:
  irontrack send 12
  irontrack send 12 --server http://tracker.local:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

var serverURL string

func init() {
	sendCmd.Flags().StringVar(&serverURL, "server", "", "Server URL (defaults to server_url from config)")
	fetchCmd.Flags().StringVar(&serverURL, "server", "", "Server URL (defaults to server_url from config)")
}

func newClient() *transfer.Client {
	url := cfg.ServerURL
	if serverURL != "" {
		url = serverURL
	}
	return transfer.NewClient(url, cfg.ServerToken)
}

func runSend(cmd *cobra.Command, args []string) error {
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
	tasks, err := store.Subtree(ctx, id)
	if err != nil {
		return fmt.Errorf("task not found: %d", id)
	}

	resp, err := newClient().Push(ctx, tasks)
	if err != nil {
		logger.Error("Handoff failed", logger.F("task_id", id), logger.F("error", err))
		return err
	}

	printDifferences(cmd.OutOrStdout(), tasks, resp.Tasks)
	return nil
}
