package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/transfer"
)

var exportCmd = &cobra.Command{
	Use:   "export [task-id]",
	Short: "Export a task tree to a handoff file",
	Long: `Write a task and all of its subtasks to a handoff file that another
irontrack can import.

Examples:
  irontrack export 12 -o release.yaml
  irontrack export 12 -o release.yaml --encrypt`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportOutput  string
	exportEncrypt bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVarP(&exportEncrypt, "encrypt", "e", false, "Encrypt the payload with a password")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	tasks, err := store.Subtree(context.Background(), id)
	if err != nil {
		return fmt.Errorf("task not found: %d", id)
	}

	password := ""
	if exportEncrypt {
		password, err = readPassword(cmd, "Password: ")
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}
	}

	data, err := transfer.Pack(tasks, password)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}

	logger.Info("Tasks exported", logger.F("task_id", id), logger.F("count", len(tasks)), logger.F("file", exportOutput))
	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d tasks to %s\n", len(tasks), exportOutput)
	return nil
}
