package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/config"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/timing"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage project context",
	Long: `Set or view the current project context.

When a context is set, new tasks are added to that project by default and
'list' shows that project.

Examples:
  irontrack context              # Show current context
  irontrack context ls           # List all projects
  irontrack context set 2        # Set context to project 2
  irontrack context clear        # Clear context (use Inbox)`,
	RunE: runContextShow,
}

var contextLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all projects",
	RunE:    runContextList,
}

var contextSetCmd = &cobra.Command{
	Use:   "set [project-id]",
	Short: "Set the current project context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextSet,
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the current context",
	RunE:  runContextClear,
}

func init() {
	contextCmd.AddCommand(contextLsCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextClearCmd)
}

// Context file path
func contextFilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "context"), nil
}

// GetCurrentContext returns the current project id, the inbox when unset
func GetCurrentContext() int64 {
	path, err := contextFilePath()
	if err != nil {
		return model.InboxProjectID
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.InboxProjectID
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || id <= 0 {
		return model.InboxProjectID
	}
	return id
}

// SetContext saves the current context
func SetContext(projectID int64) error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.FormatInt(projectID, 10)), 0644)
}

// ClearContext removes the context file
func ClearContext() error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func runContextShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	id := GetCurrentContext()
	project, err := store.GetProject(ctx, id)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Context set to project %d but project not found\n", id)
		return nil
	}

	open, total, err := countTasks(ctx, store, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current context: %s (%d/%d tasks)\n", project.Name, open, total)
	return nil
}

func runContextList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	current := GetCurrentContext()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	for _, p := range projects {
		open, total, err := countTasks(ctx, store, p.ID)
		if err != nil {
			return err
		}
		marker := "  "
		if p.ID == current {
			marker = "> "
		}
		fmt.Fprintf(out, "%s%-4d  %-20s  %d/%d\n", marker, p.ID, p.Name, open, total)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use 'irontrack context set <project-id>' to switch context")

	return nil
}

func runContextSet(cmd *cobra.Command, args []string) error {
	projectID, err := parseID(args[0])
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

	project, err := store.GetProject(context.Background(), projectID)
	if err != nil {
		return fmt.Errorf("project not found: %d", projectID)
	}

	if err := SetContext(projectID); err != nil {
		return fmt.Errorf("failed to set context: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Switched to: %s\n", project.Name)
	return nil
}

func runContextClear(cmd *cobra.Command, args []string) error {
	if err := ClearContext(); err != nil {
		return fmt.Errorf("failed to clear context: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Context cleared, using Inbox")
	return nil
}

// countTasks returns the number of open tasks and all tasks in a project
func countTasks(ctx context.Context, store timing.Store, project int64) (int, int, error) {
	all, err := store.ReadTasks(ctx, timing.TaskQuery{Project: &project, IncludeDone: true})
	if err != nil {
		return 0, 0, err
	}
	open := 0
	for _, t := range all {
		if !t.Done() {
			open++
		}
	}
	return open, len(all), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
