package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/logger"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/transfer"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a task tree from a handoff file",
	Long: `Create copies of the tasks in a handoff file. Imported tasks get new ids;
the tree structure is kept.

Examples:
  irontrack import release.yaml
  irontrack import release.yaml --parent 4`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importParent  int64
	importProject int64
)

func init() {
	importCmd.Flags().Int64Var(&importParent, "parent", 0, "Attach the imported root below this task")
	importCmd.Flags().Int64VarP(&importProject, "project", "P", 0, "Project for the imported tasks")
}

// readHandoff opens a handoff file, asking for the password when it is sealed
func readHandoff(cmd *cobra.Command, path string) ([]*model.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	env, err := transfer.ReadEnvelope(data)
	if err != nil {
		return nil, err
	}

	password := ""
	if env.Encrypted {
		password, err = readPassword(cmd, "Password: ")
		if err != nil {
			return nil, err
		}
	}

	tasks, err := transfer.Unpack(data, password)
	if errors.Is(err, transfer.ErrMismatch) {
		return nil, fmt.Errorf("%s is not a task handoff file: %w", path, err)
	}
	return tasks, err
}

func runImport(cmd *cobra.Command, args []string) error {
	tasks, err := readHandoff(cmd, args[0])
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
	projectID := importProject
	if !cmd.Flags().Changed("project") {
		projectID = GetCurrentContext()
	}
	if importParent != 0 {
		parent, err := store.GetTask(ctx, importParent)
		if err != nil {
			return fmt.Errorf("parent task not found: %d", importParent)
		}
		projectID = parent.Project()
	}
	if _, err := store.GetProject(ctx, projectID); err != nil {
		return fmt.Errorf("project not found: %d", projectID)
	}

	created, err := importTasks(ctx, store, tasks, projectID, importParent)
	if err != nil {
		return err
	}

	logger.Info("Tasks imported", logger.F("file", args[0]), logger.F("count", len(created)))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d tasks\n", len(created))
	for _, t := range created {
		fmt.Fprintf(cmd.OutOrStdout(), "  #%d %s\n", t.ID(), t.Name())
	}
	return nil
}

// importTasks inserts copies of tasks. Parent links inside the set are mapped
// to the new ids; tasks whose parent is outside the set go below root.
func importTasks(ctx context.Context, store *db.DB, tasks []*model.Task, project, root int64) ([]*model.Task, error) {
	ids := make(map[int64]int64, len(tasks))
	created := make([]*model.Task, 0, len(tasks))

	for _, t := range tasks {
		c := t.Duplicate()
		c.DetachIdentity()
		c.SetProject(project)
		c.SetSection(0)
		if parent, ok := ids[t.Parent()]; ok && t.Parent() != 0 {
			c.SetParent(parent)
		} else {
			c.SetParent(root)
		}

		if err := store.CreateTask(ctx, c); err != nil {
			return created, fmt.Errorf("failed to import %q: %w", t.Name(), err)
		}
		if t.ID() != 0 {
			ids[t.ID()] = c.ID()
		}
		created = append(created, c)
	}
	return created, nil
}
