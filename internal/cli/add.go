package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new task",
	Long: `Add a new task to a project, optionally below another task.

Examples:
  irontrack add "Buy groceries"
  irontrack add "Write tests" --parent 3
  irontrack add "Release" --project 2 --date 2026-11-01`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addProject     int64
	addSection     int64
	addParent      int64
	addDescription string
	addDate        string
	addSuspended   bool
)

func init() {
	addCmd.Flags().Int64VarP(&addProject, "project", "P", 0, "Project id (defaults to the current context)")
	addCmd.Flags().Int64VarP(&addSection, "section", "s", 0, "Section id")
	addCmd.Flags().Int64Var(&addParent, "parent", 0, "Parent task id")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Description")
	addCmd.Flags().StringVar(&addDate, "date", "", "Date (today, tomorrow or YYYY-MM-DD)")
	addCmd.Flags().BoolVar(&addSuspended, "suspended", false, "Create the task suspended")
}

func runAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	name := strings.Join(args, " ")

	projectID := addProject
	if !cmd.Flags().Changed("project") {
		projectID = GetCurrentContext()
	}

	// Subtasks live in their parent's project and section
	section := addSection
	if addParent != 0 {
		parent, err := store.GetTask(ctx, addParent)
		if err != nil {
			return fmt.Errorf("parent task not found: %d", addParent)
		}
		projectID = parent.Project()
		section = parent.Section()
	}

	project, err := store.GetProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("project not found: %d", projectID)
	}

	date, err := parseDate(addDate, now())
	if err != nil {
		return err
	}

	position, err := store.NextPosition(ctx, projectID, section, addParent)
	if err != nil {
		return err
	}

	task, err := model.NewTask(model.Fields{
		model.FieldName:        name,
		model.FieldProject:     projectID,
		model.FieldSection:     section,
		model.FieldPosition:    position,
		model.FieldSuspended:   addSuspended,
		model.FieldParent:      addParent,
		model.FieldDescription: addDescription,
		model.FieldDate:        date,
	})
	if err != nil {
		return err
	}
	if err := store.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added #%d to [%s]: %q\n", task.ID(), project.Name, name)
	return nil
}

// parseDate turns a date flag into a unix timestamp at local midnight. An
// empty value means no date.
func parseDate(s string, ref time.Time) (int64, error) {
	midnight := func(t time.Time) int64 {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Unix()
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "today":
		return midnight(ref), nil
	case "tomorrow":
		return midnight(ref.AddDate(0, 0, 1)), nil
	}

	t, err := time.ParseInLocation("2006-01-02", s, ref.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid date %q, use today, tomorrow or YYYY-MM-DD", s)
	}
	return t.Unix(), nil
}
