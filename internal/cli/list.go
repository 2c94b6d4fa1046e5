package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/display"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/timing"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks as trees",
	Long: `List the task trees of a project with the time tracked on each task.

Examples:
  irontrack list
  irontrack list --project 2
  irontrack list --all --done`,
	RunE: runList,
}

var (
	listProject     int64
	listAll         bool
	listIncludeDone bool
)

func init() {
	listCmd.Flags().Int64VarP(&listProject, "project", "P", 0, "Project id (defaults to the current context)")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Show all projects")
	listCmd.Flags().BoolVar(&listIncludeDone, "done", false, "Include completed tasks")
}

// treePrinter renders task trees with durations and date labels
type treePrinter struct {
	out         io.Writer
	store       *db.DB
	timing      *timing.Aggregator
	locale      display.Locale
	includeDone bool
	seen        map[int64]bool
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	var projects []model.Project
	if listAll {
		projects, err = store.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
	} else {
		id := listProject
		if !cmd.Flags().Changed("project") {
			id = GetCurrentContext()
		}
		project, err := store.GetProject(ctx, id)
		if err != nil {
			return fmt.Errorf("project not found: %d", id)
		}
		projects = []model.Project{project}
	}

	p := &treePrinter{
		out:         cmd.OutOrStdout(),
		store:       store,
		timing:      newAggregator(store),
		locale:      currentLocale(),
		includeDone: listIncludeDone,
		seen:        map[int64]bool{},
	}

	for _, project := range projects {
		if err := p.printProject(ctx, project); err != nil {
			return err
		}
	}
	return nil
}

func (p *treePrinter) printProject(ctx context.Context, project model.Project) error {
	top := int64(0)
	tasks, err := p.store.ReadTasks(ctx, timing.TaskQuery{Project: &project.ID, Parent: &top, IncludeDone: p.includeDone})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	fmt.Fprintf(p.out, "\n%s\n", HeaderStyle.Render(fmt.Sprintf("%s (#%d)", project.Name, project.ID)))
	fmt.Fprintln(p.out, strings.Repeat("─", 60))
	if len(tasks) == 0 {
		fmt.Fprintln(p.out, MutedStyle.Render("  No tasks. Add one with: irontrack add \"Your task\""))
		return nil
	}

	for _, t := range tasks {
		if err := p.printTree(ctx, t, 0); err != nil {
			return err
		}
	}
	return nil
}

func (p *treePrinter) printTree(ctx context.Context, t *model.Task, depth int) error {
	if p.seen[t.ID()] {
		return nil
	}
	p.seen[t.ID()] = true

	line, err := p.taskLine(ctx, t, depth)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, line)

	id := t.ID()
	children, err := p.store.ReadTasks(ctx, timing.TaskQuery{Parent: &id, IncludeDone: p.includeDone})
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := p.printTree(ctx, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p *treePrinter) taskLine(ctx context.Context, t *model.Task, depth int) (string, error) {
	running, err := p.timing.IncompleteRecord(ctx, t)
	if err != nil {
		return "", err
	}
	live, err := p.timing.LiveDuration(ctx, t)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %s%s #%-4d %s", indent(depth), statusIcon(t), t.ID(), taskTitle(t, 40-2*depth))
	if live > 0 {
		b.WriteString("  " + DurationStyle.Render(model.FormatDuration(live)))
	}
	if running != nil {
		b.WriteString("  " + RunningStyle.Render("● running"))
	}
	if label := display.TaskDate(t, now(), p.locale); label != "" {
		b.WriteString("  " + DateStyle.Render(label))
	}
	return b.String(), nil
}
