package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/display"
	"github.com/existflow/irontrack/internal/model"
)

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show a task with its records",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var showRaw bool

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the raw field dump")
}

func runShow(cmd *cobra.Command, args []string) error {
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
	if showRaw {
		fmt.Fprintln(out, task.String())
		return nil
	}

	agg := newAggregator(store)
	total, err := agg.DurationDisplay(ctx, task)
	if err != nil {
		return err
	}
	running, err := agg.IncompleteRecord(ctx, task)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s\n", statusIcon(task), HeaderStyle.Render(fmt.Sprintf("#%d %s", task.ID(), task.Name())))
	if task.Description() != "" {
		fmt.Fprintf(out, "  %s\n", task.Description())
	}
	fmt.Fprintf(out, "  Project:  %d  Section: %d  Parent: %d  Position: %d\n",
		task.Project(), task.Section(), task.Parent(), task.Position())
	if label := display.TaskDate(task, now(), currentLocale()); label != "" {
		fmt.Fprintf(out, "  Date:     %s\n", DateStyle.Render(label))
	}
	fmt.Fprintf(out, "  Tracked:  %s\n", DurationStyle.Render(total))
	if running != nil {
		fmt.Fprintf(out, "  Running:  %s\n", RunningStyle.Render(model.FormatDuration(running.Duration())))
	}

	records, err := store.ListRecords(ctx, task.ID())
	if err != nil {
		return err
	}
	if len(records) > 0 {
		fmt.Fprintln(out, "  Records:")
	}
	for _, r := range records {
		started := time.Unix(r.Start(), 0).In(currentLocale().Location).Format("2006-01-02 15:04")
		length := model.FormatDuration(r.Duration())
		if r.Incomplete() {
			length = "running"
		}
		fmt.Fprintf(out, "    %s  %-10s %s\n", started, length, MutedStyle.Render(r.Name))
	}
	return nil
}
