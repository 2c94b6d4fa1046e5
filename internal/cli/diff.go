package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/transfer"
)

var diffCmd = &cobra.Command{
	Use:   "diff [file]",
	Short: "Compare a handoff file with the local tasks",
	Long: `Show, for every task in a handoff file, which fields differ from the
local task with the same id.

Examples:
  irontrack diff release.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
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

	diffs, err := transfer.Compare(context.Background(), store, tasks)
	if err != nil {
		return err
	}
	printDifferences(cmd.OutOrStdout(), tasks, diffs)
	return nil
}

// printDifferences writes one line per task. tasks and diffs are parallel.
func printDifferences(out io.Writer, tasks []*model.Task, diffs []transfer.Difference) {
	changed := 0
	for i, d := range diffs {
		name := ""
		if i < len(tasks) {
			name = truncate(tasks[i].Name(), 40)
		}
		switch {
		case !d.Known:
			fmt.Fprintf(out, "  + #%-4d %s %s\n", d.ID, name, MutedStyle.Render("(not in store)"))
		case len(d.DifferentProperties) == 0:
			fmt.Fprintf(out, "  = #%-4d %s\n", d.ID, name)
		default:
			changed++
			fmt.Fprintf(out, "  ~ #%-4d %s %s\n", d.ID, name, ChangedStyle.Render(strings.Join(d.DifferentProperties, ", ")))
		}
	}
	fmt.Fprintf(out, "%d tasks, %d changed\n", len(diffs), changed)
}
