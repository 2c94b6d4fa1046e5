package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/model"
	"github.com/existflow/irontrack/internal/timing"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.Local)

func setupCLI(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("IRONTRACK_DB_DRIVER", "sqlite")
	t.Setenv("IRONTRACK_DB_DSN", filepath.Join(home, "tracker.db"))
	t.Setenv("IRONTRACK_LOG_FILE", filepath.Join(home, "irontrack.log"))
	t.Setenv("IRONTRACK_LOCALE", "en")
	t.Setenv("IRONTRACK_PASSWORD", "")

	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = time.Now })
	return home
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func runningRecords(t *testing.T) []*model.Record {
	t.Helper()
	store, err := db.Open(db.DriverSQLite, os.Getenv("IRONTRACK_DB_DSN"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()
	records, err := store.ReadRecords(context.Background(), timing.RecordQuery{IncompleteOnly: true})
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	return records
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("expected output to contain %q, got:\n%s", w, out)
		}
	}
}

func TestTrackTimeOnTree(t *testing.T) {
	setupCLI(t)

	assertContains(t, mustRun(t, "add", "Release", "notes", "--date", "tomorrow"), "Added #1 to [Inbox]", `"Release notes"`)
	assertContains(t, mustRun(t, "add", "Changelog", "--parent", "1"), "Added #2")

	mustRun(t, "start", "2", "--note", "draft")
	if _, err := run(t, "", "start", "2"); err == nil {
		t.Fatal("expected second start to fail")
	}

	now = func() time.Time { return fixedNow.Add(90 * time.Second) }
	assertContains(t, mustRun(t, "stop", "2"), "Stopped after 0:01:30", "total 0:01:30")
	if _, err := run(t, "", "stop", "2"); err == nil {
		t.Fatal("expected stop without running record to fail")
	}

	out := mustRun(t, "list")
	assertContains(t, out, "Inbox", "Release notes", "Changelog", "0:01:30", "Tomorrow")

	out = mustRun(t, "show", "1")
	assertContains(t, out, "#1 Release notes", "Tracked:", "0:01:30")
	assertContains(t, mustRun(t, "show", "2"), "draft")
	assertContains(t, mustRun(t, "show", "1", "--raw"), "Task { id: 1 name: Release notes")
}

func TestDoneAndDelete(t *testing.T) {
	setupCLI(t)

	mustRun(t, "add", "Parent")
	mustRun(t, "add", "Child", "--parent", "1")
	mustRun(t, "start", "2")

	assertContains(t, mustRun(t, "done", "2"), "Stopped record", "Completed")
	if running := runningRecords(t); len(running) != 0 {
		t.Fatalf("done task still has %d running records", len(running))
	}
	assertContains(t, mustRun(t, "done", "1"), "Completed")
	assertContains(t, mustRun(t, "done", "1", "--undo"), "Reopened")
	if strings.Contains(mustRun(t, "list"), "Child") {
		t.Fatal("done task listed without --done")
	}
	assertContains(t, mustRun(t, "list", "--done"), "Child")
	assertContains(t, mustRun(t, "done", "2", "--undo"), "Reopened")

	out, err := run(t, "n\n", "delete", "1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertContains(t, out, "Cancelled.")

	assertContains(t, mustRun(t, "delete", "1", "--yes"), "Deleted")
	if _, err := run(t, "", "show", "1"); err == nil {
		t.Fatal("expected deleted task to be gone")
	}
	assertContains(t, mustRun(t, "show", "2", "--raw"), "parent: 0")
}

func TestProjectsSectionsAndContext(t *testing.T) {
	setupCLI(t)

	assertContains(t, mustRun(t, "project", "new", "Work"), "Created project: Work (id: 2)")
	assertContains(t, mustRun(t, "project", "list"), "Inbox", "Work", "2 projects")

	assertContains(t, mustRun(t, "context", "set", "2"), "Switched to: Work")
	assertContains(t, mustRun(t, "add", "Plan"), "to [Work]")
	assertContains(t, mustRun(t, "context"), "Current context: Work (1/1 tasks)")
	assertContains(t, mustRun(t, "section", "new", "Backlog"), "Created section: Backlog")
	assertContains(t, mustRun(t, "section", "list"), "Backlog")

	assertContains(t, mustRun(t, "context", "clear"), "Context cleared")
	assertContains(t, mustRun(t, "add", "Errand"), "to [Inbox]")
	if _, err := run(t, "", "context", "set", "9"); err == nil {
		t.Fatal("expected unknown project to fail")
	}
}

func TestExportImportDiff(t *testing.T) {
	home := setupCLI(t)
	file := filepath.Join(home, "release.yaml")

	mustRun(t, "add", "Release")
	mustRun(t, "add", "Changelog", "--parent", "1")
	mustRun(t, "export", "1", "-o", file)

	assertContains(t, mustRun(t, "diff", file), "2 tasks, 0 changed")

	mustRun(t, "done", "2")
	assertContains(t, mustRun(t, "diff", file), "done", "2 tasks, 1 changed")

	out := mustRun(t, "import", file)
	assertContains(t, out, "Imported 2 tasks", "#3 Release", "#4 Changelog")
	assertContains(t, mustRun(t, "show", "4", "--raw"), "parent: 3")

	t.Setenv("IRONTRACK_PASSWORD", "hunter2")
	sealed := filepath.Join(home, "sealed.yaml")
	mustRun(t, "export", "1", "-o", sealed, "--encrypt")
	data, err := os.ReadFile(sealed)
	if err != nil {
		t.Fatalf("read sealed: %v", err)
	}
	if strings.Contains(string(data), "Release") {
		t.Fatal("sealed export leaks task names")
	}
	assertContains(t, mustRun(t, "import", sealed, "--parent", "1"), "Imported 2 tasks")
	assertContains(t, mustRun(t, "show", "5", "--raw"), "parent: 1")

	t.Setenv("IRONTRACK_PASSWORD", "wrong")
	if _, err := run(t, "", "import", sealed); err == nil {
		t.Fatal("expected wrong password to fail")
	}
}

func TestParseDate(t *testing.T) {
	ref := time.Date(2026, time.October, 19, 15, 30, 0, 0, time.UTC)
	tests := map[string]int64{
		"":           0,
		"today":      time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC).Unix(),
		"Tomorrow":   time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC).Unix(),
		"2027-01-05": time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC).Unix(),
	}
	for in, want := range tests {
		got, err := parseDate(in, ref)
		if err != nil || got != want {
			t.Fatalf("parseDate(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := parseDate("next week", ref); err == nil {
		t.Fatal("expected error for unsupported date")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := truncate("ünïcödé names", 8); got != "ünïcö..." {
		t.Fatalf("unexpected %q", got)
	}
}
