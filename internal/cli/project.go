package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/model"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  `Create and list projects for organizing task trees.`,
}

var projectNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new project",
	Long: `Create a new project for organizing tasks.

Examples:
  irontrack project new "Work"
  irontrack project new "Personal" --color "#FF6B6B"`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all projects",
	RunE:    runProjectList,
}

var projectColor string

func init() {
	projectNewCmd.Flags().StringVarP(&projectColor, "color", "c", "#4ECDC4", "Project color (hex)")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
}

func runProjectNew(cmd *cobra.Command, args []string) error {
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

	p := &model.Project{Name: args[0], Color: projectColor, Index: int32(len(projects))}
	if err := store.CreateProject(ctx, p); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created project: %s (id: %d)\n", p.Name, p.ID)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-4s  %-20s  %s\n", "ID", "Name", "Tasks")
	fmt.Fprintln(out, strings.Repeat("─", 50))

	totalOpen := 0
	for _, p := range projects {
		open, total, err := countTasks(ctx, store, p.ID)
		if err != nil {
			return err
		}
		totalOpen += open
		fmt.Fprintf(out, "  %-4d  %-20s  %d/%d\n", p.ID, p.Name, open, total)
	}

	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintf(out, "  %d projects, %d open tasks\n\n", len(projects), totalOpen)

	return nil
}
