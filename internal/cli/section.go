package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/irontrack/internal/model"
)

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Manage sections of a project",
}

var sectionNewCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a section",
	Args:  cobra.ExactArgs(1),
	RunE:  runSectionNew,
}

var sectionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the sections of a project",
	RunE:    runSectionList,
}

var sectionProject int64

func init() {
	sectionCmd.PersistentFlags().Int64VarP(&sectionProject, "project", "P", 0, "Project id (defaults to the current context)")

	sectionCmd.AddCommand(sectionNewCmd)
	sectionCmd.AddCommand(sectionListCmd)
}

func sectionProjectID(cmd *cobra.Command) int64 {
	if cmd.Flags().Changed("project") {
		return sectionProject
	}
	return GetCurrentContext()
}

func runSectionNew(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := context.Background()
	projectID := sectionProjectID(cmd)
	existing, err := store.ListSections(ctx, projectID)
	if err != nil {
		return err
	}

	s := &model.Section{Name: args[0], Project: projectID, Index: int32(len(existing))}
	if err := store.CreateSection(ctx, s); err != nil {
		return fmt.Errorf("failed to create section: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created section: %s (id: %d)\n", s.Name, s.ID)
	return nil
}

func runSectionList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	projectID := sectionProjectID(cmd)
	sections, err := store.ListSections(context.Background(), projectID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sections) == 0 {
		fmt.Fprintf(out, "No sections in project %d.\n", projectID)
		return nil
	}
	for _, s := range sections {
		fmt.Fprintf(out, "  %-4d  %s\n", s.ID, s.Name)
	}
	return nil
}
