package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/theme"
)

func newProjectCmd(e *env) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	projectAddCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a project",
		Args:  cobra.ExactArgs(1),
		RunE:  e.runProjectAdd,
	}
	projectAddCmd.Flags().String("description", "", "Project description")
	projectAddCmd.Flags().String("color", "", "Display color")

	projectListCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE:  e.runProjectList,
	}

	projectDeleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE:  e.runProjectDelete,
	}

	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectDeleteCmd)
	return projectCmd
}

func (e *env) runProjectAdd(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	color, _ := cmd.Flags().GetString("color")

	id, err := e.store.CreateProject(cmd.Context(), model.Project{
		Name:        args[0],
		Description: description,
		Color:       color,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", id)
	return nil
}

func (e *env) runProjectList(cmd *cobra.Command, _ []string) error {
	projects, err := e.store.GetProjectSummaries(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects yet.")
		return nil
	}
	for _, p := range projects {
		fmt.Fprintf(out, "  %-20s %3d open %3d recurring  %s\n",
			p.Name, p.OpenTasks, p.RecurringRules, theme.MutedStyle.Render(p.ID))
	}
	return nil
}

func (e *env) runProjectDelete(cmd *cobra.Command, args []string) error {
	if err := e.store.DeleteProject(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
	return nil
}
