package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/dayplanner/internal/model"
	"github.com/nhle/dayplanner/internal/store"
	"github.com/nhle/dayplanner/internal/tasks"
)

// defaultProjectName is used for tasks added without --project.
const defaultProjectName = "Inbox"

func newTaskCmd(e *env) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	taskAddCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE:  e.runTaskAdd,
	}
	taskAddCmd.Flags().String("description", "", "Task description")
	taskAddCmd.Flags().Int("duration", 0, "Estimated duration in minutes")
	taskAddCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().String("priority", string(model.PriorityMedium), "LOW, MEDIUM or HIGH")
	taskAddCmd.Flags().String("project", "", "Project id or name (created if missing)")
	taskAddCmd.Flags().StringSlice("labels", nil, "Comma separated labels")
	taskAddCmd.Flags().StringSlice("depends-on", nil, "Ids of tasks this one depends on")

	taskListCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE:  e.runTaskList,
	}
	taskListCmd.Flags().String("status", "", "Only tasks with this status")
	taskListCmd.Flags().String("due", "", "Only tasks due on this date")
	taskListCmd.Flags().String("project", "", "Only tasks in this project id")
	taskListCmd.Flags().String("query", "", "Search name and description")
	taskListCmd.Flags().String("sort", "created_at", "Sort column")
	taskListCmd.Flags().Bool("desc", false, "Sort descending")
	taskListCmd.Flags().Int("limit", 0, "Maximum number of tasks")

	taskDoneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task done",
		Args:  cobra.ExactArgs(1),
		RunE:  e.runComplete,
	}

	taskDeleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE:  e.runTaskDelete,
	}

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskDeleteCmd)
	return taskCmd
}

func newCompleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task done and roll its recurrence forward",
		Args:  cobra.ExactArgs(1),
		RunE:  e.runComplete,
	}
}

func (e *env) runTaskAdd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	description, _ := flags.GetString("description")
	duration, _ := flags.GetInt("duration")
	due, _ := flags.GetString("due")
	priority, _ := flags.GetString("priority")
	project, _ := flags.GetString("project")
	labels, _ := flags.GetStringSlice("labels")
	deps, _ := flags.GetStringSlice("depends-on")

	projectID, err := e.resolveProject(cmd, project)
	if err != nil {
		return err
	}

	task := model.Task{
		Name:         args[0],
		Description:  description,
		ProjectID:    projectID,
		DueDate:      due,
		Priority:     model.Priority(strings.ToUpper(priority)),
		Labels:       labels,
		Dependencies: deps,
	}
	if flags.Changed("duration") {
		task.Duration = &duration
	}

	created, err := e.tasks.Create(cmd.Context(), task)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", created.ID)
	return nil
}

// resolveProject maps a project id or name to an id, creating a project
// with that name when none matches.
func (e *env) resolveProject(cmd *cobra.Command, ref string) (string, error) {
	ctx := cmd.Context()
	if ref == "" {
		ref = defaultProjectName
	}

	p, err := e.store.GetProjectByID(ctx, ref)
	if err == nil {
		return p.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	projects, err := e.store.GetProjects(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p.ID, nil
		}
	}

	id, err := e.store.CreateProject(ctx, model.Project{Name: ref})
	if err != nil {
		return "", err
	}
	e.log.Info("project created", "project_id", id, "name", ref)
	return id, nil
}

func (e *env) runTaskList(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	var filter store.TaskFilter

	if v, _ := flags.GetString("status"); v != "" {
		status := model.Status(strings.ToUpper(v))
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", v)
		}
		filter.Status = &status
	}
	if v, _ := flags.GetString("due"); v != "" {
		filter.DueDate = &v
	}
	if v, _ := flags.GetString("project"); v != "" {
		filter.ProjectID = &v
	}
	if v, _ := flags.GetString("query"); v != "" {
		filter.Query = &v
	}
	filter.SortBy, _ = flags.GetString("sort")
	filter.SortDesc, _ = flags.GetBool("desc")
	filter.Limit, _ = flags.GetInt("limit")

	list, err := e.store.GetTasks(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}
	for _, t := range list {
		printTaskLine(out, t)
	}
	return nil
}

func (e *env) runComplete(cmd *cobra.Command, args []string) error {
	res, err := e.tasks.Complete(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printCompletion(cmd, res)
	return nil
}

func printCompletion(cmd *cobra.Command, res tasks.UpdateResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completed %s\n", res.Task.Name)
	if res.Next != nil {
		fmt.Fprintf(out, "Next occurrence %s due %s\n", res.Next.ID, res.Next.DueDate)
	}
}

func (e *env) runTaskDelete(cmd *cobra.Command, args []string) error {
	if err := e.store.DeleteTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
	return nil
}
