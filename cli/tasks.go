package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Farhad7860/TaskFlow/board"
	"github.com/Farhad7860/TaskFlow/models"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage the tasks of a project",
	}
	cmd.AddCommand(
		newTasksListCmd(app),
		newTasksCreateCmd(app),
		newTasksShowCmd(app),
		newTasksUpdateCmd(app),
		newTasksMoveCmd(app),
	)
	return cmd
}

func printTasks(w io.Writer, tasks []models.Task) error {
	return table(w, "ID\tTITLE\tSTATUS", func(tw io.Writer) {
		for _, t := range tasks {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Title, t.Status.Title())
		}
	})
}

func printTask(w io.Writer, t models.Task) error {
	_, err := fmt.Fprintf(w, "%s  %s [%s]\n%s\n", t.ID, t.Title, t.Status.Title(), t.Description)
	return err
}

func statusFlag(raw string) (models.TaskStatus, error) {
	if raw == "" {
		return "", nil
	}
	return models.ParseTaskStatus(raw)
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := app.Store.Tasks.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(tasks, func(w io.Writer) error { return printTasks(w, tasks) })
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var (
		draft  models.TaskDraft
		status string
	)
	cmd := &cobra.Command{
		Use:   "create PROJECT_ID",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := statusFlag(status)
			if err != nil {
				return err
			}
			draft.Status = s
			t, err := app.Store.Tasks.Create(cmd.Context(), args[0], draft)
			if err != nil {
				return err
			}
			return app.emit(t, func(w io.Writer) error { return printTask(w, t) })
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "task title")
	cmd.Flags().StringVar(&draft.Description, "description", "", "task description")
	cmd.Flags().StringVar(&status, "status", "todo", "initial status")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT_ID TASK_ID",
		Short: "Show a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Store.Tasks.FetchDetails(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return app.emit(t, func(w io.Writer) error { return printTask(w, t) })
		},
	}
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var (
		update      models.TaskUpdate
		description string
		status      string
	)
	cmd := &cobra.Command{
		Use:   "update PROJECT_ID TASK_ID",
		Short: "Edit a task's title, description or status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := statusFlag(status)
			if err != nil {
				return err
			}
			update.Status = s
			if cmd.Flags().Changed("description") {
				update.Description = &description
			}
			t, err := app.Store.Tasks.Update(cmd.Context(), args[0], args[1], update)
			if err != nil {
				return err
			}
			return app.emit(t, func(w io.Writer) error { return printTask(w, t) })
		},
	}
	cmd.Flags().StringVar(&update.Title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move PROJECT_ID TASK_ID STATUS",
		Short: "Move a task to another column (todo, in-progress, review, done)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := board.New(args[0], app.Store.Tasks)
			t, err := board.NewMoveTaskHandler(b).Handle(cmd.Context(), args[1], args[2])
			if err != nil {
				return err
			}
			return app.emit(t, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Moved %s to %s\n", t.ID, t.Status.Title())
				return err
			})
		},
	}
}

func newSubtasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtasks",
		Short: "List or add subtasks of a task",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list PROJECT_ID TASK_ID",
		Short: "List subtasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subs, err := app.Store.Subtasks.Fetch(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return app.emit(subs, func(w io.Writer) error {
				return table(w, "ID\tTITLE\tSTATUS", func(tw io.Writer) {
					for _, s := range subs {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Title, s.Status.Title())
					}
				})
			})
		},
	})

	var draft models.SubtaskDraft
	create := &cobra.Command{
		Use:   "create PROJECT_ID TASK_ID",
		Short: "Add a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Store.Subtasks.Create(cmd.Context(), args[0], args[1], draft)
			if err != nil {
				return err
			}
			return app.emit(s, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created subtask %s  %s\n", s.ID, s.Title)
				return err
			})
		},
	}
	create.Flags().StringVar(&draft.Title, "title", "", "subtask title")
	create.Flags().StringVar(&draft.Description, "description", "", "subtask description")
	cmd.AddCommand(create)
	return cmd
}
