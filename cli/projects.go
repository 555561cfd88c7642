package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Farhad7860/TaskFlow/models"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(app),
		newProjectsCreateCmd(app),
		newProjectsShowCmd(app),
		newProjectsUpdateCmd(app),
		newProjectsDeleteCmd(app),
	)
	return cmd
}

func printProjects(w io.Writer, projects []models.Project) error {
	return table(w, "ID\tNAME\tLEADER\tMEMBERS", func(tw io.Writer) {
		for _, p := range projects {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.LeaderID, len(p.Members))
		}
	})
}

func printProject(w io.Writer, p models.Project) error {
	_, err := fmt.Fprintf(w, "%s  %s\nLeader: %s\nMembers: %d\n%s\n", p.ID, p.Name, p.LeaderID, len(p.Members), p.Description)
	return err
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects you lead or belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := app.Store.Projects.FetchUserProjects(cmd.Context())
			if err != nil {
				return err
			}
			return app.emit(projects, func(w io.Writer) error { return printProjects(w, projects) })
		},
	}
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var draft models.ProjectDraft
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.Store.Projects.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return app.emit(p, func(w io.Writer) error { return printProject(w, p) })
		},
	}
	cmd.Flags().StringVar(&draft.Name, "name", "", "project name")
	cmd.Flags().StringVar(&draft.Description, "description", "", "project description")
	return cmd
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT_ID",
		Short: "Show project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Store.Projects.FetchDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(p, func(w io.Writer) error { return printProject(w, p) })
		},
	}
}

func newProjectsUpdateCmd(app *App) *cobra.Command {
	var (
		update      models.ProjectUpdate
		description string
	)
	cmd := &cobra.Command{
		Use:   "update PROJECT_ID",
		Short: "Rename a project or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("description") {
				update.Description = &description
			}
			p, err := app.Store.Projects.Update(cmd.Context(), args[0], update)
			if err != nil {
				return err
			}
			return app.emit(p, func(w io.Writer) error { return printProject(w, p) })
		},
	}
	cmd.Flags().StringVar(&update.Name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PROJECT_ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.Projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Project %s deleted\n", args[0])
			return nil
		},
	}
}

func newMembersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List or remove project members",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List project members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := app.Store.Projects.FetchMembers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(members, func(w io.Writer) error {
				return table(w, "ID\tNAME\tEMAIL", func(tw io.Writer) {
					for _, m := range members {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, m.Email)
					}
				})
			})
		},
	}, &cobra.Command{
		Use:   "remove PROJECT_ID USER_ID",
		Short: "Remove a member from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.Projects.RemoveMember(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Removed %s from %s\n", args[1], args[0])
			return nil
		},
	})
	return cmd
}

func newInviteCmd(app *App) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "invite PROJECT_ID RECIPIENT_ID",
		Short: "Invite a user to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := models.Invitation{ProjectID: args[0], RecipientID: args[1], Message: message}
			if err := app.Store.Invitations.Send(cmd.Context(), inv); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Invitation sent to %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message shown to the recipient")
	return cmd
}
