package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/session"
)

func newRegisterCmd(app *App) *cobra.Command {
	var reg models.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := app.Store.Users.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return app.emit(u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Registered %s <%s>. Log in to continue.\n", u.Name, u.Email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := app.Store.Users.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			return app.emit(u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s <%s>\n", u.Name, u.Email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "email address")
	cmd.Flags().StringVar(&creds.Password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Store.Users.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := app.Store.Users.Snapshot().State.Current
			if u == nil {
				return session.ErrNotAuthenticated
			}
			return app.emit(u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s <%s> (%s)\n", u.Name, u.Email, u.ID)
				return err
			})
		},
	}
}
