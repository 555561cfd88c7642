package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Farhad7860/TaskFlow/board"
)

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board PROJECT_ID",
		Short: "Show the project board",
		Long:  "Loads the project's details, members and tasks, then prints the four status columns.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.LoadProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			b := board.New(args[0], app.Store.Tasks)
			if app.output == "yaml" {
				return b.RenderYAML(app.Out)
			}
			return app.emit(b.View(), func(w io.Writer) error { return b.Render(w) })
		},
	}
}
