// Package cli is the taskflow command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Farhad7860/TaskFlow/state"
)

// App is what every command runs against.
type App struct {
	Store *state.Store
	Out   io.Writer

	output string
}

func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "TaskFlow Kanban client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.PersistentFlags().StringVarP(&app.output, "output", "o", "text", "output format: text, yaml or json")

	root.AddCommand(
		newRegisterCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newProjectsCmd(app),
		newMembersCmd(app),
		newInviteCmd(app),
		newTasksCmd(app),
		newSubtasksCmd(app),
		newBoardCmd(app),
	)
	return root
}

// emit writes v in the selected format; text falls back to the given renderer.
func (a *App) emit(v any, text func(w io.Writer) error) error {
	switch a.output {
	case "", "text":
		return text(a.Out)
	case "yaml":
		enc := yaml.NewEncoder(a.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(a.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
}

func table(w io.Writer, header string, rows func(tw io.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}
