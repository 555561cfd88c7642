package board

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Farhad7860/TaskFlow/models"
)

// LaneView is the serializable form of one lane.
type LaneView struct {
	Status models.TaskStatus `yaml:"status" json:"status"`
	Title  string            `yaml:"title" json:"title"`
	Count  int               `yaml:"count" json:"count"`
	Tasks  []models.Task     `yaml:"tasks" json:"tasks"`
}

type View struct {
	ProjectID string     `yaml:"projectId" json:"projectId"`
	Lanes     []LaneView `yaml:"lanes" json:"lanes"`
}

// View returns the lanes in display order, Unknown last when present.
func (b *Board) View() View {
	lanes := b.Lanes()
	order := models.Statuses
	if _, ok := lanes[Unknown]; ok {
		order = append(append([]models.TaskStatus{}, order...), Unknown)
	}
	v := View{ProjectID: b.ProjectID, Lanes: make([]LaneView, 0, len(order))}
	for _, status := range order {
		title := status.Title()
		if status == Unknown {
			title = "Unknown"
		}
		v.Lanes = append(v.Lanes, LaneView{Status: status, Title: title, Count: len(lanes[status]), Tasks: lanes[status]})
	}
	return v
}

// Render writes the board as plain text, one block per lane.
func (b *Board) Render(w io.Writer) error {
	for i, lane := range b.View().Lanes {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s (%d)\n", lane.Title, lane.Count); err != nil {
			return err
		}
		for _, t := range lane.Tasks {
			line := fmt.Sprintf("  - %s  %s", t.ID, t.Title)
			if lane.Status == Unknown {
				line += fmt.Sprintf("  [status %q]", t.Status)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Board) RenderYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b.View()); err != nil {
		return err
	}
	return enc.Close()
}
