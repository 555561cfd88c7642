package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "inProgress"
	StatusVerify     TaskStatus = "verify"
	StatusDone       TaskStatus = "done"
)

// Statuses lists the board lanes in display order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusVerify, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusVerify, StatusDone:
		return true
	}
	return false
}

// Title is the column header shown for the status.
func (s TaskStatus) Title() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusVerify:
		return "Review"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseTaskStatus accepts the wire names plus the column titles typed on a command line.
func ParseTaskStatus(s string) (TaskStatus, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "todo":
		return StatusTodo, nil
	case "inprogress":
		return StatusInProgress, nil
	case "verify", "review":
		return StatusVerify, nil
	case "done":
		return StatusDone, nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

type Task struct {
	ID          string     `json:"_id" yaml:"id"`
	ProjectID   string     `json:"projectId" yaml:"projectId"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status" yaml:"status"`
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = aux.AltID
	}
	return nil
}

// TaskDraft is the body of a create-task request.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
}

// TaskUpdate carries the editable task fields; empty fields are left untouched by the server.
type TaskUpdate struct {
	Title       string     `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
}
