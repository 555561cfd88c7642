package models

import "encoding/json"

type Subtask struct {
	ID          string     `json:"_id" yaml:"id"`
	TaskID      string     `json:"taskId" yaml:"taskId"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Status      TaskStatus `json:"status" yaml:"status"`
}

func (s *Subtask) UnmarshalJSON(data []byte) error {
	type alias Subtask
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = aux.AltID
	}
	return nil
}

type SubtaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
}
