package models

import (
	"encoding/json"
	"fmt"
)

type Project struct {
	ID          string `json:"_id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	LeaderID    Ref    `json:"leaderId" yaml:"leaderId"`
	Members     []Ref  `json:"members" yaml:"members"`
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type alias Project
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.AltID
	}
	return nil
}

// HasMember reports whether userID is listed among the project members.
func (p Project) HasMember(userID string) bool {
	for _, m := range p.Members {
		if string(m) == userID {
			return true
		}
	}
	return false
}

type ProjectDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProjectUpdate struct {
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Ref is a user reference. The backend sends either a bare id or a populated
// document; both decode to the id.
type Ref string

func (r *Ref) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref(id)
		return nil
	}
	var doc struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode user reference: %w", err)
	}
	if doc.MongoID != "" {
		*r = Ref(doc.MongoID)
	} else {
		*r = Ref(doc.ID)
	}
	return nil
}
