package models

type Invitation struct {
	ProjectID   string `json:"projectId" yaml:"projectId"`
	RecipientID string `json:"recipientId" yaml:"recipientId"`
	Message     string `json:"message" yaml:"message"`
}
