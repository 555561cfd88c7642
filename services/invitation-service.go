package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/session"
)

type InvitationService struct {
	client *Client
}

func NewInvitationService(client *Client) *InvitationService {
	return &InvitationService{client: client}
}

// SendInvitation is fire-and-forget: only the send confirmation is tracked.
func (s *InvitationService) SendInvitation(ctx context.Context, sess session.Session, inv models.Invitation) error {
	if err := requireID("projectId", inv.ProjectID); err != nil {
		return err
	}
	inv.RecipientID = strings.TrimSpace(inv.RecipientID)
	if inv.RecipientID == "" {
		return invalid("recipientId", "Recipient is required")
	}
	return s.client.do(ctx, request{
		area: areaInvitations, op: "sendInvitation",
		method: http.MethodPost, path: "/api/invitations/send",
		body: inv, sess: &sess, fallback: "Failed to send invitation",
	}, nil)
}
