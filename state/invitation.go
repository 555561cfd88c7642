package state

import (
	"context"
	"time"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
	"github.com/Farhad7860/TaskFlow/session"
)

type InvitationState struct {
	LastSent *models.Invitation
}

type InvitationSlice struct {
	*core[InvitationState]
	api      *services.InvitationService
	sessions Sessions
}

func NewInvitationSlice(api *services.InvitationService, sessions Sessions, timeout time.Duration) *InvitationSlice {
	return &InvitationSlice{
		core: newCore("invitations", timeout,
			func() InvitationState { return InvitationState{} },
			func(s InvitationState) InvitationState { return InvitationState{LastSent: clonePtr(s.LastSent)} }),
		api:      api,
		sessions: sessions,
	}
}

func (s *InvitationSlice) Send(ctx context.Context, inv models.Invitation) error {
	_, err := run(s.core, ctx, "send", "",
		withSession(s.sessions, func(ctx context.Context, sess session.Session) (models.Invitation, error) {
			return inv, s.api.SendInvitation(ctx, sess, inv)
		}),
		func(st *InvitationState, sent models.Invitation) bool {
			st.LastSent = &sent
			return true
		})
	return err
}

func (s *InvitationSlice) Reset() { s.reset() }
