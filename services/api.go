package services

// API groups the per-entity services over one Client.
type API struct {
	Projects    *ProjectService
	Tasks       *TaskService
	Subtasks    *SubtaskService
	Invitations *InvitationService
	Users       *UserService
}

func NewAPI(client *Client) *API {
	return &API{
		Projects:    NewProjectService(client),
		Tasks:       NewTaskService(client),
		Subtasks:    NewSubtaskService(client),
		Invitations: NewInvitationService(client),
		Users:       NewUserService(client),
	}
}
