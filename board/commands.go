package board

import (
	"context"

	"github.com/Farhad7860/TaskFlow/models"
	"github.com/Farhad7860/TaskFlow/services"
)

type Command interface {
	Execute(ctx context.Context) error
}

// Mover is the board operation a MoveTaskCommand runs against.
type Mover interface {
	Move(ctx context.Context, taskID string, target models.TaskStatus) (models.Task, error)
}

type MoveTaskCommand struct {
	TaskID string
	Target models.TaskStatus
	Svc    Mover

	// Result holds the server's copy of the task after Execute succeeds.
	Result models.Task
}

func (cmd *MoveTaskCommand) Execute(ctx context.Context) error {
	task, err := cmd.Svc.Move(ctx, cmd.TaskID, cmd.Target)
	if err != nil {
		return err
	}
	cmd.Result = task
	return nil
}

// MoveTaskHandler turns user input into a MoveTaskCommand.
type MoveTaskHandler struct {
	Board Mover
}

func NewMoveTaskHandler(b Mover) *MoveTaskHandler {
	return &MoveTaskHandler{Board: b}
}

func (h *MoveTaskHandler) Handle(ctx context.Context, taskID, status string) (models.Task, error) {
	target, err := models.ParseTaskStatus(status)
	if err != nil {
		return models.Task{}, &services.ValidationError{Field: "status", Message: err.Error()}
	}
	cmd := &MoveTaskCommand{TaskID: taskID, Target: target, Svc: h.Board}
	if err := cmd.Execute(ctx); err != nil {
		return models.Task{}, err
	}
	return cmd.Result, nil
}
