package service

import (
	"context"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// taskStageValue is the stage conversations move to while a task is open.
const taskStageValue = "task"

type TaskService struct {
	tasks     *repository.TaskRepository
	taskTypes *repository.TaskTypeRepository
	stages    *repository.StageRepository
	convs     *repository.ConversationRepository
	convSvc   *ConversationService
}

func NewTaskService(
	tasks *repository.TaskRepository,
	taskTypes *repository.TaskTypeRepository,
	stages *repository.StageRepository,
	convs *repository.ConversationRepository,
	convSvc *ConversationService,
) *TaskService {
	return &TaskService{
		tasks:     tasks,
		taskTypes: taskTypes,
		stages:    stages,
		convs:     convs,
		convSvc:   convSvc,
	}
}

func (s *TaskService) ListTypes(ctx context.Context) ([]model.TaskType, error) {
	return s.taskTypes.List(ctx)
}

func (s *TaskService) CreateType(ctx context.Context, title string) (*model.TaskType, error) {
	return s.taskTypes.Create(ctx, title)
}

// Create records a task against a conversation and moves it to the task
// stage when one is configured.
func (s *TaskService) Create(ctx context.Context, convID primitive.ObjectID, typeID *primitive.ObjectID, text string, endAt time.Time) (*model.Task, error) {
	task, err := s.tasks.Create(ctx, &model.Task{
		Text:         text,
		Conversation: convID,
		Type:         typeID,
		EndAt:        endAt,
	})
	if err != nil {
		return nil, err
	}
	if err := s.convs.AddTask(ctx, convID, task.ID); err != nil {
		return nil, err
	}

	stage, err := s.stages.FindByValue(ctx, taskStageValue)
	if err != nil {
		return nil, err
	}
	if stage != nil {
		if err := s.convSvc.UpdateStage(ctx, convID, stage.ID); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// Complete marks a task done with its outcome text.
func (s *TaskService) Complete(ctx context.Context, id primitive.ObjectID, result string) error {
	return s.tasks.SetDone(ctx, id, result)
}
