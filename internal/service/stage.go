package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sladrus/messenger-server2/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrStageInUse rejects deleting a stage that still classifies conversations.
var ErrStageInUse = errors.New("stage is still assigned to conversations")

type stageStore interface {
	List(ctx context.Context) ([]model.Stage, error)
	ListByType(ctx context.Context, convType string) ([]model.Stage, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Stage, error)
	Create(ctx context.Context, s *model.Stage) (*model.Stage, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type stageCounter interface {
	CountByStage(ctx context.Context, stageID primitive.ObjectID) (int64, error)
}

type StageService struct {
	stages stageStore
	convs  stageCounter
	hub    *WSHub
}

func NewStageService(stages stageStore, convs stageCounter, hub *WSHub) *StageService {
	return &StageService{stages: stages, convs: convs, hub: hub}
}

func (s *StageService) List(ctx context.Context) ([]model.Stage, error) {
	return s.stages.List(ctx)
}

// ListForType returns stages applicable to a conversation category, in
// board order.
func (s *StageService) ListForType(ctx context.Context, convType string) ([]model.Stage, error) {
	return s.stages.ListByType(ctx, convType)
}

func (s *StageService) Create(ctx context.Context, stage *model.Stage) (*model.Stage, error) {
	created, err := s.stages.Create(ctx, stage)
	if err != nil {
		return nil, err
	}
	s.broadcastStages(ctx)
	return created, nil
}

// Delete removes a stage. A stage still referenced by any conversation is
// left untouched and the call fails with ErrStageInUse.
func (s *StageService) Delete(ctx context.Context, id primitive.ObjectID) error {
	stage, err := s.stages.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if stage == nil {
		return ErrStageNotFound
	}
	n, err := s.convs.CountByStage(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d conversation(s) in stage %q", ErrStageInUse, n, stage.Label)
	}
	if err := s.stages.Delete(ctx, id); err != nil {
		return err
	}
	s.broadcastStages(ctx)
	return nil
}

func (s *StageService) broadcastStages(ctx context.Context) {
	if s.hub == nil {
		return
	}
	stages, err := s.stages.List(ctx)
	if err != nil {
		return
	}
	s.hub.Broadcast(model.WSStagesSet, stages)
}
