package repository

import (
	"context"

	"questrank/internal/domain/entity"
)

// QuestCatalogRepository serves quest definitions: append-only reference
// data, safe to cache by id.
type QuestCatalogRepository interface {
	GetByID(ctx context.Context, questID string) (*entity.QuestDefinition, error)
	ListActive(ctx context.Context) ([]entity.QuestDefinition, error)
	Create(ctx context.Context, def *entity.QuestDefinition) error
}

// QuestInstanceRepository persists one current instance per (user, quest)
// plus an archive of superseded attempts.
//
// StartInstance is the guarded check-then-act for quest starts: inside one
// transaction it reads the current instance, asks replacePolicy whether the
// new instance may take its place (nil prev means no instance exists), and on
// approval archives the previous attempt and stores the new one. A non-nil
// error from replacePolicy aborts the start and is returned verbatim, so two
// concurrent starts cannot both pass the "no active instance" check.
//
// UpdateInstance runs mutate inside an atomic read-modify-write scoped to one
// (user, quest) instance; mutations that survive mutate are persisted, a
// non-nil error aborts the write.
type QuestInstanceRepository interface {
	GetInstance(ctx context.Context, userID, questID string) (*entity.QuestInstance, error)
	StartInstance(ctx context.Context, inst *entity.QuestInstance, replacePolicy func(prev *entity.QuestInstance) error) error
	UpdateInstance(ctx context.Context, userID, questID string, mutate func(*entity.QuestInstance) error) (*entity.QuestInstance, error)
	ListInstances(ctx context.Context, userID string) ([]entity.QuestInstance, error)
}
