package repository

import (
	"context"

	"questrank/internal/domain/entity"
)

// LevelRepository loads and seeds the level table. The table is read once at
// startup and held immutable in memory for the life of the process.
type LevelRepository interface {
	ListAll(ctx context.Context) ([]entity.LevelDefinition, error)
	Create(ctx context.Context, def *entity.LevelDefinition) error
}
