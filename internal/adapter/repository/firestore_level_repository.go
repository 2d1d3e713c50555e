package repository

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/repository"
)

type firestoreLevelRepository struct {
	client *firestore.Client
}

func NewFirestoreLevelRepository(client *firestore.Client) repository.LevelRepository {
	return &firestoreLevelRepository{
		client: client,
	}
}

func (r *firestoreLevelRepository) ListAll(ctx context.Context) ([]entity.LevelDefinition, error) {
	iter := r.client.Collection("levels").OrderBy("level", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var defs []entity.LevelDefinition
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate levels: %w", err)
		}

		var def entity.LevelDefinition
		if err := doc.DataTo(&def); err != nil {
			return nil, fmt.Errorf("failed to decode level: %w", err)
		}
		defs = append(defs, def)
	}

	return defs, nil
}

func (r *firestoreLevelRepository) Create(ctx context.Context, def *entity.LevelDefinition) error {
	_, err := r.client.Collection("levels").Doc(strconv.Itoa(def.Level)).Set(ctx, def)
	if err != nil {
		return fmt.Errorf("failed to create level %d: %w", def.Level, err)
	}
	return nil
}
