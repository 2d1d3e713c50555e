package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/repository"
	apperrors "questrank/pkg/errors"
)

type firestoreQuestCatalogRepository struct {
	client *firestore.Client
}

func NewFirestoreQuestCatalogRepository(client *firestore.Client) repository.QuestCatalogRepository {
	return &firestoreQuestCatalogRepository{
		client: client,
	}
}

func (r *firestoreQuestCatalogRepository) GetByID(ctx context.Context, questID string) (*entity.QuestDefinition, error) {
	doc, err := r.client.Collection("quests").Doc(questID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.NotFound("quest", err)
		}
		return nil, fmt.Errorf("failed to get quest: %w", err)
	}

	var def entity.QuestDefinition
	if err := doc.DataTo(&def); err != nil {
		return nil, fmt.Errorf("failed to decode quest: %w", err)
	}
	return &def, nil
}

func (r *firestoreQuestCatalogRepository) ListActive(ctx context.Context) ([]entity.QuestDefinition, error) {
	iter := r.client.Collection("quests").Where("isActive", "==", true).Documents(ctx)
	defer iter.Stop()

	var defs []entity.QuestDefinition
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate quests: %w", err)
		}

		var def entity.QuestDefinition
		if err := doc.DataTo(&def); err != nil {
			return nil, fmt.Errorf("failed to decode quest: %w", err)
		}
		defs = append(defs, def)
	}

	return defs, nil
}

func (r *firestoreQuestCatalogRepository) Create(ctx context.Context, def *entity.QuestDefinition) error {
	def.CreatedAt = time.Now()
	def.UpdatedAt = time.Now()

	_, err := r.client.Collection("quests").Doc(def.ID).Set(ctx, def)
	if err != nil {
		return fmt.Errorf("failed to create quest: %w", err)
	}
	return nil
}
