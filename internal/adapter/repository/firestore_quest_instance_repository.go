package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/repository"
	apperrors "questrank/pkg/errors"
)

type firestoreQuestInstanceRepository struct {
	client *firestore.Client
}

func NewFirestoreQuestInstanceRepository(client *firestore.Client) repository.QuestInstanceRepository {
	return &firestoreQuestInstanceRepository{
		client: client,
	}
}

// The current attempt lives at a deterministic doc id (the quest id), which
// is what makes the start transaction's uniqueness check race-safe.
func (r *firestoreQuestInstanceRepository) instanceRef(userID, questID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).Collection("quest_instances").Doc(questID)
}

func (r *firestoreQuestInstanceRepository) historyRef(userID, instanceID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).Collection("quest_history").Doc(instanceID)
}

func (r *firestoreQuestInstanceRepository) GetInstance(ctx context.Context, userID, questID string) (*entity.QuestInstance, error) {
	doc, err := r.instanceRef(userID, questID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.NotFound("quest instance", err)
		}
		return nil, fmt.Errorf("failed to get quest instance: %w", err)
	}

	var inst entity.QuestInstance
	if err := doc.DataTo(&inst); err != nil {
		return nil, fmt.Errorf("failed to decode quest instance: %w", err)
	}
	return &inst, nil
}

// StartInstance reads the current attempt, consults replacePolicy and, on
// approval, archives the superseded attempt and stores the new one, all in
// one transaction. Two concurrent starts conflict on the instance document;
// the retried transaction re-reads the winner's active instance and the
// policy turns it into a Conflict error. The policy may amend prev (e.g.
// mark a stale attempt expired) before it is archived.
func (r *firestoreQuestInstanceRepository) StartInstance(ctx context.Context, inst *entity.QuestInstance, replacePolicy func(prev *entity.QuestInstance) error) error {
	ref := r.instanceRef(inst.UserID, inst.QuestID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var prev *entity.QuestInstance
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
		} else {
			var decoded entity.QuestInstance
			if err := doc.DataTo(&decoded); err != nil {
				return fmt.Errorf("failed to decode quest instance: %w", err)
			}
			prev = &decoded
		}

		if err := replacePolicy(prev); err != nil {
			return err
		}

		if prev != nil {
			if err := tx.Set(r.historyRef(prev.UserID, prev.ID), prev); err != nil {
				return err
			}
		}
		return tx.Set(ref, inst)
	})
}

// UpdateInstance runs mutate inside a transaction scoped to one (user,
// quest) document: concurrent increments to different counters are both
// preserved, and completion checks always see the post-increment state.
func (r *firestoreQuestInstanceRepository) UpdateInstance(ctx context.Context, userID, questID string, mutate func(*entity.QuestInstance) error) (*entity.QuestInstance, error) {
	ref := r.instanceRef(userID, questID)

	var updated *entity.QuestInstance
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return apperrors.NotFound("quest instance", err)
			}
			return err
		}

		var inst entity.QuestInstance
		if err := doc.DataTo(&inst); err != nil {
			return fmt.Errorf("failed to decode quest instance: %w", err)
		}

		if err := mutate(&inst); err != nil {
			return err
		}

		updated = &inst
		return tx.Set(ref, &inst)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *firestoreQuestInstanceRepository) ListInstances(ctx context.Context, userID string) ([]entity.QuestInstance, error) {
	iter := r.client.Collection("users").Doc(userID).Collection("quest_instances").Documents(ctx)
	defer iter.Stop()

	var instances []entity.QuestInstance
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate quest instances: %w", err)
		}

		var inst entity.QuestInstance
		if err := doc.DataTo(&inst); err != nil {
			return nil, fmt.Errorf("failed to decode quest instance: %w", err)
		}
		instances = append(instances, inst)
	}

	return instances, nil
}
