package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/repository"
	apperrors "questrank/pkg/errors"
)

type firestoreProgressionRepository struct {
	client *firestore.Client
}

func NewFirestoreProgressionRepository(client *firestore.Client) repository.ProgressionRepository {
	return &firestoreProgressionRepository{
		client: client,
	}
}

func (r *firestoreProgressionRepository) ledgerRef(userID string) *firestore.DocumentRef {
	return r.client.Collection("users").Doc(userID).Collection("progression").Doc("ledger")
}

func (r *firestoreProgressionRepository) GetLedger(ctx context.Context, userID string) (*entity.ProgressionLedger, error) {
	doc, err := r.ledgerRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.NotFound("progression ledger", err)
		}
		return nil, fmt.Errorf("failed to get progression ledger: %w", err)
	}

	var ledger entity.ProgressionLedger
	if err := doc.DataTo(&ledger); err != nil {
		return nil, fmt.Errorf("failed to decode progression ledger: %w", err)
	}
	return &ledger, nil
}

func (r *firestoreProgressionRepository) CreateLedger(ctx context.Context, ledger *entity.ProgressionLedger) error {
	_, err := r.ledgerRef(ledger.UserID).Create(ctx, ledger)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return apperrors.Conflict("progression ledger already exists")
		}
		return fmt.Errorf("failed to create progression ledger: %w", err)
	}
	return nil
}

// UpdateLedger runs mutate inside a Firestore transaction, so concurrent
// grants for the same user serialize on the ledger document instead of
// overwriting each other.
func (r *firestoreProgressionRepository) UpdateLedger(ctx context.Context, userID string, mutate func(*entity.ProgressionLedger) error) (*entity.ProgressionLedger, error) {
	ref := r.ledgerRef(userID)

	var updated *entity.ProgressionLedger
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return apperrors.NotFound("progression ledger", err)
			}
			return err
		}

		var ledger entity.ProgressionLedger
		if err := doc.DataTo(&ledger); err != nil {
			return fmt.Errorf("failed to decode progression ledger: %w", err)
		}
		if ledger.AppliedGrantKeys == nil {
			ledger.AppliedGrantKeys = map[string]bool{}
		}

		if err := mutate(&ledger); err != nil {
			return err
		}

		ledger.UpdatedAt = time.Now()
		updated = &ledger
		return tx.Set(ref, &ledger)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
