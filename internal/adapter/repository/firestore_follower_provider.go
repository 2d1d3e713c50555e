package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"questrank/internal/domain/service"
)

type firestoreFollowerProvider struct {
	client *firestore.Client
}

func NewFirestoreFollowerProvider(client *firestore.Client) service.FollowerProvider {
	return &firestoreFollowerProvider{
		client: client,
	}
}

func (r *firestoreFollowerProvider) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	iter := r.client.Collection("follows").Where("followingId", "==", userID).Documents(ctx)
	defer iter.Stop()

	var followerIDs []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate followers: %w", err)
		}

		var edge struct {
			FollowerID string `firestore:"followerId"`
		}
		if err := doc.DataTo(&edge); err != nil {
			return nil, fmt.Errorf("failed to decode follow edge: %w", err)
		}
		if edge.FollowerID != "" {
			followerIDs = append(followerIDs, edge.FollowerID)
		}
	}

	return followerIDs, nil
}
