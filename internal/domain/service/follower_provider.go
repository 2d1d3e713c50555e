package service

import (
	"context"
)

// FollowerProvider is the social-graph collaborator, consumed only to know
// who to notify on a level-up.
type FollowerProvider interface {
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
}
