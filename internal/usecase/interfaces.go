package usecase

import "context"

// LevelCache is the cached-level side of the identity collaborator: quest
// prerequisite checks read it to avoid a ledger round trip on every call.
// Both methods are best-effort; a miss or a failed write is never an error.
type LevelCache interface {
	GetLevel(ctx context.Context, userID string) (int, bool)
	SetLevel(ctx context.Context, userID string, level int)
}
