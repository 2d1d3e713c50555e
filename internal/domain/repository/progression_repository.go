package repository

import (
	"context"

	"questrank/internal/domain/entity"
)

// ProgressionRepository persists per-user ledgers. UpdateLedger runs mutate
// inside an atomic read-modify-write scoped to one user; concurrent callers
// for the same user must not lose updates. A non-nil error from mutate aborts
// the write and is returned verbatim.
type ProgressionRepository interface {
	GetLedger(ctx context.Context, userID string) (*entity.ProgressionLedger, error)
	CreateLedger(ctx context.Context, ledger *entity.ProgressionLedger) error
	UpdateLedger(ctx context.Context, userID string, mutate func(*entity.ProgressionLedger) error) (*entity.ProgressionLedger, error)
}
