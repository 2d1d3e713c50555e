package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/repository"
	"questrank/internal/domain/service"
	"questrank/pkg/errors"
	"questrank/pkg/logger"
)

// errGrantAlreadyApplied aborts the ledger transaction without writing when
// an idempotency key has already been consumed.
var errGrantAlreadyApplied = stderrors.New("grant already applied")

type ProgressionUseCase struct {
	progressionRepo repository.ProgressionRepository
	levelTable      *entity.LevelTable
	followers       service.FollowerProvider
	sink            service.NotificationSink
	levelCache      LevelCache
	logger          logger.Logger
}

func NewProgressionUseCase(
	progressionRepo repository.ProgressionRepository,
	levelTable *entity.LevelTable,
	followers service.FollowerProvider,
	sink service.NotificationSink,
	levelCache LevelCache,
	logger logger.Logger,
) *ProgressionUseCase {
	return &ProgressionUseCase{
		progressionRepo: progressionRepo,
		levelTable:      levelTable,
		followers:       followers,
		sink:            sink,
		levelCache:      levelCache,
		logger:          logger,
	}
}

// ApplyExperience credits a raw XP grant (daily login, manual grant). The
// ledger update is a single atomic read-modify-write per user.
func (uc *ProgressionUseCase) ApplyExperience(ctx context.Context, userID string, amount int64, reason string) (*entity.ProgressionResult, error) {
	return uc.applyGrant(ctx, userID, amount, 0, reason, "")
}

// GrantQuestReward credits a quest completion. grantKey makes the grant
// idempotent: retrying with the same key is a no-op.
func (uc *ProgressionUseCase) GrantQuestReward(ctx context.Context, userID string, rewards entity.QuestRewards, grantKey string) (*entity.ProgressionResult, error) {
	return uc.applyGrant(ctx, userID, rewards.XP, rewards.Coins, "quest", grantKey)
}

func (uc *ProgressionUseCase) applyGrant(ctx context.Context, userID string, amount, coins int64, reason, grantKey string) (*entity.ProgressionResult, error) {
	if amount <= 0 {
		return nil, errors.BadRequest("experience amount must be a positive integer", nil)
	}

	var result *entity.ProgressionResult
	_, err := uc.progressionRepo.UpdateLedger(ctx, userID, func(l *entity.ProgressionLedger) error {
		// The closure may run more than once under transaction retry, so it
		// recomputes everything from the freshly read ledger.
		result = nil

		if grantKey != "" && l.HasGrantKey(grantKey) {
			return errGrantAlreadyApplied
		}

		oldLevel := l.Level
		l.XP += amount
		newLevel := uc.levelTable.LevelForXP(l.XP)

		var unlocked []entity.UnlockedReward
		for lv := oldLevel + 1; lv <= newLevel; lv++ {
			def, ok := uc.levelTable.Definition(lv)
			if !ok {
				return errors.InternalConsistency(fmt.Sprintf("level table has no entry for level %d", lv), nil)
			}
			if l.HasRewardLevel(lv) {
				continue
			}
			unlocked = append(unlocked, entity.UnlockedReward{
				Level:   def.Level,
				Tier:    def.Tier,
				Rewards: def.Rewards,
			})
			l.MarkRewardLevel(lv)
		}

		l.Level = newLevel
		l.Coins += coins
		if grantKey != "" {
			l.MarkGrantKey(grantKey)
		}

		result = &entity.ProgressionResult{
			LeveledUp:       newLevel > oldLevel,
			OldLevel:        oldLevel,
			NewLevel:        newLevel,
			XP:              l.XP,
			UnlockedRewards: unlocked,
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, errGrantAlreadyApplied) {
			return uc.alreadyAppliedResult(ctx, userID)
		}
		if errors.Is(err, "INTERNAL_CONSISTENCY") {
			uc.logger.Error("level table inconsistency during experience grant", "userId", userID, "error", err)
		}
		return nil, err
	}

	uc.logger.Info("experience applied", "userId", userID, "amount", amount, "reason", reason, "level", result.NewLevel)

	if result.LeveledUp {
		uc.levelCache.SetLevel(ctx, userID, result.NewLevel)
		uc.fanOutLevelUp(userID, result)
	}

	return result, nil
}

// alreadyAppliedResult reports the current ledger state for a replayed grant
// without mutating anything.
func (uc *ProgressionUseCase) alreadyAppliedResult(ctx context.Context, userID string) (*entity.ProgressionResult, error) {
	ledger, err := uc.progressionRepo.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &entity.ProgressionResult{
		LeveledUp: false,
		OldLevel:  ledger.Level,
		NewLevel:  ledger.Level,
		XP:        ledger.XP,
	}, nil
}

// fanOutLevelUp notifies the user and each follower. Best-effort: failures
// are logged and never propagate to the caller of the grant.
func (uc *ProgressionUseCase) fanOutLevelUp(userID string, result *entity.ProgressionResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		event := service.NotificationEvent{
			Kind:   service.EventLevelUp,
			UserID: userID,
			Payload: map[string]interface{}{
				"oldLevel":        result.OldLevel,
				"newLevel":        result.NewLevel,
				"unlockedRewards": result.UnlockedRewards,
			},
		}
		if err := uc.sink.Publish(ctx, event); err != nil {
			uc.logger.Warn("level-up notification failed", "userId", userID, "error", err)
		}

		followerIDs, err := uc.followers.ListFollowerIDs(ctx, userID)
		if err != nil {
			uc.logger.Warn("follower lookup failed", "userId", userID, "error", err)
			return
		}
		for _, followerID := range followerIDs {
			friendEvent := service.NotificationEvent{
				Kind:   service.EventFriendLeveledUp,
				UserID: followerID,
				Payload: map[string]interface{}{
					"friendId": userID,
					"newLevel": result.NewLevel,
				},
			}
			if err := uc.sink.Publish(ctx, friendEvent); err != nil {
				uc.logger.Warn("friend level-up notification failed", "userId", followerID, "error", err)
			}
		}
	}()
}

// GetProgression derives the display view from the ledger and level table.
func (uc *ProgressionUseCase) GetProgression(ctx context.Context, userID string) (*entity.ProgressionView, error) {
	ledger, err := uc.progressionRepo.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}

	def, ok := uc.levelTable.Definition(ledger.Level)
	if !ok {
		uc.logger.Error("ledger level missing from level table", "userId", userID, "level", ledger.Level)
		return nil, errors.InternalConsistency(fmt.Sprintf("level table has no entry for level %d", ledger.Level), nil)
	}

	view := &entity.ProgressionView{
		CurrentLevel:     ledger.Level,
		CurrentTier:      def.Tier,
		XP:               ledger.XP,
		Coins:            ledger.Coins,
		XPInCurrentLevel: ledger.XP - def.XPRequired,
		IsMaxLevel:       ledger.Level == uc.levelTable.MaxLevel(),
	}

	if view.IsMaxLevel {
		view.ProgressPercentage = 100
		return view, nil
	}

	view.NextLevel = ledger.Level + 1
	view.XPNeededForNext = def.XPToNext - view.XPInCurrentLevel
	if view.XPNeededForNext < 0 {
		view.XPNeededForNext = 0
	}
	if def.XPToNext > 0 {
		view.ProgressPercentage = float64(view.XPInCurrentLevel) / float64(def.XPToNext) * 100
	}
	if view.ProgressPercentage > 100 {
		view.ProgressPercentage = 100
	}
	return view, nil
}

// EnsureLedger creates the ledger on first contact (level 1, zero xp). A
// concurrent create racing us is fine; the loser's conflict is swallowed.
func (uc *ProgressionUseCase) EnsureLedger(ctx context.Context, userID string) error {
	_, err := uc.progressionRepo.GetLedger(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return err
	}

	ledger := entity.NewProgressionLedger(userID)
	now := time.Now()
	ledger.CreatedAt = now
	ledger.UpdatedAt = now
	if err := uc.progressionRepo.CreateLedger(ctx, ledger); err != nil {
		if errors.Is(err, "CONFLICT") {
			return nil
		}
		return err
	}
	return nil
}

// Levels exposes the immutable level table for display.
func (uc *ProgressionUseCase) Levels() []entity.LevelDefinition {
	return uc.levelTable.Definitions()
}
