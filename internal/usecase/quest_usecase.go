package usecase

import (
	"context"
	"fmt"
	"time"

	"questrank/internal/domain/entity"
	"questrank/internal/domain/repository"
	"questrank/internal/domain/service"
	"questrank/pkg/errors"
	"questrank/pkg/logger"

	"github.com/google/uuid"
)

type QuestUseCase struct {
	catalogRepo     repository.QuestCatalogRepository
	instanceRepo    repository.QuestInstanceRepository
	progressionRepo repository.ProgressionRepository
	progression     *ProgressionUseCase
	levelCache      LevelCache
	sink            service.NotificationSink
	logger          logger.Logger
	now             func() time.Time
}

func NewQuestUseCase(
	catalogRepo repository.QuestCatalogRepository,
	instanceRepo repository.QuestInstanceRepository,
	progressionRepo repository.ProgressionRepository,
	progression *ProgressionUseCase,
	levelCache LevelCache,
	sink service.NotificationSink,
	logger logger.Logger,
) *QuestUseCase {
	return &QuestUseCase{
		catalogRepo:     catalogRepo,
		instanceRepo:    instanceRepo,
		progressionRepo: progressionRepo,
		progression:     progression,
		levelCache:      levelCache,
		sink:            sink,
		logger:          logger,
		now:             time.Now,
	}
}

// userLevel consults the cached level first and falls back to the ledger. A
// user with no ledger yet is level 1.
func (uc *QuestUseCase) userLevel(ctx context.Context, userID string) (int, error) {
	if level, ok := uc.levelCache.GetLevel(ctx, userID); ok {
		return level, nil
	}
	ledger, err := uc.progressionRepo.GetLedger(ctx, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return 1, nil
		}
		return 0, err
	}
	uc.levelCache.SetLevel(ctx, userID, ledger.Level)
	return ledger.Level, nil
}

// StartQuest creates an active instance for (user, quest). The replace
// policy runs inside the store's start transaction, so two concurrent starts
// cannot both pass the no-active-instance check: the loser gets Conflict.
func (uc *QuestUseCase) StartQuest(ctx context.Context, userID, questID string) (*entity.QuestInstance, error) {
	def, err := uc.catalogRepo.GetByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	if !def.IsActive {
		return nil, errors.PreconditionFailed("quest is not active")
	}

	// A quest start may be the user's first contact with progression; the
	// completion grant later needs a ledger to credit.
	if err := uc.progression.EnsureLedger(ctx, userID); err != nil {
		return nil, err
	}

	level, err := uc.userLevel(ctx, userID)
	if err != nil {
		return nil, err
	}
	if level < def.Prerequisites.Level {
		return nil, errors.PreconditionFailed(fmt.Sprintf("quest requires level %d", def.Prerequisites.Level))
	}

	now := uc.now()
	inst := entity.NewQuestInstance(uuid.NewString(), userID, def, now)

	err = uc.instanceRepo.StartInstance(ctx, inst, func(prev *entity.QuestInstance) error {
		if prev == nil {
			return nil
		}
		switch prev.Status {
		case entity.QuestStatusActive:
			// Lazy expiry: a stale active attempt past its deadline does not
			// block a fresh start. It is archived as expired.
			if prev.IsExpired(now) {
				prev.Status = entity.QuestStatusExpired
				return nil
			}
			return errors.Conflict("quest already in progress")
		case entity.QuestStatusCompleted:
			if _, resettable := def.ResetDuration(); !resettable {
				return errors.PreconditionFailed("quest already completed")
			}
			// A completed attempt without a deadline predates the quest
			// becoming resettable; it never blocks a restart.
			if prev.ExpiresAt == nil || now.After(*prev.ExpiresAt) {
				return nil
			}
			return errors.PreconditionFailed("quest already completed this period")
		default: // expired or abandoned attempts never block a restart
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("quest started", "userId", userID, "questId", questID)
	return inst, nil
}

// RecordProgress increments one requirement counter and re-evaluates
// completion against the post-increment state. Expiry is evaluated lazily
// here: an instance past its deadline is transitioned to expired by this
// call and the update rejected.
func (uc *QuestUseCase) RecordProgress(ctx context.Context, userID, questID, requirementType string, amount int64) (*entity.QuestInstance, bool, error) {
	if amount <= 0 {
		return nil, false, errors.BadRequest("increment must be a positive integer", nil)
	}

	def, err := uc.catalogRepo.GetByID(ctx, questID)
	if err != nil {
		return nil, false, err
	}
	if _, ok := def.Requirement(requirementType); !ok {
		return nil, false, errors.BadRequest(fmt.Sprintf("unknown requirement type %q for quest %s", requirementType, questID), nil)
	}

	now := uc.now()
	completedNow := false
	inst, err := uc.instanceRepo.UpdateInstance(ctx, userID, questID, func(i *entity.QuestInstance) error {
		completedNow = false

		if i.Status.IsTerminal() {
			return terminalStateError(i.Status)
		}
		if i.IsExpired(now) {
			// Persist the one-way transition; the rejection surfaces after
			// the commit so the expiry survives even though no progress
			// was recorded.
			i.Status = entity.QuestStatusExpired
			return nil
		}

		i.Progress[requirementType] += amount
		if i.MeetsAllRequirements(def) {
			i.Status = entity.QuestStatusCompleted
			completedAt := now
			i.CompletedAt = &completedAt
			completedNow = true
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, false, errors.PreconditionFailed("quest not started")
		}
		return nil, false, err
	}

	if inst.Status == entity.QuestStatusExpired {
		return inst, false, errors.Expired("quest has expired")
	}

	if completedNow {
		uc.settleCompletion(ctx, userID, def, inst)
	}
	return inst, completedNow, nil
}

// settleCompletion hands the reward off to the progression engine. The
// instance's completed state is already durable; the grant is a separate
// step, idempotent under the instance id, so a failure here is retried
// rather than rolled back.
func (uc *QuestUseCase) settleCompletion(ctx context.Context, userID string, def *entity.QuestDefinition, inst *entity.QuestInstance) {
	if _, err := uc.progression.GrantQuestReward(ctx, userID, def.Rewards, inst.ID); err != nil {
		uc.logger.Error("quest reward grant failed, safe to retry under the same grant key",
			"userId", userID, "questId", def.ID, "instanceId", inst.ID, "error", err)
	} else {
		if _, err := uc.instanceRepo.UpdateInstance(ctx, userID, def.ID, func(i *entity.QuestInstance) error {
			i.RewardGranted = true
			return nil
		}); err != nil {
			uc.logger.Warn("failed to flag quest reward as granted", "userId", userID, "questId", def.ID, "error", err)
		}
		inst.RewardGranted = true
	}

	uc.logger.Info("quest completed", "userId", userID, "questId", def.ID, "xp", def.Rewards.XP)

	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		event := service.NotificationEvent{
			Kind:   service.EventQuestCompleted,
			UserID: userID,
			Payload: map[string]interface{}{
				"questId": def.ID,
				"title":   def.Title,
				"rewards": def.Rewards,
			},
		}
		if err := uc.sink.Publish(notifyCtx, event); err != nil {
			uc.logger.Warn("quest completion notification failed", "userId", userID, "questId", def.ID, "error", err)
		}
	}()
}

// AbandonQuest is the explicit user bail-out: active -> abandoned, no
// rewards, irreversible.
func (uc *QuestUseCase) AbandonQuest(ctx context.Context, userID, questID string) error {
	now := uc.now()
	inst, err := uc.instanceRepo.UpdateInstance(ctx, userID, questID, func(i *entity.QuestInstance) error {
		if i.Status.IsTerminal() {
			return terminalStateError(i.Status)
		}
		if i.IsExpired(now) {
			i.Status = entity.QuestStatusExpired
			return nil
		}
		i.Status = entity.QuestStatusAbandoned
		return nil
	})
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return errors.PreconditionFailed("quest not started")
		}
		return err
	}
	if inst.Status == entity.QuestStatusExpired {
		return errors.Expired("quest has expired")
	}

	uc.logger.Info("quest abandoned", "userId", userID, "questId", questID)
	return nil
}

// terminalStateError maps an absorbing state to the precondition failure a
// further mutation gets.
func terminalStateError(status entity.QuestStatus) error {
	switch status {
	case entity.QuestStatusCompleted:
		return errors.PreconditionFailed("quest already completed")
	case entity.QuestStatusExpired:
		return errors.PreconditionFailed("quest has expired")
	default:
		return errors.PreconditionFailed("quest was abandoned")
	}
}

type QuestWithProgress struct {
	Definition entity.QuestDefinition `json:"definition"`
	Instance   *entity.QuestInstance  `json:"instance"`
}

type QuestListResponse struct {
	Active    []QuestWithProgress      `json:"active"`
	Available []entity.QuestDefinition `json:"available"`
	Completed []QuestWithProgress      `json:"completed"`
}

// ListQuests joins the catalog with the user's instances and partitions into
// active / available / completed. Listing is read-only: an active instance
// past its deadline still shows as active until the next progress or abandon
// call touches it (the lazy-expiry staleness window).
func (uc *QuestUseCase) ListQuests(ctx context.Context, userID, filterType string) (*QuestListResponse, error) {
	level, err := uc.userLevel(ctx, userID)
	if err != nil {
		return nil, err
	}

	defs, err := uc.catalogRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	instances, err := uc.instanceRepo.ListInstances(ctx, userID)
	if err != nil {
		return nil, err
	}

	byQuest := make(map[string]*entity.QuestInstance, len(instances))
	for idx := range instances {
		byQuest[instances[idx].QuestID] = &instances[idx]
	}

	resp := &QuestListResponse{
		Active:    []QuestWithProgress{},
		Available: []entity.QuestDefinition{},
		Completed: []QuestWithProgress{},
	}
	for _, def := range defs {
		if def.IsHidden {
			continue
		}
		if filterType != "" && string(def.Type) != filterType {
			continue
		}
		if def.Prerequisites.Level > level {
			continue
		}

		inst := byQuest[def.ID]
		switch {
		case inst == nil:
			resp.Available = append(resp.Available, def)
		case inst.Status == entity.QuestStatusActive:
			resp.Active = append(resp.Active, QuestWithProgress{Definition: def, Instance: inst})
		case inst.Status == entity.QuestStatusCompleted:
			resp.Completed = append(resp.Completed, QuestWithProgress{Definition: def, Instance: inst})
		default: // expired or abandoned: free to start again
			resp.Available = append(resp.Available, def)
		}
	}
	return resp, nil
}
