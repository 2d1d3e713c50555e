package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questrank/internal/domain/entity"
	apperrors "questrank/pkg/errors"
	"questrank/pkg/logger"
)

var questTestStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type questEnv struct {
	uc           *QuestUseCase
	progression  *ProgressionUseCase
	ledgerRepo   *memProgressionRepo
	catalog      *memQuestCatalog
	instanceRepo *memInstanceRepo
	cache        *memLevelCache
	sink         *recordingSink
	now          time.Time
}

func newQuestEnv(t *testing.T, defs ...*entity.QuestDefinition) *questEnv {
	env := &questEnv{
		ledgerRepo:   newMemProgressionRepo(),
		catalog:      newMemQuestCatalog(defs...),
		instanceRepo: newMemInstanceRepo(),
		cache:        newMemLevelCache(),
		sink:         &recordingSink{},
		now:          questTestStart,
	}
	env.progression = NewProgressionUseCase(env.ledgerRepo, testLevelTable(t), &staticFollowers{}, env.sink, env.cache, logger.Nop())
	env.uc = NewQuestUseCase(env.catalog, env.instanceRepo, env.ledgerRepo, env.progression, env.cache, env.sink, logger.Nop())
	env.uc.now = func() time.Time { return env.now }

	require.NoError(t, env.ledgerRepo.CreateLedger(context.Background(), entity.NewProgressionLedger("u1")))
	return env
}

func (env *questEnv) advance(d time.Duration) {
	env.now = env.now.Add(d)
}

func dailyPostQuest() *entity.QuestDefinition {
	return &entity.QuestDefinition{
		ID:    "daily-post",
		Title: "Daily Contributor",
		Type:  entity.QuestTypeDaily,
		Requirements: []entity.QuestRequirement{
			{Type: "create_post", Target: 1},
		},
		Rewards:   entity.QuestRewards{XP: 50, Coins: 10},
		ResetType: entity.ResetTypeDaily,
		IsActive:  true,
	}
}

func socialQuest() *entity.QuestDefinition {
	return &entity.QuestDefinition{
		ID:   "daily-social",
		Type: entity.QuestTypeDaily,
		Requirements: []entity.QuestRequirement{
			{Type: "like_given", Target: 5},
			{Type: "comment_made", Target: 3},
		},
		Rewards:   entity.QuestRewards{XP: 75},
		ResetType: entity.ResetTypeDaily,
		IsActive:  true,
	}
}

func achievementQuest() *entity.QuestDefinition {
	return &entity.QuestDefinition{
		ID:   "first-post",
		Type: entity.QuestTypeAchievement,
		Requirements: []entity.QuestRequirement{
			{Type: "create_post", Target: 1},
		},
		Rewards:   entity.QuestRewards{XP: 100},
		ResetType: entity.ResetTypeNone,
		IsActive:  true,
	}
}

func TestStartQuest(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())

	inst, err := env.uc.StartQuest(context.Background(), "u1", "daily-post")
	require.NoError(t, err)

	assert.Equal(t, entity.QuestStatusActive, inst.Status)
	assert.Equal(t, map[string]int64{"create_post": 0}, inst.Progress)
	require.NotNil(t, inst.ExpiresAt)
	assert.Equal(t, questTestStart.Add(24*time.Hour), *inst.ExpiresAt)
}

func TestStartQuestUnknown(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())

	_, err := env.uc.StartQuest(context.Background(), "u1", "no-such-quest")
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestStartQuestInactive(t *testing.T) {
	def := dailyPostQuest()
	def.IsActive = false
	env := newQuestEnv(t, def)

	_, err := env.uc.StartQuest(context.Background(), "u1", def.ID)
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"))
}

func TestStartQuestLevelPrerequisite(t *testing.T) {
	def := dailyPostQuest()
	def.Prerequisites = entity.QuestPrerequisites{Level: 3}
	env := newQuestEnv(t, def)

	_, err := env.uc.StartQuest(context.Background(), "u1", def.ID)
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"))

	// Once the user reaches level 3 the quest opens up.
	_, err = env.progression.ApplyExperience(context.Background(), "u1", 300, "event_bonus")
	require.NoError(t, err)

	_, err = env.uc.StartQuest(context.Background(), "u1", def.ID)
	assert.NoError(t, err)
}

func TestStartQuestTwiceConflicts(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)

	_, err = env.uc.StartQuest(ctx, "u1", "daily-post")
	assert.True(t, apperrors.Is(err, "CONFLICT"))
}

func TestStartQuestReplacesStaleActiveInstance(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)

	env.advance(25 * time.Hour)

	inst, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	assert.Equal(t, entity.QuestStatusActive, inst.Status)

	// The superseded attempt was archived as expired.
	require.Len(t, env.instanceRepo.archived, 1)
	assert.Equal(t, entity.QuestStatusExpired, env.instanceRepo.archived[0].Status)
}

func TestStartQuestAfterAbandon(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	require.NoError(t, env.uc.AbandonQuest(ctx, "u1", "daily-post"))

	_, err = env.uc.StartQuest(ctx, "u1", "daily-post")
	assert.NoError(t, err)
}

func TestStartCompletedAchievementRejected(t *testing.T) {
	env := newQuestEnv(t, achievementQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "first-post")
	require.NoError(t, err)
	_, completed, err := env.uc.RecordProgress(ctx, "u1", "first-post", "create_post", 1)
	require.NoError(t, err)
	require.True(t, completed)

	_, err = env.uc.StartQuest(ctx, "u1", "first-post")
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"))
}

func TestStartCompletedDailyRespectsResetWindow(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	_, completed, err := env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 1)
	require.NoError(t, err)
	require.True(t, completed)

	// Still inside the daily window.
	_, err = env.uc.StartQuest(ctx, "u1", "daily-post")
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"))

	// Next day the quest resets.
	env.advance(25 * time.Hour)
	_, err = env.uc.StartQuest(ctx, "u1", "daily-post")
	assert.NoError(t, err)
}

func TestRecordProgressValidation(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, _, err := env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 0)
	assert.True(t, apperrors.Is(err, "VALIDATION_ERROR"))

	_, _, err = env.uc.RecordProgress(ctx, "u1", "daily-post", "delete_post", 1)
	assert.True(t, apperrors.Is(err, "VALIDATION_ERROR"))

	_, _, err = env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 1)
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"), "progress before start")
}

func TestRecordProgressConjunction(t *testing.T) {
	env := newQuestEnv(t, socialQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-social")
	require.NoError(t, err)

	inst, completed, err := env.uc.RecordProgress(ctx, "u1", "daily-social", "like_given", 5)
	require.NoError(t, err)
	assert.False(t, completed, "one requirement met, one outstanding")
	assert.Equal(t, entity.QuestStatusActive, inst.Status)

	inst, completed, err = env.uc.RecordProgress(ctx, "u1", "daily-social", "comment_made", 2)
	require.NoError(t, err)
	assert.False(t, completed)

	inst, completed, err = env.uc.RecordProgress(ctx, "u1", "daily-social", "comment_made", 1)
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, entity.QuestStatusCompleted, inst.Status)
	require.NotNil(t, inst.CompletedAt)
}

func TestCompletionGrantsReward(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)

	inst, completed, err := env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 1)
	require.NoError(t, err)
	require.True(t, completed)
	assert.True(t, inst.RewardGranted)

	ledger, err := env.ledgerRepo.GetLedger(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), ledger.XP)
	assert.Equal(t, int64(10), ledger.Coins)

	require.Eventually(t, func() bool {
		return len(env.sink.byKind("quest_completed")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	event := env.sink.byKind("quest_completed")[0]
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, "daily-post", event.Payload["questId"])
}

func TestCompletionCreatesLedgerForNewUser(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	// "u2" has no ledger yet; completing a quest must still credit it.
	_, err := env.uc.StartQuest(ctx, "u2", "daily-post")
	require.NoError(t, err)

	inst, completed, err := env.uc.RecordProgress(ctx, "u2", "daily-post", "create_post", 1)
	require.NoError(t, err)
	require.True(t, completed)
	assert.True(t, inst.RewardGranted)

	ledger, err := env.ledgerRepo.GetLedger(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(50), ledger.XP)
	assert.Equal(t, int64(10), ledger.Coins)
}

func TestStartQuestAfterResetPolicyChange(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	// A completed attempt recorded while the quest was non-resettable
	// carries no deadline; under the now-daily definition it must not
	// block a restart forever.
	completedAt := questTestStart.Add(-time.Hour)
	prev := &entity.QuestInstance{
		ID:          "old-attempt",
		UserID:      "u1",
		QuestID:     "daily-post",
		Status:      entity.QuestStatusCompleted,
		Progress:    map[string]int64{"create_post": 1},
		StartedAt:   completedAt,
		CompletedAt: &completedAt,
	}
	require.NoError(t, env.instanceRepo.StartInstance(ctx, prev, func(*entity.QuestInstance) error { return nil }))

	inst, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	assert.Equal(t, entity.QuestStatusActive, inst.Status)
}

func TestCompletedQuestRejectsFurtherProgress(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	_, completed, err := env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 1)
	require.NoError(t, err)
	require.True(t, completed)

	_, _, err = env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 1)
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"))

	// The completion reward was granted exactly once.
	ledger, err := env.ledgerRepo.GetLedger(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), ledger.XP)
}

func TestRecordProgressLazyExpiry(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)

	env.advance(25 * time.Hour)

	// The call that discovers the expiry persists the transition and
	// reports Expired without recording the increment.
	inst, completed, err := env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 1)
	assert.True(t, apperrors.Is(err, "EXPIRED"))
	assert.False(t, completed)
	assert.Equal(t, entity.QuestStatusExpired, inst.Status)
	assert.Zero(t, inst.Progress["create_post"])

	// Later touches see a terminal instance, not a fresh expiry.
	_, _, err = env.uc.RecordProgress(ctx, "u1", "daily-post", "create_post", 1)
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"))
}

func TestAbandonQuest(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	require.NoError(t, env.uc.AbandonQuest(ctx, "u1", "daily-post"))

	inst, err := env.instanceRepo.GetInstance(ctx, "u1", "daily-post")
	require.NoError(t, err)
	assert.Equal(t, entity.QuestStatusAbandoned, inst.Status)

	// Abandoning is one-way; a second attempt fails.
	err = env.uc.AbandonQuest(ctx, "u1", "daily-post")
	assert.True(t, apperrors.Is(err, "PRECONDITION_FAILED"))

	// No rewards for an abandoned quest.
	ledger, err := env.ledgerRepo.GetLedger(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, ledger.XP)
}

func TestAbandonExpiredQuest(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	env.advance(25 * time.Hour)

	err = env.uc.AbandonQuest(ctx, "u1", "daily-post")
	assert.True(t, apperrors.Is(err, "EXPIRED"))

	inst, err := env.instanceRepo.GetInstance(ctx, "u1", "daily-post")
	require.NoError(t, err)
	assert.Equal(t, entity.QuestStatusExpired, inst.Status)
}

func TestListQuests(t *testing.T) {
	gated := achievementQuest()
	gated.ID = "gated"
	gated.Prerequisites = entity.QuestPrerequisites{Level: 4}

	hidden := dailyPostQuest()
	hidden.ID = "hidden-quest"
	hidden.IsHidden = true

	env := newQuestEnv(t, dailyPostQuest(), socialQuest(), achievementQuest(), gated, hidden)
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-social")
	require.NoError(t, err)

	_, err = env.uc.StartQuest(ctx, "u1", "first-post")
	require.NoError(t, err)
	_, completed, err := env.uc.RecordProgress(ctx, "u1", "first-post", "create_post", 1)
	require.NoError(t, err)
	require.True(t, completed)

	resp, err := env.uc.ListQuests(ctx, "u1", "")
	require.NoError(t, err)

	require.Len(t, resp.Active, 1)
	assert.Equal(t, "daily-social", resp.Active[0].Definition.ID)
	require.Len(t, resp.Completed, 1)
	assert.Equal(t, "first-post", resp.Completed[0].Definition.ID)
	require.Len(t, resp.Available, 1)
	assert.Equal(t, "daily-post", resp.Available[0].ID)
}

func TestListQuestsTypeFilter(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest(), achievementQuest())

	resp, err := env.uc.ListQuests(context.Background(), "u1", "daily")
	require.NoError(t, err)

	require.Len(t, resp.Available, 1)
	assert.Equal(t, "daily-post", resp.Available[0].ID)
}

func TestListQuestsAbandonedBecomesAvailable(t *testing.T) {
	env := newQuestEnv(t, dailyPostQuest())
	ctx := context.Background()

	_, err := env.uc.StartQuest(ctx, "u1", "daily-post")
	require.NoError(t, err)
	require.NoError(t, env.uc.AbandonQuest(ctx, "u1", "daily-post"))

	resp, err := env.uc.ListQuests(ctx, "u1", "")
	require.NoError(t, err)

	assert.Empty(t, resp.Active)
	require.Len(t, resp.Available, 1)
	assert.Equal(t, "daily-post", resp.Available[0].ID)
}
