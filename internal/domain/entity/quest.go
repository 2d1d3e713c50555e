package entity

import (
	"time"
)

type QuestType string

const (
	QuestTypeDaily       QuestType = "daily"
	QuestTypeWeekly      QuestType = "weekly"
	QuestTypeAchievement QuestType = "achievement"
)

type ResetType string

const (
	ResetTypeDaily  ResetType = "daily"
	ResetTypeWeekly ResetType = "weekly"
	ResetTypeNone   ResetType = "none"
)

// QuestRequirement is one countable action the quest demands. Requirements
// are a conjunction: every counter must reach its target.
type QuestRequirement struct {
	Type        string `firestore:"type" json:"type"`
	Target      int64  `firestore:"target" json:"target"`
	Description string `firestore:"description" json:"description"`
}

type QuestRewards struct {
	XP    int64  `firestore:"xp" json:"xp"`
	Coins int64  `firestore:"coins" json:"coins"`
	Badge *Badge `firestore:"badge,omitempty" json:"badge,omitempty"`
}

type QuestPrerequisites struct {
	Level int `firestore:"level" json:"level"`
}

type QuestDefinition struct {
	ID            string             `firestore:"id" json:"id"`
	Title         string             `firestore:"title" json:"title"`
	Description   string             `firestore:"description" json:"description"`
	Type          QuestType          `firestore:"type" json:"type"`
	Requirements  []QuestRequirement `firestore:"requirements" json:"requirements"`
	Rewards       QuestRewards       `firestore:"rewards" json:"rewards"`
	ResetType     ResetType          `firestore:"resetType" json:"resetType"`
	Prerequisites QuestPrerequisites `firestore:"prerequisites" json:"prerequisites"`
	IsActive      bool               `firestore:"isActive" json:"isActive"`
	IsHidden      bool               `firestore:"isHidden" json:"isHidden"`
	CreatedAt     time.Time          `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `firestore:"updatedAt" json:"updatedAt"`
}

func (d *QuestDefinition) Requirement(reqType string) (QuestRequirement, bool) {
	for _, req := range d.Requirements {
		if req.Type == reqType {
			return req, true
		}
	}
	return QuestRequirement{}, false
}

// ResetDuration returns the instance lifetime for the quest's reset policy.
// Achievements (resetType none) never expire.
func (d *QuestDefinition) ResetDuration() (time.Duration, bool) {
	switch d.ResetType {
	case ResetTypeDaily:
		return 24 * time.Hour, true
	case ResetTypeWeekly:
		return 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

type QuestStatus string

const (
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"
	QuestStatusExpired   QuestStatus = "expired"
	QuestStatusAbandoned QuestStatus = "abandoned"
)

func (s QuestStatus) IsTerminal() bool {
	return s == QuestStatusCompleted || s == QuestStatusExpired || s == QuestStatusAbandoned
}

// QuestInstance is one user's attempt at a quest definition. Lifecycle:
// active -> {completed | expired | abandoned}; terminal states are absorbing.
type QuestInstance struct {
	ID            string           `firestore:"id" json:"id"`
	UserID        string           `firestore:"userId" json:"userId"`
	QuestID       string           `firestore:"questId" json:"questId"`
	Status        QuestStatus      `firestore:"status" json:"status"`
	Progress      map[string]int64 `firestore:"progress" json:"progress"`
	StartedAt     time.Time        `firestore:"startedAt" json:"startedAt"`
	ExpiresAt     *time.Time       `firestore:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CompletedAt   *time.Time       `firestore:"completedAt,omitempty" json:"completedAt,omitempty"`
	RewardGranted bool             `firestore:"rewardGranted" json:"rewardGranted"`
}

// NewQuestInstance sizes the progress map from the definition's requirement
// list, so the counter key set is fixed for the instance's lifetime.
func NewQuestInstance(id string, userID string, def *QuestDefinition, now time.Time) *QuestInstance {
	progress := make(map[string]int64, len(def.Requirements))
	for _, req := range def.Requirements {
		progress[req.Type] = 0
	}

	inst := &QuestInstance{
		ID:        id,
		UserID:    userID,
		QuestID:   def.ID,
		Status:    QuestStatusActive,
		Progress:  progress,
		StartedAt: now,
	}
	if d, ok := def.ResetDuration(); ok {
		expires := now.Add(d)
		inst.ExpiresAt = &expires
	}
	return inst
}

func (i *QuestInstance) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// MeetsAllRequirements checks the conjunction of the definition's
// requirements against the instance's counters.
func (i *QuestInstance) MeetsAllRequirements(def *QuestDefinition) bool {
	for _, req := range def.Requirements {
		if i.Progress[req.Type] < req.Target {
			return false
		}
	}
	return len(def.Requirements) > 0
}
