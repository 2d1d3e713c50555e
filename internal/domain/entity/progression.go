package entity

import (
	"time"
)

// ProgressionLedger is the per-user persistent record of level, experience and
// already-granted rewards. Created once at account creation, mutated only by
// the progression usecase, never deleted while the account exists.
type ProgressionLedger struct {
	UserID              string          `firestore:"userId" json:"userId"`
	Level               int             `firestore:"level" json:"level"`
	XP                  int64           `firestore:"xp" json:"xp"`
	Coins               int64           `firestore:"coins" json:"coins"`
	GrantedRewardLevels []int           `firestore:"grantedRewardLevels" json:"grantedRewardLevels"`
	AppliedGrantKeys    map[string]bool `firestore:"appliedGrantKeys" json:"-"`
	CreatedAt           time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time       `firestore:"updatedAt" json:"updatedAt"`
}

func NewProgressionLedger(userID string) *ProgressionLedger {
	return &ProgressionLedger{
		UserID:              userID,
		Level:               1,
		XP:                  0,
		GrantedRewardLevels: []int{},
		AppliedGrantKeys:    map[string]bool{},
	}
}

func (l *ProgressionLedger) HasRewardLevel(level int) bool {
	for _, granted := range l.GrantedRewardLevels {
		if granted == level {
			return true
		}
	}
	return false
}

func (l *ProgressionLedger) MarkRewardLevel(level int) {
	if !l.HasRewardLevel(level) {
		l.GrantedRewardLevels = append(l.GrantedRewardLevels, level)
	}
}

func (l *ProgressionLedger) HasGrantKey(key string) bool {
	return l.AppliedGrantKeys[key]
}

func (l *ProgressionLedger) MarkGrantKey(key string) {
	if l.AppliedGrantKeys == nil {
		l.AppliedGrantKeys = map[string]bool{}
	}
	l.AppliedGrantKeys[key] = true
}

// UnlockedReward is one crossed level's reward grant.
type UnlockedReward struct {
	Level   int          `json:"level"`
	Tier    Tier         `json:"tier"`
	Rewards LevelRewards `json:"rewards"`
}

type ProgressionResult struct {
	LeveledUp       bool             `json:"leveledUp"`
	OldLevel        int              `json:"oldLevel"`
	NewLevel        int              `json:"newLevel"`
	XP              int64            `json:"xp"`
	UnlockedRewards []UnlockedReward `json:"unlockedRewards"`
}

type ProgressionView struct {
	CurrentLevel       int     `json:"currentLevel"`
	CurrentTier        Tier    `json:"currentTier"`
	NextLevel          int     `json:"nextLevel,omitempty"`
	XP                 int64   `json:"xp"`
	Coins              int64   `json:"coins"`
	XPInCurrentLevel   int64   `json:"xpInCurrentLevel"`
	XPNeededForNext    int64   `json:"xpNeededForNext"`
	ProgressPercentage float64 `json:"progressPercentage"`
	IsMaxLevel         bool    `json:"isMaxLevel"`
}
