package entity

import (
	"fmt"
	"sort"
)

type Tier string

const (
	TierBeginner    Tier = "beginner"
	TierNovice      Tier = "novice"
	TierApprentice  Tier = "apprentice"
	TierAdept       Tier = "adept"
	TierExpert      Tier = "expert"
	TierVeteran     Tier = "veteran"
	TierMaster      Tier = "master"
	TierGrandmaster Tier = "grandmaster"
	TierLegend      Tier = "legend"
	TierDivine      Tier = "divine"
)

type Badge struct {
	Name        string `firestore:"name" json:"name"`
	Icon        string `firestore:"icon" json:"icon"`
	Description string `firestore:"description" json:"description"`
}

type LevelRewards struct {
	UnlockedFeatures []string `firestore:"unlockedFeatures" json:"unlockedFeatures"`
	Badges           []Badge  `firestore:"badges" json:"badges"`
	SpecialAbilities []string `firestore:"specialAbilities" json:"specialAbilities"`
}

// LevelDefinition is one row of the level table: reference data, immutable at
// runtime, seeded once per deployment.
type LevelDefinition struct {
	Level       int          `firestore:"level" json:"level"`
	XPRequired  int64        `firestore:"xpRequired" json:"xpRequired"`
	XPToNext    int64        `firestore:"xpToNext" json:"xpToNext"`
	Tier        Tier         `firestore:"tier" json:"tier"`
	TierColor   string       `firestore:"tierColor" json:"tierColor"`
	Icon        string       `firestore:"icon" json:"icon"`
	Description string       `firestore:"description" json:"description"`
	Rewards     LevelRewards `firestore:"rewards" json:"rewards"`
}

// LevelTable is the single source of truth for level-from-XP resolution.
// Construction validates the catalog so every lookup afterwards is total.
type LevelTable struct {
	defs []LevelDefinition
}

func NewLevelTable(defs []LevelDefinition) (*LevelTable, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("level table is empty")
	}

	sorted := make([]LevelDefinition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	for i := range sorted {
		if sorted[i].Level != i+1 {
			return nil, fmt.Errorf("level table gap: expected level %d, got %d", i+1, sorted[i].Level)
		}
		if i > 0 {
			if sorted[i].XPRequired <= sorted[i-1].XPRequired {
				return nil, fmt.Errorf("xpRequired not strictly increasing at level %d", sorted[i].Level)
			}
			// The denormalized step feeds progress percentages, so it has
			// to agree with the next row's threshold.
			if sorted[i-1].XPToNext != sorted[i].XPRequired-sorted[i-1].XPRequired {
				return nil, fmt.Errorf("xpToNext at level %d disagrees with level %d's xpRequired", sorted[i-1].Level, sorted[i].Level)
			}
		}
	}
	if sorted[0].XPRequired != 0 {
		return nil, fmt.Errorf("level 1 must require 0 xp, got %d", sorted[0].XPRequired)
	}
	if last := sorted[len(sorted)-1]; last.XPToNext != 0 {
		return nil, fmt.Errorf("max level %d must have xpToNext 0, got %d", last.Level, last.XPToNext)
	}

	return &LevelTable{defs: sorted}, nil
}

func (t *LevelTable) MaxLevel() int {
	return len(t.defs)
}

func (t *LevelTable) Definition(level int) (LevelDefinition, bool) {
	if level < 1 || level > len(t.defs) {
		return LevelDefinition{}, false
	}
	return t.defs[level-1], true
}

func (t *LevelTable) Definitions() []LevelDefinition {
	out := make([]LevelDefinition, len(t.defs))
	copy(out, t.defs)
	return out
}

// LevelForXP returns the greatest level whose xpRequired <= xp, capped at the
// table's maximum regardless of how far xp overshoots the last entry.
func (t *LevelTable) LevelForXP(xp int64) int {
	if xp < 0 {
		return 1
	}
	// first index whose xpRequired exceeds xp
	idx := sort.Search(len(t.defs), func(i int) bool { return t.defs[i].XPRequired > xp })
	if idx == 0 {
		return 1
	}
	return t.defs[idx-1].Level
}
