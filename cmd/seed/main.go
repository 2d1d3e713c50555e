package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"questrank/internal/adapter/repository"
	"questrank/internal/domain/entity"
	"questrank/pkg/config"
)

// Seeds the level table and the starter quest catalog. Run once per
// deployment; levels are immutable reference data afterwards.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	levels := defaultLevels()
	if _, err := entity.NewLevelTable(levels); err != nil {
		log.Fatalf("Generated level table is invalid: %v", err)
	}

	levelRepo := repository.NewFirestoreLevelRepository(firestoreClient)
	for _, def := range levels {
		if err := levelRepo.Create(ctx, &def); err != nil {
			log.Fatalf("Failed to seed level %d: %v", def.Level, err)
		}
	}
	log.Printf("Seeded %d levels", len(levels))

	catalogRepo := repository.NewFirestoreQuestCatalogRepository(firestoreClient)
	quests := defaultQuests()
	for _, quest := range quests {
		if err := catalogRepo.Create(ctx, &quest); err != nil {
			log.Fatalf("Failed to seed quest %s: %v", quest.ID, err)
		}
	}
	log.Printf("Seeded %d quests", len(quests))
}

var tierOrder = []entity.Tier{
	entity.TierBeginner,
	entity.TierNovice,
	entity.TierApprentice,
	entity.TierAdept,
	entity.TierExpert,
	entity.TierVeteran,
	entity.TierMaster,
	entity.TierGrandmaster,
	entity.TierLegend,
	entity.TierDivine,
}

var tierColors = map[entity.Tier]string{
	entity.TierBeginner:    "#9E9E9E",
	entity.TierNovice:      "#8BC34A",
	entity.TierApprentice:  "#4CAF50",
	entity.TierAdept:       "#00BCD4",
	entity.TierExpert:      "#2196F3",
	entity.TierVeteran:     "#3F51B5",
	entity.TierMaster:      "#9C27B0",
	entity.TierGrandmaster: "#E91E63",
	entity.TierLegend:      "#FF9800",
	entity.TierDivine:      "#FFD700",
}

var tierIcons = map[entity.Tier]string{
	entity.TierBeginner:    "🌱",
	entity.TierNovice:      "🍀",
	entity.TierApprentice:  "⚒️",
	entity.TierAdept:       "🛡️",
	entity.TierExpert:      "⚔️",
	entity.TierVeteran:     "🏹",
	entity.TierMaster:      "🔮",
	entity.TierGrandmaster: "👑",
	entity.TierLegend:      "🌟",
	entity.TierDivine:      "🔥",
}

// defaultLevels builds 100 levels in 10 tiers of 10. The XP step grows 50
// per level, so early levels come fast and late levels take real commitment.
func defaultLevels() []entity.LevelDefinition {
	const maxLevel = 100

	levels := make([]entity.LevelDefinition, 0, maxLevel)
	var cumulative int64
	for n := 1; n <= maxLevel; n++ {
		tier := tierOrder[(n-1)/10]
		xpToNext := int64(100 + 50*(n-1))
		if n == maxLevel {
			xpToNext = 0
		}

		def := entity.LevelDefinition{
			Level:       n,
			XPRequired:  cumulative,
			XPToNext:    xpToNext,
			Tier:        tier,
			TierColor:   tierColors[tier],
			Icon:        tierIcons[tier],
			Description: fmt.Sprintf("%s tier, level %d", tier, n),
			Rewards:     rewardsForLevel(n, tier),
		}
		levels = append(levels, def)
		cumulative += int64(100 + 50*(n-1))
	}
	return levels
}

func rewardsForLevel(level int, tier entity.Tier) entity.LevelRewards {
	rewards := entity.LevelRewards{}

	switch level {
	case 5:
		rewards.UnlockedFeatures = append(rewards.UnlockedFeatures, "custom_avatar_frame")
	case 15:
		rewards.UnlockedFeatures = append(rewards.UnlockedFeatures, "profile_showcase")
	case 35:
		rewards.UnlockedFeatures = append(rewards.UnlockedFeatures, "animated_profile")
	case 55:
		rewards.UnlockedFeatures = append(rewards.UnlockedFeatures, "custom_title")
	case 25:
		rewards.SpecialAbilities = append(rewards.SpecialAbilities, "priority_support")
	case 50:
		rewards.SpecialAbilities = append(rewards.SpecialAbilities, "beta_access")
	case 75:
		rewards.SpecialAbilities = append(rewards.SpecialAbilities, "community_moderation")
	case 100:
		rewards.SpecialAbilities = append(rewards.SpecialAbilities, "hall_of_fame")
	}

	// Tier badge on every tenth level, the last level of each tier.
	if level%10 == 0 {
		rewards.Badges = append(rewards.Badges, entity.Badge{
			Name:        fmt.Sprintf("%s Badge", tier),
			Icon:        tierIcons[tier],
			Description: fmt.Sprintf("Completed the %s tier", tier),
		})
	}

	return rewards
}

func defaultQuests() []entity.QuestDefinition {
	return []entity.QuestDefinition{
		{
			ID:          "daily-post",
			Title:       "Daily Contributor",
			Description: "Share a post with the community today",
			Type:        entity.QuestTypeDaily,
			Requirements: []entity.QuestRequirement{
				{Type: "create_post", Target: 1, Description: "Create 1 post"},
			},
			Rewards:   entity.QuestRewards{XP: 50, Coins: 10},
			ResetType: entity.ResetTypeDaily,
			IsActive:  true,
		},
		{
			ID:          "daily-social",
			Title:       "Social Butterfly",
			Description: "Spread some positivity around",
			Type:        entity.QuestTypeDaily,
			Requirements: []entity.QuestRequirement{
				{Type: "like_given", Target: 5, Description: "Like 5 posts"},
				{Type: "comment_made", Target: 3, Description: "Comment on 3 posts"},
			},
			Rewards:   entity.QuestRewards{XP: 75, Coins: 15},
			ResetType: entity.ResetTypeDaily,
			IsActive:  true,
		},
		{
			ID:          "weekly-creator",
			Title:       "Content Creator",
			Description: "Keep the feed alive all week",
			Type:        entity.QuestTypeWeekly,
			Requirements: []entity.QuestRequirement{
				{Type: "create_post", Target: 5, Description: "Create 5 posts"},
			},
			Rewards:       entity.QuestRewards{XP: 300, Coins: 60},
			ResetType:     entity.ResetTypeWeekly,
			Prerequisites: entity.QuestPrerequisites{Level: 3},
			IsActive:      true,
		},
		{
			ID:          "weekly-networker",
			Title:       "Networker",
			Description: "Grow your circle this week",
			Type:        entity.QuestTypeWeekly,
			Requirements: []entity.QuestRequirement{
				{Type: "follow_user", Target: 3, Description: "Follow 3 users"},
				{Type: "comment_made", Target: 10, Description: "Comment on 10 posts"},
			},
			Rewards:       entity.QuestRewards{XP: 250, Coins: 50},
			ResetType:     entity.ResetTypeWeekly,
			Prerequisites: entity.QuestPrerequisites{Level: 5},
			IsActive:      true,
		},
		{
			ID:          "achievement-first-post",
			Title:       "First Steps",
			Description: "Publish your very first post",
			Type:        entity.QuestTypeAchievement,
			Requirements: []entity.QuestRequirement{
				{Type: "create_post", Target: 1, Description: "Create your first post"},
			},
			Rewards: entity.QuestRewards{
				XP:    100,
				Coins: 20,
				Badge: &entity.Badge{Name: "First Steps", Icon: "👣", Description: "Published a first post"},
			},
			ResetType: entity.ResetTypeNone,
			IsActive:  true,
		},
		{
			ID:          "achievement-centurion",
			Title:       "Centurion",
			Description: "Publish one hundred posts",
			Type:        entity.QuestTypeAchievement,
			Requirements: []entity.QuestRequirement{
				{Type: "create_post", Target: 100, Description: "Create 100 posts"},
			},
			Rewards: entity.QuestRewards{
				XP:    1500,
				Coins: 300,
				Badge: &entity.Badge{Name: "Centurion", Icon: "💯", Description: "Published 100 posts"},
			},
			ResetType:     entity.ResetTypeNone,
			Prerequisites: entity.QuestPrerequisites{Level: 10},
			IsActive:      true,
		},
	}
}
