package services

import (
	"encoding/json"
	"fmt"
	"time"

	"learnapp/internal/models"

	"gorm.io/datatypes"
)

// Milestone tables for the unlock engine.
var (
	streakMilestones    = []int{7, 14, 30, 60, 100}
	studyTimeMilestones = []int{600, 1200, 3000, 6000, 12000}
	masteryMilestones   = []int{1, 3, 5, 10}
)

const (
	perfectionistTitle     = "Perfectionist"
	perfectionistThreshold = 95.0
)

// AchievementInputs are the aggregates the unlock engine compares against milestones.
type AchievementInputs struct {
	MaxStreakDays     int
	TotalStudyMinutes int
	AverageScore      float64
	MasteredSubjects  int
}

// EarnedAchievements returns an unlocked achievement for every milestone the inputs
// have reached. Whether each one is new is decided by the store.
func EarnedAchievements(userID int, in AchievementInputs, now time.Time) []models.Achievement {
	var earned []models.Achievement

	for _, m := range streakMilestones {
		if in.MaxStreakDays < m {
			continue
		}
		earned = append(earned, unlocked(userID, now, models.Achievement{
			AchievementType: models.AchievementTypeStreak,
			Title:           fmt.Sprintf("%d-Day Study Streak", m),
			Description:     fmt.Sprintf("Studied consistently for %d days in a row!", m),
			BadgeIcon:       ptr("streak_badge"),
			Category:        "consistency",
			DifficultyLevel: pick(m <= 30, "medium", "hard"),
			Rarity:          pick(m <= 30, "uncommon", "rare"),
			PointsAwarded:   m * 2,
			ThresholdValue:  float64(m),
			ThresholdUnit:   ptr("days"),
			CurrentProgress: float64(in.MaxStreakDays),
		}))
	}

	for _, m := range studyTimeMilestones {
		if in.TotalStudyMinutes < m {
			continue
		}
		hours := m / 60
		earned = append(earned, unlocked(userID, now, models.Achievement{
			AchievementType: models.AchievementTypeTime,
			Title:           fmt.Sprintf("%d-Hour Scholar", hours),
			Description:     fmt.Sprintf("Dedicated %d hours to learning!", hours),
			BadgeIcon:       ptr("time_badge"),
			Category:        "dedication",
			DifficultyLevel: tiered(hours, "easy", "medium", "hard"),
			Rarity:          tiered(hours, "common", "uncommon", "rare"),
			PointsAwarded:   hours * 5,
			ThresholdValue:  float64(m),
			ThresholdUnit:   ptr("minutes"),
			CurrentProgress: float64(in.TotalStudyMinutes),
		}))
	}

	if in.AverageScore >= perfectionistThreshold {
		earned = append(earned, unlocked(userID, now, models.Achievement{
			AchievementType: models.AchievementTypeAssessment,
			Title:           perfectionistTitle,
			Description:     "Maintained an average score of 95% or higher!",
			BadgeIcon:       ptr("perfect_badge"),
			Category:        "excellence",
			DifficultyLevel: "hard",
			Rarity:          "epic",
			PointsAwarded:   100,
			ThresholdValue:  perfectionistThreshold,
			ThresholdUnit:   ptr("percent"),
			CurrentProgress: in.AverageScore,
		}))
	}

	for _, m := range masteryMilestones {
		if in.MasteredSubjects < m {
			continue
		}
		plural := pick(m > 1, "s", "")
		earned = append(earned, unlocked(userID, now, models.Achievement{
			AchievementType: models.AchievementTypeMastery,
			Title:           fmt.Sprintf("Master of %d Subject%s", m, plural),
			Description:     fmt.Sprintf("Achieved mastery in %d subject%s!", m, plural),
			BadgeIcon:       ptr("mastery_badge"),
			Category:        "expertise",
			DifficultyLevel: pick(m <= 3, "medium", "hard"),
			Rarity:          pick(m <= 3, "rare", "epic"),
			PointsAwarded:   m * 50,
			ThresholdValue:  float64(m),
			ThresholdUnit:   ptr("subjects"),
			CurrentProgress: float64(in.MasteredSubjects),
		}))
	}

	return earned
}

func unlocked(userID int, now time.Time, a models.Achievement) models.Achievement {
	a.UserID = userID
	a.RequiredProgress = a.ThresholdValue
	a.ProgressPercentage = 100
	a.IsUnlocked = true
	a.UnlockedAt = &now
	evidence, _ := json.Marshal(map[string]interface{}{
		"current_progress": a.CurrentProgress,
		"threshold":        a.ThresholdValue,
	})
	a.EvidenceData = datatypes.JSON(evidence)
	return a
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

// tiered picks by study hours: up to 20, up to 100, beyond.
func tiered(hours int, low, mid, high string) string {
	switch {
	case hours <= 20:
		return low
	case hours <= 100:
		return mid
	default:
		return high
	}
}
