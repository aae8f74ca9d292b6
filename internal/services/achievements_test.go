package services

import (
	"encoding/json"
	"testing"
	"time"

	"learnapp/internal/models"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byType(achievements []models.Achievement, t models.AchievementType) []models.Achievement {
	return lo.Filter(achievements, func(a models.Achievement, _ int) bool { return a.AchievementType == t })
}

func TestEarnedAchievements_Nothing(t *testing.T) {
	assert.Empty(t, EarnedAchievements(1, AchievementInputs{MaxStreakDays: 6, TotalStudyMinutes: 599, AverageScore: 94.9}, time.Now()))
}

func TestEarnedAchievements_Streaks(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	streaks := byType(EarnedAchievements(3, AchievementInputs{MaxStreakDays: 45}, now), models.AchievementTypeStreak)

	require.Len(t, streaks, 3)
	assert.Equal(t, "7-Day Study Streak", streaks[0].Title)
	assert.Equal(t, "Studied consistently for 7 days in a row!", streaks[0].Description)
	assert.Equal(t, 14, streaks[0].PointsAwarded)
	assert.Equal(t, "uncommon", streaks[2].Rarity)
	assert.Equal(t, "medium", streaks[2].DifficultyLevel)
	assert.Equal(t, 60, streaks[2].PointsAwarded)

	for _, a := range streaks {
		assert.Equal(t, 3, a.UserID)
		assert.True(t, a.IsUnlocked)
		assert.Equal(t, 100.0, a.ProgressPercentage)
		assert.Equal(t, now, *a.UnlockedAt)
		assert.Equal(t, a.ThresholdValue, a.RequiredProgress)
		assert.Equal(t, 45.0, a.CurrentProgress)
	}

	rare := byType(EarnedAchievements(3, AchievementInputs{MaxStreakDays: 100}, now), models.AchievementTypeStreak)
	require.Len(t, rare, 5)
	assert.Equal(t, "rare", rare[3].Rarity)
	assert.Equal(t, "hard", rare[4].DifficultyLevel)
	assert.Equal(t, 200, rare[4].PointsAwarded)
}

func TestEarnedAchievements_StudyTime(t *testing.T) {
	time1 := byType(EarnedAchievements(1, AchievementInputs{TotalStudyMinutes: 6000}, time.Now()), models.AchievementTypeTime)

	require.Len(t, time1, 4)
	assert.Equal(t, "10-Hour Scholar", time1[0].Title)
	assert.Equal(t, "Dedicated 10 hours to learning!", time1[0].Description)
	assert.Equal(t, 50, time1[0].PointsAwarded)
	assert.Equal(t, "easy", time1[1].DifficultyLevel)
	assert.Equal(t, "common", time1[1].Rarity)
	assert.Equal(t, "medium", time1[2].DifficultyLevel)
	assert.Equal(t, "uncommon", time1[3].Rarity)
	assert.Equal(t, 500, time1[3].PointsAwarded)
	assert.Equal(t, 6000.0, time1[3].ThresholdValue)
}

func TestEarnedAchievements_Perfectionist(t *testing.T) {
	earned := byType(EarnedAchievements(1, AchievementInputs{AverageScore: 95}, time.Now()), models.AchievementTypeAssessment)

	require.Len(t, earned, 1)
	assert.Equal(t, perfectionistTitle, earned[0].Title)
	assert.Equal(t, 100, earned[0].PointsAwarded)
	assert.Equal(t, "epic", earned[0].Rarity)
	assert.Equal(t, 95.0, earned[0].ThresholdValue)

	var evidence map[string]float64
	require.NoError(t, json.Unmarshal(earned[0].EvidenceData, &evidence))
	assert.Equal(t, 95.0, evidence["current_progress"])
}

func TestEarnedAchievements_Mastery(t *testing.T) {
	mastery := byType(EarnedAchievements(1, AchievementInputs{MasteredSubjects: 5}, time.Now()), models.AchievementTypeMastery)

	require.Len(t, mastery, 3)
	assert.Equal(t, "Master of 1 Subject", mastery[0].Title)
	assert.Equal(t, "Master of 3 Subjects", mastery[1].Title)
	assert.Equal(t, "rare", mastery[1].Rarity)
	assert.Equal(t, "epic", mastery[2].Rarity)
	assert.Equal(t, "hard", mastery[2].DifficultyLevel)
	assert.Equal(t, 250, mastery[2].PointsAwarded)
}
