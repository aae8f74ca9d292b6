package services

import (
	"testing"
	"time"

	"learnapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProgressDashboard_Empty(t *testing.T) {
	out := buildProgressDashboard(nil, nil)

	assert.Equal(t, OverallStats{}, out.OverallStats)
	assert.NotNil(t, out.SubjectProgress)
	assert.NotNil(t, out.StrugglingAreas)
	assert.NotNil(t, out.ImprovementRecommendations)
}

func TestBuildProgressDashboard(t *testing.T) {
	records := []models.Progress{
		{Subject: "math", Topic: ptr("algebra"), MasteryScore: 90, TimeSpentMinutes: 100, StreakDays: 4, IsMastered: true},
		{Subject: "math", MasteryScore: 40, TimeSpentMinutes: 50, StreakDays: 9},
		{Subject: "physics", Topic: ptr("optics"), MasteryScore: 70, TimeSpentMinutes: 30, IsStruggling: true},
	}
	unlockedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := []models.Achievement{{Title: "7-Day Study Streak", PointsAwarded: 14, UnlockedAt: &unlockedAt}}

	out := buildProgressDashboard(records, recent)

	assert.Equal(t, 2, out.OverallStats.TotalSubjects)
	assert.Equal(t, 1, out.OverallStats.MasteredSubjects)
	assert.Equal(t, 66.67, out.OverallStats.AverageMastery)
	assert.Equal(t, 180, out.OverallStats.TotalStudyTime)
	assert.Equal(t, 9, out.OverallStats.CurrentStreak)

	require.Len(t, out.SubjectProgress, 2)
	math := out.SubjectProgress[0]
	assert.Equal(t, "math", math.Subject)
	assert.Equal(t, 65.0, math.OverallMastery)
	assert.Equal(t, 150, math.TimeSpent)
	assert.False(t, math.IsStruggling)
	require.Len(t, math.Topics, 2)
	assert.Equal(t, "General", math.Topics[1].Topic)
	assert.True(t, out.SubjectProgress[1].IsStruggling)

	require.Len(t, out.RecentAchievements, 1)
	assert.Equal(t, 14, out.RecentAchievements[0].PointsAwarded)

	require.Len(t, out.StrugglingAreas, 2)
	assert.Equal(t, "Review fundamentals", out.StrugglingAreas[0].RecommendedAction)
	assert.Equal(t, "Additional practice needed", out.StrugglingAreas[1].RecommendedAction)
	assert.Equal(t, []string{"Focus on struggling areas in math", "Focus on struggling areas in physics"},
		out.ImprovementRecommendations)
}

func TestBuildProgressTrends(t *testing.T) {
	base := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	sessions := []models.LearningSession{
		{Subject: "math", StartTime: base, DurationMinutes: ptr(30), CompletionPercentage: 100},
		{Subject: "physics", StartTime: base.Add(2 * time.Hour), DurationMinutes: ptr(20), CompletionPercentage: 50},
		{Subject: "math", StartTime: base.AddDate(0, 0, 1), DurationMinutes: ptr(60)},
	}

	out := buildProgressTrends(sessions, 30)

	assert.Equal(t, 30, out.PeriodDays)
	require.Len(t, out.DailyTrends, 2)
	assert.Equal(t, 2, out.DailyTrends[0].SubjectsStudied)
	assert.Equal(t, 75.0, out.DailyTrends[0].AverageCompletion)
	assert.Equal(t, 110, out.Summary.TotalStudyTime)
	assert.Equal(t, 3, out.Summary.TotalSessions)
	assert.Equal(t, 55.0, out.Summary.AverageDailyTime)
	assert.Zero(t, out.Summary.TimeTrendPercentage)
	require.NotNil(t, out.Summary.MostActiveDay)
	assert.Equal(t, "2024-02-02", *out.Summary.MostActiveDay)
}

func TestBuildProgressTrends_Empty(t *testing.T) {
	out := buildProgressTrends(nil, 7)
	assert.Empty(t, out.DailyTrends)
	assert.Nil(t, out.Summary.MostActiveDay)
	assert.Zero(t, out.Summary.AverageDailyTime)
}
