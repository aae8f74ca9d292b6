package services

import (
	"testing"
	"time"

	"learnapp/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		name     string
		minutes  int
		goal     int
		expected float64
	}{
		{"half way", 30, 60, 50},
		{"capped at 100", 90, 60, 100},
		{"no minutes", 0, 60, 0},
		{"zero goal", 30, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, goalProgress(tt.minutes, tt.goal), 1e-9)
		})
	}
}

func TestBuildStudyPlan(t *testing.T) {
	now := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC) // Monday
	user := models.User{
		SubjectsOfInterest:    pq.StringArray{"math", "physics", "chemistry", "biology"},
		PreferredDifficulty:   models.DifficultyHard,
		DailyStudyGoalMinutes: 60,
	}
	sessions := []models.LearningSession{
		{Subject: "math", StartTime: now.Add(-time.Hour), DurationMinutes: ptr(15), Topic: ptr("algebra"), IsCompleted: true},
		{Subject: "math", StartTime: now.Add(-2 * time.Hour), DurationMinutes: ptr(15), Topic: ptr("algebra"), IsCompleted: true},
		{Subject: "physics", StartTime: now.AddDate(0, 0, -1), DurationMinutes: ptr(120), Topic: ptr("optics"), IsCompleted: true},
		{Subject: "physics", StartTime: now.AddDate(0, 0, -2), DurationMinutes: ptr(30), Topic: ptr("waves")},
	}

	plan := buildStudyPlan(user, sessions, now)

	assert.InDelta(t, 50.0, plan.DailyGoalProgress, 1e-9)

	require.Len(t, plan.RecommendedSessions, 3)
	assert.Equal(t, "math", plan.RecommendedSessions[0].Subject)
	assert.Equal(t, "chemistry", plan.RecommendedSessions[2].Subject)
	assert.Equal(t, 30, plan.RecommendedSessions[0].RecommendedDuration)
	assert.Equal(t, models.DifficultyHard, plan.RecommendedSessions[0].Difficulty)

	require.Len(t, plan.WeeklySchedule, 7)
	assert.Equal(t, "2024-03-04", plan.WeeklySchedule[0].Date)
	assert.Equal(t, "Monday", plan.WeeklySchedule[0].Day)
	assert.Equal(t, "Sunday", plan.WeeklySchedule[6].Day)
	assert.Equal(t, 60, plan.WeeklySchedule[3].EstimatedDuration)

	assert.Equal(t, []string{"algebra", "optics"}, plan.NextReviewTopics)
}

func TestBuildStudyPlan_NoInterests(t *testing.T) {
	now := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	plan := buildStudyPlan(models.User{DailyStudyGoalMinutes: 30}, nil, now)

	assert.Empty(t, plan.RecommendedSessions)
	assert.NotNil(t, plan.RecommendedSessions)
	assert.Empty(t, plan.NextReviewTopics)
	assert.Zero(t, plan.DailyGoalProgress)
}
