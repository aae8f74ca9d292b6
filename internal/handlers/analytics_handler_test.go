package handlers

import (
	"net/http"
	"testing"

	"learnapp/internal/models"
	"learnapp/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAnalyticsHandler_DayRanges(t *testing.T) {
	api := newTestAPI(t)

	api.analytics.On("Overview", mock.Anything, testUserID, 30).Return(&services.AnalyticsOverview{PeriodDays: 30}, nil).Once()
	api.analytics.On("LearningPatterns", mock.Anything, testUserID, 90).Return(&services.LearningPatternsReport{}, nil).Once()
	api.analytics.On("PerformanceTrends", mock.Anything, testUserID, 7, services.MetricScore).
		Return(&services.PerformanceTrends{}, nil).Once()
	api.analytics.On("PerformanceTrends", mock.Anything, testUserID, 30, services.MetricStudyTime).
		Return(&services.PerformanceTrends{}, nil).Once()

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/analytics/overview", http.StatusOK},
		{"/api/v1/analytics/overview?days=0", http.StatusBadRequest},
		{"/api/v1/analytics/learning-patterns?days=90", http.StatusOK},
		{"/api/v1/analytics/learning-patterns?days=91", http.StatusBadRequest},
		{"/api/v1/analytics/performance-trends?days=7", http.StatusOK},
		{"/api/v1/analytics/performance-trends?days=6", http.StatusBadRequest},
		{"/api/v1/analytics/performance-trends?metric=study_time", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := api.do(http.MethodGet, tt.path, "", true)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestAnalyticsHandler_Reports(t *testing.T) {
	api := newTestAPI(t)

	api.analytics.On("Subjects", mock.Anything, testUserID, 60).Return(&services.SubjectAnalyticsReport{}, nil).Once()
	api.analytics.On("ContentEngagement", mock.Anything, testUserID, 30).Return(&services.ContentEngagementReport{}, nil).Once()
	api.analytics.On("RecommendationsEffectiveness", mock.Anything, testUserID, 365).
		Return(&services.RecommendationImpactReport{}, nil).Once()

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/analytics/subjects?days=60", "", true).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/analytics/content-engagement", "", true).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/analytics/recommendations-effectiveness?days=365", "", true).Code)
}

func TestProgressHandler_Achievements(t *testing.T) {
	api := newTestAPI(t)

	api.progress.On("Achievements", mock.Anything, testUserID, true).
		Return([]models.Achievement{{ID: 1, Title: "Week Warrior", IsUnlocked: true}}, nil).Once()
	w := api.do(http.MethodGet, "/api/v1/progress/achievements?unlocked_only=true", "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/progress/achievements?unlocked_only=maybe", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.progress.On("CheckAchievements", mock.Anything, testUserID).
		Return(&services.AchievementCheckResult{Message: "Unlocked 1 new achievements", AchievementsUnlocked: 1}, nil).Once()
	w = api.do(http.MethodPost, "/api/v1/progress/achievements/check", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeJSON(t, w)["achievements_unlocked"])
}

func TestProgressHandler_SubjectAndTrends(t *testing.T) {
	api := newTestAPI(t)

	api.progress.On("SubjectProgress", mock.Anything, testUserID, "biology").
		Return([]models.Progress{{Subject: "biology", MasteryScore: 40}}, nil).Once()
	w := api.do(http.MethodGet, "/api/v1/progress/subject/biology", "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	api.progress.On("Trends", mock.Anything, testUserID, 30, "biology").Return(&services.ProgressTrends{}, nil).Once()
	w = api.do(http.MethodGet, "/api/v1/progress/analytics/trends?subject=biology", "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/v1/progress/analytics/trends?days=3", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
