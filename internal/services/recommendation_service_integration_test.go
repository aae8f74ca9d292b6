//go:build integration
// +build integration

package services

import (
	"context"
	"testing"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/userlock"
	contextutils "learnapp/internal/utils"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRecommendationService(t *testing.T) (*RecommendationService, *gorm.DB) {
	db := SharedTestDBSetup(t)
	return NewRecommendationServiceWithLogger(db, userlock.NewLocal(), testLogger()), db
}

func createTestRecommendation(t *testing.T, db *gorm.DB, userID int, title string, priority models.Priority, confidence float64, expiresAt *time.Time) *models.Recommendation {
	rec := &models.Recommendation{
		UserID:             userID,
		RecommendationType: models.RecommendationTypeReview,
		Title:              title,
		Description:        title,
		Priority:           priority,
		Category:           "subject",
		Reasoning:          "test",
		ConfidenceScore:    confidence,
		Status:             models.RecommendationStatusPending,
		ExpiresAt:          expiresAt,
	}
	require.NoError(t, db.Create(rec).Error)
	return rec
}

func TestRecommendationService_GenerateDeduplicates_Integration(t *testing.T) {
	service, db := newTestRecommendationService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "newcomer")

	first, err := service.Generate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RecommendationsCreated)
	assert.Equal(t, "Generated 1 new recommendations", first.Message)

	second, err := service.Generate(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, second.RecommendationsCreated)

	recs, err := service.List(ctx, user.ID, RecommendationFilter{}, Page{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Build a Consistent Study Habit", recs[0].Title)
	assert.Equal(t, models.RecommendationStatusActive, recs[0].Status)
}

func TestRecommendationService_GenerateUsesCatalog_Integration(t *testing.T) {
	service, db := newTestRecommendationService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "struggler")

	easy := createTestContent(t, db, "Algebra basics", "math", models.ContentTypeArticle, models.DifficultyEasy)
	require.NoError(t, db.Model(easy).Update("average_rating", 4.5).Error)
	require.NoError(t, db.Create(&models.Assessment{
		UserID: user.ID, Title: "Quiz", Subject: "math", AssessmentType: models.AssessmentTypeFormative,
		DifficultyLevel: models.DifficultyMedium, Status: models.AssessmentStatusCompleted,
		IsCompleted: true, ScorePercentage: ptr(40.0),
	}).Error)

	result, err := service.Generate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecommendationsCreated)

	recs, err := service.List(ctx, user.ID, RecommendationFilter{RecommendationType: "content"}, Page{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Review Fundamentals in math", recs[0].Title)
	assert.Equal(t, easy.ID, *recs[0].TargetContentID)
}

func TestRecommendationService_ListOrderAndExpiry_Integration(t *testing.T) {
	service, db := newTestRecommendationService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "lister")
	past := time.Now().Add(-time.Hour)

	createTestRecommendation(t, db, user.ID, "low", models.PriorityLow, 0.9, nil)
	createTestRecommendation(t, db, user.ID, "high weak", models.PriorityHigh, 0.5, nil)
	createTestRecommendation(t, db, user.ID, "urgent", models.PriorityUrgent, 0.1, nil)
	createTestRecommendation(t, db, user.ID, "high strong", models.PriorityHigh, 0.9, nil)
	createTestRecommendation(t, db, user.ID, "expired", models.PriorityUrgent, 1, &past)
	dismissed := createTestRecommendation(t, db, user.ID, "dismissed", models.PriorityUrgent, 1, nil)
	require.NoError(t, service.Dismiss(ctx, user.ID, dismissed.ID))

	recs, err := service.List(ctx, user.ID, RecommendationFilter{}, Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "high strong", "high weak", "low"},
		lo.Map(recs, func(r models.Recommendation, _ int) string { return r.Title }))

	recs, err = service.List(ctx, user.ID, RecommendationFilter{Priority: "high"}, Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "high strong", recs[0].Title)
}

func TestRecommendationService_Lifecycle_Integration(t *testing.T) {
	service, db := newTestRecommendationService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "responder")
	other := createTestUser(t, db, "stranger")
	rec := createTestRecommendation(t, db, user.ID, "practice", models.PriorityMedium, 0.7, nil)

	_, err := service.Get(ctx, other.ID, rec.ID)
	requireCode(t, err, contextutils.ErrorCodeRecordNotFound)

	viewed, err := service.Get(ctx, user.ID, rec.ID)
	require.NoError(t, err)
	assert.True(t, viewed.IsViewed)
	require.NotNil(t, viewed.ViewedAt)

	_, err = service.Complete(ctx, user.ID, rec.ID, CompleteRecommendationRequest{})
	requireCode(t, err, contextutils.ErrorCodeInvalidState)

	accepted, err := service.Respond(ctx, user.ID, rec.ID, RespondRequest{IsAccepted: ptr(true), Feedback: ptr("sounds good")})
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationStatusAccepted, accepted.Status)
	assert.True(t, *accepted.IsAccepted)
	assert.Equal(t, "sounds good", *accepted.UserFeedback)

	_, err = service.Respond(ctx, user.ID, rec.ID, RespondRequest{IsAccepted: ptr(false)})
	requireCode(t, err, contextutils.ErrorCodeInvalidState)

	completed, err := service.Complete(ctx, user.ID, rec.ID, CompleteRecommendationRequest{
		EffectivenessScore: ptr(0.8), UserRating: ptr(4), ActualTimeTaken: ptr(25),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationStatusCompleted, completed.Status)
	assert.True(t, completed.IsCompleted)
	assert.Equal(t, 4, *completed.UserRating)

	stats, err := service.Effectiveness(ctx, user.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRecommendations)
	assert.Equal(t, 100.0, stats.AcceptanceRate)
	assert.Equal(t, 100.0, stats.CompletionRate)
}

func TestRecommendationService_DeclineThenComplete_Integration(t *testing.T) {
	service, db := newTestRecommendationService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "decliner")
	rec := createTestRecommendation(t, db, user.ID, "skip me", models.PriorityLow, 0.3, nil)

	declined, err := service.Respond(ctx, user.ID, rec.ID, RespondRequest{IsAccepted: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationStatusDeclined, declined.Status)

	_, err = service.Complete(ctx, user.ID, rec.ID, CompleteRecommendationRequest{})
	requireCode(t, err, contextutils.ErrorCodeInvalidState)

	err = service.Dismiss(ctx, user.ID+1000, rec.ID)
	requireCode(t, err, contextutils.ErrorCodeRecordNotFound)
}

func TestRecommendationService_GenerateSeesWholeWindow_Integration(t *testing.T) {
	service, db := newTestRecommendationService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "marathoner")
	require.NoError(t, db.Model(user).Update("daily_study_goal_minutes", 10).Error)

	// 25 x 30 minutes = 750 in the window; the newest 20 alone only reach 600
	now := time.Now().UTC()
	for i := 0; i < 25; i++ {
		createTestSession(t, db, user.ID, "math", now.Add(-time.Duration(i)*24*time.Hour-time.Hour), 30, true)
	}

	easy := createTestContent(t, db, "Chemistry basics", "chemistry", models.ContentTypeArticle, models.DifficultyEasy)
	require.NoError(t, db.Model(easy).Update("average_rating", 4.5).Error)
	require.NoError(t, db.Create(&models.Assessment{
		UserID: user.ID, Title: "Old quiz", Subject: "chemistry", AssessmentType: models.AssessmentTypeFormative,
		DifficultyLevel: models.DifficultyMedium, Status: models.AssessmentStatusCompleted,
		IsCompleted: true, ScorePercentage: ptr(40.0), CreatedAt: now.Add(-20 * 24 * time.Hour),
	}).Error)
	for i := 0; i < 10; i++ {
		require.NoError(t, db.Create(&models.Assessment{
			UserID: user.ID, Title: "Recent quiz", Subject: "math", AssessmentType: models.AssessmentTypeFormative,
			DifficultyLevel: models.DifficultyMedium, Status: models.AssessmentStatusCompleted,
			IsCompleted: true, ScorePercentage: ptr(80.0),
		}).Error)
	}

	_, err := service.Generate(ctx, user.ID)
	require.NoError(t, err)

	recs, err := service.List(ctx, user.ID, RecommendationFilter{}, Page{})
	require.NoError(t, err)
	titles := lo.Map(recs, func(r models.Recommendation, _ int) string { return r.Title })
	assert.Contains(t, titles, "Take a Well-Deserved Break")
	assert.Contains(t, titles, "Review Fundamentals in chemistry")
	assert.NotContains(t, titles, "Build a Consistent Study Habit")
}
