package services

import (
	"testing"
	"time"

	"learnapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionUpdates(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("first completion on create", func(t *testing.T) {
		updates, completed := interactionUpdates(models.ContentInteraction{}, InteractionRequest{
			InteractionType:    "view",
			ProgressPercentage: 100,
		}, true, now)

		assert.True(t, completed)
		assert.Equal(t, true, updates["is_completed"])
		assert.Equal(t, now, updates["completion_time"])
		assert.NotContains(t, updates, "end_time")
		assert.NotContains(t, updates, "interaction_count")
	})

	t.Run("repeat update bumps count and end time", func(t *testing.T) {
		existing := models.ContentInteraction{InteractionCount: 2, DurationSeconds: ptr(30.0)}
		updates, completed := interactionUpdates(existing, InteractionRequest{
			InteractionType:    "view",
			ProgressPercentage: 40,
			DurationSeconds:    ptr(15.0),
			Notes:              ptr("halfway"),
		}, false, now)

		assert.False(t, completed)
		assert.Equal(t, 3, updates["interaction_count"])
		assert.Equal(t, now, updates["end_time"])
		assert.Equal(t, 45.0, updates["duration_seconds"])
		assert.Equal(t, "halfway", updates["notes"])
		assert.NotContains(t, updates, "is_completed")
	})

	t.Run("already completed does not complete again", func(t *testing.T) {
		_, completed := interactionUpdates(models.ContentInteraction{IsCompleted: true}, InteractionRequest{
			InteractionType:    "view",
			ProgressPercentage: 100,
		}, false, now)
		assert.False(t, completed)
	})

	t.Run("rate interactions leave the rating to Rate", func(t *testing.T) {
		updates, _ := interactionUpdates(models.ContentInteraction{}, InteractionRequest{
			InteractionType: "rate",
			Rating:          ptr(4),
		}, true, now)
		assert.NotContains(t, updates, "rating")
	})
}

func TestBuildEngagement(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out := buildEngagement(nil)
		assert.Zero(t, out.TotalInteractions)
		assert.Zero(t, out.CompletionRate)
		assert.Empty(t, out.ContentTypesEngaged)
		assert.NotNil(t, out.SubjectsStudied)
	})

	t.Run("counts and durations", func(t *testing.T) {
		video := &models.Content{ContentType: models.ContentTypeVideo, Subject: "math"}
		article := &models.Content{ContentType: models.ContentTypeArticle, Subject: "physics"}
		interactions := []models.ContentInteraction{
			{Content: video, DurationSeconds: ptr(1800.0), IsCompleted: true},
			{Content: article, DurationSeconds: ptr(900.0)},
			{Content: video, DurationSeconds: ptr(900.0)},
			{},
		}

		out := buildEngagement(interactions)

		assert.Equal(t, 4, out.TotalInteractions)
		require.Len(t, out.ContentTypesEngaged, 2)
		assert.Equal(t, TypeCount{Type: models.ContentTypeVideo, Count: 2}, out.ContentTypesEngaged[0])
		assert.Equal(t, SubjectCount{Subject: "physics", Count: 1}, out.SubjectsStudied[1])
		assert.Equal(t, 25.0, out.CompletionRate)
		assert.Equal(t, 15.0, out.AverageSessionDuration)
		assert.Equal(t, 1.0, out.TotalStudyTimeHours)
	})
}
