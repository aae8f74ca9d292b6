package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"learnapp/internal/models"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruleNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sessionsOf(n, minutes int) []models.LearningSession {
	return lo.Times(n, func(i int) models.LearningSession {
		return models.LearningSession{Subject: "math", StartTime: ruleNow.Add(-time.Duration(i) * time.Hour), DurationMinutes: ptr(minutes)}
	})
}

func graded(subject string, score float64) models.Assessment {
	return models.Assessment{Subject: subject, ScorePercentage: ptr(score), IsCompleted: true, Status: models.AssessmentStatusCompleted}
}

func interactionWith(contentType models.ContentType) models.ContentInteraction {
	return models.ContentInteraction{Content: &models.Content{ContentType: contentType}}
}

// recordingFinder returns content for every query and remembers the queries it saw.
type recordingFinder struct {
	queries []contentQuery
	content *models.Content
}

func (f *recordingFinder) find(q contentQuery) (*models.Content, error) {
	f.queries = append(f.queries, q)
	return f.content, nil
}

func noContent(contentQuery) (*models.Content, error) { return nil, nil }

func titles(recs []models.Recommendation) []string {
	return lo.Map(recs, func(r models.Recommendation, _ int) string { return r.Title })
}

func TestConsistencyRule(t *testing.T) {
	user := models.User{ID: 4, DailyStudyGoalMinutes: 60}

	recs, err := evaluateRecommendationRules(recommendationInputs{User: user, Sessions: sessionsOf(9, 30)}, noContent, ruleNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Build a Consistent Study Habit", rec.Title)
	assert.Equal(t, 4, rec.UserID)
	assert.Equal(t, models.RecommendationTypeStudyPlan, rec.RecommendationType)
	assert.Equal(t, models.PriorityHigh, rec.Priority)
	assert.Equal(t, models.RecommendationStatusActive, rec.Status)
	assert.Equal(t, 0.85, rec.ConfidenceScore)
	assert.Equal(t, 20, *rec.EstimatedTimeMinutes)
	assert.Equal(t, ruleNow.AddDate(0, 0, 7), *rec.ExpiresAt)

	var context map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.ContextData, &context))
	assert.Equal(t, "morning", context["optimal_time_of_day"])

	recs, err = evaluateRecommendationRules(recommendationInputs{User: user, Sessions: sessionsOf(10, 30)}, noContent, ruleNow)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFundamentalsRule(t *testing.T) {
	finder := &recordingFinder{content: &models.Content{ID: 8, Title: "Fractions 101", EstimatedDurationMinutes: ptr(25)}}
	in := recommendationInputs{
		User:     models.User{ID: 1, DailyStudyGoalMinutes: 60},
		Sessions: sessionsOf(12, 10),
		Assessments: []models.Assessment{
			graded("physics", 50), graded("math", 60), graded("physics", 65), graded("math", 40), graded("history", 80),
		},
	}

	recs, err := evaluateRecommendationRules(in, finder.find, ruleNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Review Fundamentals in physics", rec.Title)
	assert.Contains(t, rec.Description, "'Fractions 101'")
	assert.Equal(t, 8, *rec.TargetContentID)
	assert.Equal(t, 25, *rec.EstimatedTimeMinutes)
	assert.Equal(t, 0.80, rec.ConfidenceScore)
	assert.Equal(t, ruleNow.AddDate(0, 0, 14), *rec.ExpiresAt)

	require.Len(t, finder.queries, 1)
	assert.Equal(t, "physics", finder.queries[0].Subject)
	assert.Equal(t, models.DifficultyEasy, finder.queries[0].Difficulty)
	assert.Equal(t, 4.0, *finder.queries[0].MinRating)
}

func TestFundamentalsRule_NoQualifyingContent(t *testing.T) {
	in := recommendationInputs{
		User:        models.User{ID: 1, DailyStudyGoalMinutes: 60},
		Sessions:    sessionsOf(12, 10),
		Assessments: []models.Assessment{graded("math", 30)},
	}
	recs, err := evaluateRecommendationRules(in, noContent, ruleNow)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestChallengeRule(t *testing.T) {
	finder := &recordingFinder{content: &models.Content{ID: 3, Title: "Proofs"}}
	in := recommendationInputs{
		User:        models.User{ID: 1, DailyStudyGoalMinutes: 60},
		Sessions:    sessionsOf(12, 10),
		Assessments: []models.Assessment{graded("physics", 91), graded("math", 96), graded("history", 96)},
	}

	recs, err := evaluateRecommendationRules(in, finder.find, ruleNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "Challenge Yourself in math", rec.Title)
	assert.Equal(t, "Great job scoring 96% in math! Ready for a bigger challenge? Try this advanced content.", rec.Description)
	assert.Equal(t, models.PriorityMedium, rec.Priority)
	assert.Equal(t, models.DifficultyHard, *rec.DifficultyLevel)
	assert.Equal(t, ruleNow.AddDate(0, 0, 21), *rec.ExpiresAt)
	assert.Equal(t, contentQuery{Subject: "math", Difficulty: models.DifficultyHard}, finder.queries[0])
}

func TestWellnessRule(t *testing.T) {
	// 20 sessions of 100 minutes: 2000 minutes, 66.67 a day
	in := recommendationInputs{User: models.User{ID: 1, DailyStudyGoalMinutes: 40}, Sessions: sessionsOf(20, 100)}
	recs, err := evaluateRecommendationRules(in, noContent, ruleNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Take a Well-Deserved Break", recs[0].Title)
	assert.Equal(t, models.RecommendationTypeBreak, recs[0].RecommendationType)
	assert.Equal(t, ruleNow.AddDate(0, 0, 3), *recs[0].ExpiresAt)

	in.User.DailyStudyGoalMinutes = 45
	recs, err = evaluateRecommendationRules(in, noContent, ruleNow)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDiversityRule(t *testing.T) {
	finder := &recordingFinder{content: &models.Content{ID: 5, Title: "Intro video"}}
	in := recommendationInputs{
		User:     models.User{ID: 1, DailyStudyGoalMinutes: 60},
		Sessions: sessionsOf(12, 10),
		Interactions: []models.ContentInteraction{
			interactionWith(models.ContentTypeArticle), interactionWith(models.ContentTypeArticle), {},
		},
	}

	recs, err := evaluateRecommendationRules(in, finder.find, ruleNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Try Video-Based Learning", recs[0].Title)
	assert.Equal(t, models.PriorityLow, recs[0].Priority)
	assert.Equal(t, models.ContentTypeVideo, finder.queries[0].ContentType)

	in.Interactions = append(in.Interactions, interactionWith(models.ContentTypeVideo))
	recs, err = evaluateRecommendationRules(in, finder.find, ruleNow)
	require.NoError(t, err)
	assert.Empty(t, recs)

	in.Interactions = []models.ContentInteraction{interactionWith(models.ContentTypeQuiz)}
	recs, err = evaluateRecommendationRules(in, finder.find, ruleNow)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEvaluateRecommendationRules_AllRulesFire(t *testing.T) {
	finder := &recordingFinder{content: &models.Content{ID: 1, Title: "Anything"}}
	in := recommendationInputs{
		User:         models.User{ID: 1, DailyStudyGoalMinutes: 10},
		Sessions:     sessionsOf(5, 200),
		Assessments:  []models.Assessment{graded("math", 50), graded("physics", 95)},
		Interactions: []models.ContentInteraction{interactionWith(models.ContentTypeDocument)},
	}

	recs, err := evaluateRecommendationRules(in, finder.find, ruleNow)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Build a Consistent Study Habit",
		"Review Fundamentals in math",
		"Challenge Yourself in physics",
		"Take a Well-Deserved Break",
		"Try Video-Based Learning",
	}, titles(recs))
}

func TestEvaluateRecommendationRules_FinderError(t *testing.T) {
	boom := errors.New("boom")
	in := recommendationInputs{
		User:        models.User{ID: 1, DailyStudyGoalMinutes: 60},
		Assessments: []models.Assessment{graded("math", 50)},
	}
	_, err := evaluateRecommendationRules(in, func(contentQuery) (*models.Content, error) { return nil, boom }, ruleNow)
	assert.ErrorIs(t, err, boom)
}
