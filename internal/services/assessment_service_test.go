package services

import (
	"testing"
	"time"

	"learnapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuestions() []models.Question {
	return []models.Question{
		{ID: 1, QuestionText: "2+2", CorrectAnswer: ptr("4"), PointsPossible: 1},
		{ID: 2, QuestionText: "Capital of France", CorrectAnswer: ptr("Paris"), PointsPossible: 2},
		{ID: 3, QuestionText: "Largest planet", CorrectAnswer: ptr("Jupiter"), PointsPossible: 1},
	}
}

func TestGradeSubmission(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("case-insensitive trimmed comparison", func(t *testing.T) {
		g := gradeSubmission(7, 3, testQuestions(), []AnswerSubmission{
			{QuestionID: 1, AnswerText: ptr(" 4 ")},
			{QuestionID: 2, AnswerText: ptr("PARIS")},
			{QuestionID: 3, AnswerText: ptr("Saturn")},
		}, now)

		require.Len(t, g.answers, 3)
		assert.Equal(t, 2, g.correct)
		assert.Equal(t, 3.0, g.earnedPoints)
		assert.Equal(t, 4.0, g.possiblePoints)
		assert.InDelta(t, 75.0, g.score(), 1e-9)
		assert.Equal(t, 7, g.answers[0].UserID)
		assert.Equal(t, 3, g.answers[0].AssessmentID)
		assert.Equal(t, 2.0, g.answers[1].PointsEarned)
		assert.False(t, g.answers[2].IsCorrect)
		assert.Zero(t, g.answers[2].PointsEarned)
	})

	t.Run("selected option used when text is empty", func(t *testing.T) {
		g := gradeSubmission(1, 1, testQuestions(), []AnswerSubmission{
			{QuestionID: 2, AnswerText: ptr(""), SelectedOption: ptr("paris")},
		}, now)
		require.Len(t, g.answers, 1)
		assert.True(t, g.answers[0].IsCorrect)
		assert.InDelta(t, 100.0, g.score(), 1e-9)
	})

	t.Run("unknown questions are skipped", func(t *testing.T) {
		g := gradeSubmission(1, 1, testQuestions(), []AnswerSubmission{
			{QuestionID: 99, AnswerText: ptr("4")},
			{QuestionID: 1, AnswerText: ptr("5")},
		}, now)
		require.Len(t, g.answers, 1)
		assert.Equal(t, 1.0, g.possiblePoints)
		assert.Zero(t, g.score())
	})

	t.Run("empty submission scores zero", func(t *testing.T) {
		g := gradeSubmission(1, 1, testQuestions(), nil, now)
		assert.Empty(t, g.answers)
		assert.Zero(t, g.score())
	})

	t.Run("blank answer is never correct", func(t *testing.T) {
		questions := []models.Question{{ID: 1, CorrectAnswer: ptr(""), PointsPossible: 1}}
		g := gradeSubmission(1, 1, questions, []AnswerSubmission{{QuestionID: 1}}, now)
		assert.Zero(t, g.correct)
	})
}

func TestQuestionResults(t *testing.T) {
	answers := []models.Answer{
		{QuestionID: 1, AnswerText: ptr("4"), IsCorrect: true, PointsEarned: 1},
		{QuestionID: 2, SelectedOption: ptr("Rome")},
	}

	results := questionResults(testQuestions(), answers)

	require.Len(t, results, 3)
	assert.True(t, results[0].IsCorrect)
	assert.Equal(t, "4", *results[0].UserAnswer)
	assert.Equal(t, "Rome", *results[1].UserAnswer)
	assert.Equal(t, "Paris", *results[1].CorrectAnswer)
	assert.Nil(t, results[2].UserAnswer)
	assert.False(t, results[2].IsCorrect)
}

func completedAssessment(subject string, difficulty models.Difficulty, score float64, created time.Time) models.Assessment {
	return models.Assessment{
		Subject:         subject,
		DifficultyLevel: difficulty,
		ScorePercentage: ptr(score),
		IsCompleted:     true,
		CreatedAt:       created,
	}
}

func TestBuildPerformanceAnalytics(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out := buildPerformanceAnalytics(nil)
		assert.Zero(t, out.TotalAssessments)
		assert.Zero(t, out.AverageScore)
		assert.Zero(t, out.ImprovementTrend)
		assert.NotNil(t, out.SubjectPerformance)
		assert.NotNil(t, out.RecentScores)
	})

	t.Run("breakdowns keep first-seen order", func(t *testing.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		assessments := []models.Assessment{
			completedAssessment("physics", models.DifficultyHard, 60, base),
			completedAssessment("math", models.DifficultyEasy, 70, base.AddDate(0, 0, 1)),
			completedAssessment("physics", models.DifficultyEasy, 80, base.AddDate(0, 0, 2)),
		}

		out := buildPerformanceAnalytics(assessments)

		assert.Equal(t, 3, out.TotalAssessments)
		assert.Equal(t, 70.0, out.AverageScore)
		assert.Equal(t, 10.0, out.ImprovementTrend)

		require.Len(t, out.SubjectPerformance, 2)
		assert.Equal(t, "physics", out.SubjectPerformance[0].Subject)
		assert.Equal(t, 70.0, out.SubjectPerformance[0].AverageScore)
		assert.Equal(t, 2, out.SubjectPerformance[0].AssessmentCount)

		require.Len(t, out.DifficultyPerformance, 2)
		assert.Equal(t, models.DifficultyHard, out.DifficultyPerformance[0].Difficulty)
		assert.Equal(t, 75.0, out.DifficultyPerformance[1].AverageScore)

		require.Len(t, out.RecentScores, 3)
		assert.Equal(t, "2024-01-03", out.RecentScores[2].Date)
	})

	t.Run("breakdown averages are rounded", func(t *testing.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		assessments := []models.Assessment{
			completedAssessment("math", models.DifficultyMedium, 70, base),
			completedAssessment("math", models.DifficultyMedium, 80, base.AddDate(0, 0, 1)),
			completedAssessment("math", models.DifficultyMedium, 85, base.AddDate(0, 0, 2)),
		}

		out := buildPerformanceAnalytics(assessments)

		require.Len(t, out.SubjectPerformance, 1)
		assert.Equal(t, 78.33, out.SubjectPerformance[0].AverageScore)
		require.Len(t, out.DifficultyPerformance, 1)
		assert.Equal(t, 78.33, out.DifficultyPerformance[0].AverageScore)
		assert.Equal(t, 78.33, out.AverageScore)
	})

	t.Run("recent scores keep the last ten", func(t *testing.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var assessments []models.Assessment
		for i := 0; i < 12; i++ {
			assessments = append(assessments, completedAssessment("math", models.DifficultyMedium, float64(i), base.AddDate(0, 0, i)))
		}

		out := buildPerformanceAnalytics(assessments)

		require.Len(t, out.RecentScores, 10)
		assert.Equal(t, 2.0, out.RecentScores[0].Score)
		assert.Equal(t, 1.0, out.ImprovementTrend)
	})
}
