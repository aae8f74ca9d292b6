package scoring

import (
	"testing"
	"time"

	"learnapp/internal/models"

	"github.com/stretchr/testify/assert"
)

func session(start time.Time, minutes int, subject string) models.LearningSession {
	m := minutes
	return models.LearningSession{StartTime: start, DurationMinutes: &m, Subject: subject}
}

func scored(subject string, score float64) models.Assessment {
	s := score
	return models.Assessment{Subject: subject, ScorePercentage: &s, IsCompleted: true}
}

func TestImprovementRate(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{"two assessments", []float64{60, 90}, 50},
		{"empty", nil, 0},
		{"single", []float64{80}, 0},
		{"zero first half", []float64{0, 80}, 0},
		{"odd count splits at floor", []float64{50, 60, 80}, 40},
		{"decline", []float64{80, 80, 40, 40}, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ImprovementRate(tt.scores), 1e-9)
		})
	}
}

func TestSlope(t *testing.T) {
	assert.Equal(t, 0.0, Slope(nil))
	assert.Equal(t, 0.0, Slope([]float64{42}))
	assert.InDelta(t, 10.0, Slope([]float64{50, 60, 70, 80}), 1e-9)
	assert.InDelta(t, -5.0, Slope([]float64{20, 15, 10}), 1e-9)
	assert.InDelta(t, 0.0, Slope([]float64{7, 7, 7}), 1e-9)
}

func TestTrend(t *testing.T) {
	direction, change := Trend([]float64{10})
	assert.Equal(t, TrendStable, direction)
	assert.Equal(t, 0.0, change)

	direction, change = Trend([]float64{50, 100})
	assert.Equal(t, TrendImproving, direction)
	assert.InDelta(t, 100.0, change, 1e-9)

	direction, change = Trend([]float64{100, 100, 50, 50})
	assert.Equal(t, TrendDeclining, direction)
	assert.InDelta(t, -50.0, change, 1e-9)

	direction, change = Trend([]float64{0, 10})
	assert.Equal(t, TrendImproving, direction)
	assert.Equal(t, 0.0, change)
}

func TestBucketForHour(t *testing.T) {
	cases := map[int]models.TimeOfDay{
		0:  models.TimeOfDayNight,
		5:  models.TimeOfDayNight,
		6:  models.TimeOfDayMorning,
		11: models.TimeOfDayMorning,
		12: models.TimeOfDayAfternoon,
		16: models.TimeOfDayAfternoon,
		17: models.TimeOfDayEvening,
		21: models.TimeOfDayEvening,
		22: models.TimeOfDayNight,
		23: models.TimeOfDayNight,
	}
	for hour, expected := range cases {
		assert.Equal(t, expected, BucketForHour(hour), "hour %d", hour)
	}
	assert.Equal(t, "Afternoon", BucketLabel(models.TimeOfDayAfternoon))
}

func TestMostProductiveHour(t *testing.T) {
	_, ok := MostProductiveHour(nil)
	assert.False(t, ok)

	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	sessions := []models.LearningSession{
		session(day.Add(9*time.Hour), 30, "math"),
		session(day.Add(9*time.Hour+30*time.Minute), 30, "math"),
		session(day.Add(20*time.Hour), 45, "art"),
	}
	hour, ok := MostProductiveHour(sessions)
	assert.True(t, ok)
	assert.Equal(t, 9, hour)

	// Equal totals resolve to the later hour.
	sessions = append(sessions, session(day.Add(20*time.Hour), 15, "art"))
	hour, _ = MostProductiveHour(sessions)
	assert.Equal(t, 20, hour)
}

func TestConsistencyScore(t *testing.T) {
	assert.Equal(t, 0.0, ConsistencyScore(3, 0))
	assert.InDelta(t, 50.0, ConsistencyScore(15, 30), 1e-9)
	assert.InDelta(t, 100.0, ConsistencyScore(7, 7), 1e-9)
}

func TestActiveDays(t *testing.T) {
	day := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)
	sessions := []models.LearningSession{
		session(day, 10, "a"),
		session(day.Add(3*time.Hour), 10, "a"),
		session(day.AddDate(0, 0, 1), 10, "b"),
	}
	assert.Equal(t, 2, ActiveDays(sessions))
	assert.Equal(t, 2, DistinctSubjects(sessions))
	assert.Equal(t, 30, TotalMinutes(sessions))
}

func TestTotalMinutes_MissingDuration(t *testing.T) {
	sessions := []models.LearningSession{{Subject: "a"}, session(time.Now(), 20, "a")}
	assert.Equal(t, 20, TotalMinutes(sessions))
}

func TestIncrementalMean_OrderIndependent(t *testing.T) {
	scores := []float64{72.5, 91, 60, 88.25, 100}

	forward, backward := 0.0, 0.0
	for i, s := range scores {
		forward = IncrementalMean(forward, i, s)
	}
	for i := range scores {
		backward = IncrementalMean(backward, i, scores[len(scores)-1-i])
	}

	assert.InDelta(t, Mean(scores), forward, 1e-9)
	assert.InDelta(t, Mean(scores), backward, 1e-9)
}

func TestReplaceInMean_RatingEdit(t *testing.T) {
	mean := IncrementalMean(0, 0, 5)
	assert.Equal(t, 5.0, mean)

	mean = ReplaceInMean(mean, 1, 5, 3)
	assert.Equal(t, 3.0, mean)

	// Two raters, one edits 4 -> 2.
	mean = IncrementalMean(mean, 1, 4)
	mean = ReplaceInMean(mean, 2, 4, 2)
	assert.InDelta(t, 2.5, mean, 1e-9)
}

func TestIsCorrect(t *testing.T) {
	expected := "Photosynthesis"
	assert.True(t, IsCorrect("  photosynthesis ", &expected))
	assert.True(t, IsCorrect("PHOTOSYNTHESIS", &expected))
	assert.False(t, IsCorrect("respiration", &expected))
	assert.False(t, IsCorrect("anything", nil))
}

func TestScorePercentage(t *testing.T) {
	assert.Equal(t, 0.0, ScorePercentage(3, 0))
	assert.InDelta(t, 75.0, ScorePercentage(3, 4), 1e-9)
}

func TestMeanAndRound(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 66.67, Round2(200.0/3))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 1.2346, RoundTo(1.23456, 4))
	assert.Equal(t, -0.5, RoundTo(-0.4999, 2))
}

func TestCompletedScores(t *testing.T) {
	pending := models.Assessment{Subject: "x"}
	assessments := []models.Assessment{scored("a", 60), pending, scored("b", 90)}
	assert.Equal(t, []float64{60, 90}, CompletedScores(assessments))
}
