// Package scoring holds the pure aggregation functions behind the learning analytics:
// totals, averages, trend estimates, time-of-day bucketing, consistency and
// incremental means. Nothing here touches storage; callers pass in the records for a
// user and window and round only when building responses.
package scoring

import (
	"math"
	"strings"
	"time"

	"learnapp/internal/models"

	"github.com/samber/lo"
)

// DateLayout is the calendar date format used for daily rollups.
const DateLayout = "2006-01-02"

// Round2 rounds to two decimal places. Only call it at the response boundary.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return lo.Sum(values) / float64(len(values))
}

// Percentage returns part/whole*100, or 0 when whole is 0.
func Percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// TotalMinutes sums session durations, treating a missing duration as 0.
func TotalMinutes(sessions []models.LearningSession) int {
	return lo.SumBy(sessions, func(s models.LearningSession) int { return s.Minutes() })
}

// DistinctSubjects counts distinct subjects across sessions.
func DistinctSubjects(sessions []models.LearningSession) int {
	return len(lo.Uniq(lo.Map(sessions, func(s models.LearningSession, _ int) string { return s.Subject })))
}

// CompletedScores returns the score of each completed assessment in input order.
func CompletedScores(assessments []models.Assessment) []float64 {
	completed := lo.Filter(assessments, func(a models.Assessment, _ int) bool {
		return a.IsCompleted && a.ScorePercentage != nil
	})
	return lo.Map(completed, func(a models.Assessment, _ int) float64 { return a.Score() })
}

// ImprovementRate compares the mean of the second half of time-ordered scores with the
// first half, split at len/2. It is a two-bucket comparison, not a regression.
// Returns 0 with fewer than two scores or a zero first-half mean.
func ImprovementRate(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	mid := len(scores) / 2
	first := Mean(scores[:mid])
	second := Mean(scores[mid:])
	if first == 0 {
		return 0
	}
	return (second - first) / first * 100
}

// TrendDirection is the two-bucket direction of a series.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Trend reports the direction and percentage change between the two halves of values.
// A series with fewer than two points is stable with no change. Equal halves are
// reported as declining, matching the strict comparison used for direction.
func Trend(values []float64) (TrendDirection, float64) {
	if len(values) < 2 {
		return TrendStable, 0
	}
	mid := len(values) / 2
	first := Mean(values[:mid])
	second := Mean(values[mid:])

	direction := TrendDeclining
	if second > first {
		direction = TrendImproving
	}
	if first <= 0 {
		return direction, 0
	}
	return direction, (second - first) / first * 100
}

// Slope returns the ordinary least-squares slope of values against their index 0..n-1.
// Returns 0 when n <= 1.
func Slope(values []float64) float64 {
	n := float64(len(values))
	if len(values) <= 1 {
		return 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}

// BucketForHour classifies an hour of day: morning [6,12), afternoon [12,17),
// evening [17,22), night otherwise.
func BucketForHour(hour int) models.TimeOfDay {
	switch {
	case hour >= 6 && hour < 12:
		return models.TimeOfDayMorning
	case hour >= 12 && hour < 17:
		return models.TimeOfDayAfternoon
	case hour >= 17 && hour < 22:
		return models.TimeOfDayEvening
	default:
		return models.TimeOfDayNight
	}
}

// BucketLabel is the display label of a time-of-day bucket.
func BucketLabel(bucket models.TimeOfDay) string {
	s := string(bucket)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// MostProductiveHour returns the start hour whose sessions sum to the most minutes.
// Ties go to the later hour. ok is false when there are no sessions.
func MostProductiveHour(sessions []models.LearningSession) (hour int, ok bool) {
	if len(sessions) == 0 {
		return 0, false
	}

	minutesByHour := make(map[int]int)
	for _, s := range sessions {
		minutesByHour[s.StartTime.Hour()] += s.Minutes()
	}

	best, bestMinutes := -1, -1
	for h := 0; h < 24; h++ {
		m, seen := minutesByHour[h]
		if !seen {
			continue
		}
		if m >= bestMinutes {
			best, bestMinutes = h, m
		}
	}
	return best, true
}

// ConsistencyScore is the share of days in the window with at least one session, as a
// percentage. It is not clamped.
func ConsistencyScore(activeDays, windowDays int) float64 {
	if windowDays <= 0 {
		return 0
	}
	return float64(activeDays) / float64(windowDays) * 100
}

// ActiveDays counts the distinct calendar dates on which sessions started.
func ActiveDays(sessions []models.LearningSession) int {
	return len(lo.Uniq(lo.Map(sessions, func(s models.LearningSession, _ int) string {
		return s.StartTime.Format(DateLayout)
	})))
}

// IncrementalMean folds value into a mean of oldCount items.
func IncrementalMean(oldMean float64, oldCount int, value float64) float64 {
	if oldCount <= 0 {
		return value
	}
	return (oldMean*float64(oldCount) + value) / float64(oldCount+1)
}

// ReplaceInMean swaps oldValue for newValue inside a mean of count items.
func ReplaceInMean(mean float64, count int, oldValue, newValue float64) float64 {
	if count <= 0 {
		return newValue
	}
	return (mean*float64(count) - oldValue + newValue) / float64(count)
}

// NormalizeAnswer trims and lowercases an answer for comparison.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsCorrect compares a submitted answer with the expected one, ignoring case and
// surrounding whitespace. A missing expected answer never matches.
func IsCorrect(submitted string, expected *string) bool {
	if expected == nil {
		return false
	}
	return NormalizeAnswer(submitted) == NormalizeAnswer(*expected)
}

// ScorePercentage returns earned/total*100, or 0 when total is 0.
func ScorePercentage(earned, total float64) float64 {
	return Percentage(earned, total)
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
