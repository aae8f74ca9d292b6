package scoring

import (
	"sort"
	"time"

	"learnapp/internal/models"

	"github.com/samber/lo"
)

// DailyTrend is the rollup of one calendar day of sessions.
type DailyTrend struct {
	Date              string  `json:"date"`
	StudyTimeMinutes  int     `json:"study_time_minutes"`
	SessionsCount     int     `json:"sessions_count"`
	AverageCompletion float64 `json:"average_completion"`
	SubjectsStudied   int     `json:"subjects_studied"`
}

// DailyTrends groups sessions by start date, sorted ascending.
func DailyTrends(sessions []models.LearningSession) []DailyTrend {
	byDate := lo.GroupBy(sessions, func(s models.LearningSession) string {
		return s.StartTime.Format(DateLayout)
	})

	trends := make([]DailyTrend, 0, len(byDate))
	for date, day := range byDate {
		completion := lo.SumBy(day, func(s models.LearningSession) float64 { return s.CompletionPercentage })
		trends = append(trends, DailyTrend{
			Date:              date,
			StudyTimeMinutes:  TotalMinutes(day),
			SessionsCount:     len(day),
			AverageCompletion: completion / float64(len(day)),
			SubjectsStudied:   DistinctSubjects(day),
		})
	}

	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends
}

// WeekOverWeekTimeTrend compares the average daily minutes of the last seven active
// days with the seven before them. Fewer than seven days gives 0. Without fourteen
// days there is no previous week and the trend is 0.
func WeekOverWeekTimeTrend(trends []DailyTrend) float64 {
	if len(trends) < 7 {
		return 0
	}
	minutes := func(d DailyTrend) int { return d.StudyTimeMinutes }

	recent := trends[len(trends)-7:]
	recentAvg := float64(lo.SumBy(recent, minutes)) / 7

	previousAvg := recentAvg
	if len(trends) >= 14 {
		previous := trends[len(trends)-14 : len(trends)-7]
		previousAvg = float64(lo.SumBy(previous, minutes)) / float64(len(previous))
	}

	if previousAvg <= 0 {
		return 0
	}
	return (recentAvg - previousAvg) / previousAvg * 100
}

// MostActiveDay returns the date with the most study minutes, the earliest on ties.
func MostActiveDay(trends []DailyTrend) (string, bool) {
	if len(trends) == 0 {
		return "", false
	}
	best := lo.MaxBy(trends, func(a, b DailyTrend) bool { return a.StudyTimeMinutes > b.StudyTimeMinutes })
	return best.Date, true
}

// SubjectTotal aggregates sessions of one subject.
type SubjectTotal struct {
	Subject      string `json:"subject"`
	Sessions     int    `json:"sessions"`
	TotalMinutes int    `json:"total_minutes"`
}

// SubjectTotals groups sessions by subject, ordered by minutes descending then subject.
func SubjectTotals(sessions []models.LearningSession) []SubjectTotal {
	bySubject := lo.GroupBy(sessions, func(s models.LearningSession) string { return s.Subject })

	totals := make([]SubjectTotal, 0, len(bySubject))
	for subject, group := range bySubject {
		totals = append(totals, SubjectTotal{
			Subject:      subject,
			Sessions:     len(group),
			TotalMinutes: TotalMinutes(group),
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].TotalMinutes != totals[j].TotalMinutes {
			return totals[i].TotalMinutes > totals[j].TotalMinutes
		}
		return totals[i].Subject < totals[j].Subject
	})
	return totals
}

// WeekdayTotal aggregates sessions started on one weekday.
type WeekdayTotal struct {
	Day      string `json:"day"`
	Sessions int    `json:"sessions"`
	Minutes  int    `json:"minutes"`
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// WeeklyPattern returns per-weekday totals for weekdays with sessions, Monday first.
func WeeklyPattern(sessions []models.LearningSession) []WeekdayTotal {
	byDay := lo.GroupBy(sessions, func(s models.LearningSession) time.Weekday { return s.StartTime.Weekday() })

	pattern := make([]WeekdayTotal, 0, len(byDay))
	for _, day := range weekOrder {
		group, ok := byDay[day]
		if !ok {
			continue
		}
		pattern = append(pattern, WeekdayTotal{
			Day:      day.String(),
			Sessions: len(group),
			Minutes:  TotalMinutes(group),
		})
	}
	return pattern
}

// AverageSessionLength averages the sessions that have a non-zero duration.
func AverageSessionLength(sessions []models.LearningSession) float64 {
	lengths := lo.FilterMap(sessions, func(s models.LearningSession, _ int) (float64, bool) {
		return float64(s.Minutes()), s.Minutes() > 0
	})
	return Mean(lengths)
}

// StrugglingSubject returns the most frequent subject among assessments scoring below
// threshold. Ties go to the subject encountered first in input order.
func StrugglingSubject(assessments []models.Assessment, threshold float64) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, a := range assessments {
		if a.ScorePercentage == nil || a.Score() >= threshold {
			continue
		}
		if _, seen := counts[a.Subject]; !seen {
			order = append(order, a.Subject)
		}
		counts[a.Subject]++
	}

	best, bestCount := "", 0
	for _, subject := range order {
		if counts[subject] > bestCount {
			best, bestCount = subject, counts[subject]
		}
	}
	return best, bestCount > 0
}

// BestAssessment returns the highest scoring graded assessment, the first on ties.
func BestAssessment(assessments []models.Assessment) (models.Assessment, bool) {
	graded := lo.Filter(assessments, func(a models.Assessment, _ int) bool { return a.ScorePercentage != nil })
	if len(graded) == 0 {
		return models.Assessment{}, false
	}
	return lo.MaxBy(graded, func(a, b models.Assessment) bool { return a.Score() > b.Score() }), true
}
