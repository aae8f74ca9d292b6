package services

import (
	"encoding/json"
	"fmt"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/scoring"

	"github.com/samber/lo"
	"gorm.io/datatypes"
)

// Lookback and thresholds used by the recommendation rules.
const (
	recommendationLookbackDays = 30
	lowActivitySessions        = 10
	strugglingScore            = 70.0
	excellentScore             = 90.0
	intensiveStudyMinutes      = 600
	intensiveGoalFactor        = 1.5
	minimumSuggestedRating     = 4.0
)

// contentQuery selects the single best catalog item for a rule.
type contentQuery struct {
	Subject     string
	Difficulty  models.Difficulty
	ContentType models.ContentType
	MinRating   *float64
}

// contentFinder returns the best active item matching q, or nil when none does.
type contentFinder func(q contentQuery) (*models.Content, error)

// recommendationInputs is the user's recent history, newest first.
type recommendationInputs struct {
	User         models.User
	Sessions     []models.LearningSession
	Assessments  []models.Assessment
	Interactions []models.ContentInteraction
}

type recommendationRule func(in recommendationInputs, find contentFinder, now time.Time) (*models.Recommendation, error)

// recommendationRules are evaluated independently of each other, in this order.
var recommendationRules = []recommendationRule{
	consistencyRule,
	fundamentalsRule,
	challengeRule,
	wellnessRule,
	diversityRule,
}

// evaluateRecommendationRules returns the recommendations every rule emits, in rule order.
func evaluateRecommendationRules(in recommendationInputs, find contentFinder, now time.Time) ([]models.Recommendation, error) {
	var out []models.Recommendation
	for _, rule := range recommendationRules {
		rec, err := rule(in, find, now)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func consistencyRule(in recommendationInputs, _ contentFinder, now time.Time) (*models.Recommendation, error) {
	if len(in.Sessions) >= lowActivitySessions {
		return nil, nil
	}

	studyTime := models.TimeOfDayMorning
	if in.User.PreferredStudyTime != nil {
		studyTime = *in.User.PreferredStudyTime
	}
	rec := newRecommendation(in.User.ID, now, models.Recommendation{
		RecommendationType:   models.RecommendationTypeStudyPlan,
		Title:                "Build a Consistent Study Habit",
		Description:          "Based on your recent activity, establishing a regular study routine could significantly improve your learning outcomes. Start with just 20 minutes per day.",
		Priority:             models.PriorityHigh,
		Category:             "habit",
		EstimatedTimeMinutes: ptr(20),
		DifficultyLevel:      ptr(models.DifficultyEasy),
		Reasoning:            "User has low study frequency in the past 30 days. Consistency is key for effective learning.",
		ConfidenceScore:      0.85,
		TriggerEvent:         ptr("low_activity"),
	}, 7, map[string]interface{}{
		"recent_sessions":     len(in.Sessions),
		"optimal_time_of_day": studyTime,
	})
	return &rec, nil
}

func fundamentalsRule(in recommendationInputs, find contentFinder, now time.Time) (*models.Recommendation, error) {
	subject, ok := scoring.StrugglingSubject(in.Assessments, strugglingScore)
	if !ok {
		return nil, nil
	}

	content, err := find(contentQuery{
		Subject:    subject,
		Difficulty: models.DifficultyEasy,
		MinRating:  ptr(minimumSuggestedRating),
	})
	if err != nil || content == nil {
		return nil, err
	}

	rec := newRecommendation(in.User.ID, now, models.Recommendation{
		RecommendationType:   models.RecommendationTypeContent,
		Title:                fmt.Sprintf("Review Fundamentals in %s", subject),
		Description:          fmt.Sprintf("Your recent assessments show you might benefit from reviewing basic concepts in %s. Try this highly-rated content: '%s'", subject, content.Title),
		Priority:             models.PriorityHigh,
		Category:             "subject",
		TargetContentID:      &content.ID,
		EstimatedTimeMinutes: content.EstimatedDurationMinutes,
		DifficultyLevel:      ptr(models.DifficultyEasy),
		Reasoning:            fmt.Sprintf("User scored below 70%% in recent %s assessments. Recommending foundational content.", subject),
		ConfidenceScore:      0.80,
		TriggerEvent:         ptr("low_assessment_score"),
	}, 14, map[string]interface{}{"subject": subject})
	return &rec, nil
}

func challengeRule(in recommendationInputs, find contentFinder, now time.Time) (*models.Recommendation, error) {
	best, ok := scoring.BestAssessment(in.Assessments)
	if !ok || best.Score() < excellentScore {
		return nil, nil
	}

	content, err := find(contentQuery{Subject: best.Subject, Difficulty: models.DifficultyHard})
	if err != nil || content == nil {
		return nil, err
	}

	rec := newRecommendation(in.User.ID, now, models.Recommendation{
		RecommendationType:   models.RecommendationTypeContent,
		Title:                fmt.Sprintf("Challenge Yourself in %s", best.Subject),
		Description:          fmt.Sprintf("Great job scoring %.0f%% in %s! Ready for a bigger challenge? Try this advanced content.", best.Score(), best.Subject),
		Priority:             models.PriorityMedium,
		Category:             "skill",
		TargetContentID:      &content.ID,
		EstimatedTimeMinutes: content.EstimatedDurationMinutes,
		DifficultyLevel:      ptr(models.DifficultyHard),
		Reasoning:            fmt.Sprintf("User performing excellently in %s. Ready for advanced material.", best.Subject),
		ConfidenceScore:      0.75,
		TriggerEvent:         ptr("high_assessment_score"),
	}, 21, map[string]interface{}{"subject": best.Subject, "best_score": best.Score()})
	return &rec, nil
}

func wellnessRule(in recommendationInputs, _ contentFinder, now time.Time) (*models.Recommendation, error) {
	total := scoring.TotalMinutes(in.Sessions)
	if total <= intensiveStudyMinutes {
		return nil, nil
	}
	dailyAverage := float64(total) / recommendationLookbackDays
	if dailyAverage <= float64(in.User.DailyStudyGoalMinutes)*intensiveGoalFactor {
		return nil, nil
	}

	rec := newRecommendation(in.User.ID, now, models.Recommendation{
		RecommendationType:   models.RecommendationTypeBreak,
		Title:                "Take a Well-Deserved Break",
		Description:          "You've been studying hard lately! Consider taking a short break to avoid burnout. A 15-minute walk or meditation can help consolidate learning.",
		Priority:             models.PriorityMedium,
		Category:             "wellness",
		EstimatedTimeMinutes: ptr(15),
		Reasoning:            "User has been studying intensively. Break recommended to prevent burnout.",
		ConfidenceScore:      0.70,
		TriggerEvent:         ptr("intensive_study"),
	}, 3, map[string]interface{}{
		"total_minutes": total,
		"daily_average": scoring.Round2(dailyAverage),
	})
	return &rec, nil
}

func diversityRule(in recommendationInputs, find contentFinder, now time.Time) (*models.Recommendation, error) {
	withContent := lo.Filter(in.Interactions, func(i models.ContentInteraction, _ int) bool { return i.Content != nil })
	types := lo.Uniq(lo.Map(withContent, func(i models.ContentInteraction, _ int) models.ContentType {
		return i.Content.ContentType
	}))
	if len(types) != 1 || !types[0].IsTextBased() {
		return nil, nil
	}

	content, err := find(contentQuery{ContentType: models.ContentTypeVideo, MinRating: ptr(minimumSuggestedRating)})
	if err != nil || content == nil {
		return nil, err
	}

	rec := newRecommendation(in.User.ID, now, models.Recommendation{
		RecommendationType:   models.RecommendationTypeContent,
		Title:                "Try Video-Based Learning",
		Description:          "You've been engaging mostly with text content. Visual learners often benefit from video content. Try this popular video!",
		Priority:             models.PriorityLow,
		Category:             "learning_style",
		TargetContentID:      &content.ID,
		EstimatedTimeMinutes: content.EstimatedDurationMinutes,
		Reasoning:            "User shows preference for text content. Recommending content type diversification.",
		ConfidenceScore:      0.65,
		TriggerEvent:         ptr("single_content_type"),
	}, 30, map[string]interface{}{"content_type": types[0]})
	return &rec, nil
}

func newRecommendation(userID int, now time.Time, rec models.Recommendation, expiresInDays int, context map[string]interface{}) models.Recommendation {
	rec.UserID = userID
	rec.Status = models.RecommendationStatusActive
	rec.ExpiresAt = ptr(now.AddDate(0, 0, expiresInDays))
	if data, err := json.Marshal(context); err == nil {
		rec.ContextData = datatypes.JSON(data)
	}
	return rec
}
