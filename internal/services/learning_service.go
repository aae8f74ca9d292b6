package services

import (
	"context"
	"math"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/observability"
	"learnapp/internal/scoring"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// LearningServiceInterface defines learning session operations.
type LearningServiceInterface interface {
	CreateSession(ctx context.Context, userID int, req CreateSessionRequest) (*models.LearningSession, error)
	ListSessions(ctx context.Context, userID int, filter SessionFilter, page Page) ([]models.LearningSession, error)
	GetSession(ctx context.Context, userID, sessionID int) (*models.LearningSession, error)
	UpdateSession(ctx context.Context, userID, sessionID int, req UpdateSessionRequest) (*models.LearningSession, error)
	CompleteSession(ctx context.Context, userID, sessionID int) (*models.LearningSession, error)
	StudyPlan(ctx context.Context, userID int) (*StudyPlan, error)
	Dashboard(ctx context.Context, userID int) (*LearningDashboard, error)
}

// CreateSessionRequest starts a new learning session.
type CreateSessionRequest struct {
	Subject                string  `json:"subject" binding:"required,min=1,max=128"`
	Topic                  *string `json:"topic" binding:"omitempty,max=255"`
	SessionType            string  `json:"session_type" binding:"required,oneof=study assessment review practice"`
	DifficultyLevel        string  `json:"difficulty_level" binding:"omitempty,oneof=easy medium hard expert"`
	PlannedDurationMinutes int     `json:"planned_duration_minutes" binding:"omitempty,min=1,max=1440"`
}

// UpdateSessionRequest is a partial session update. Completion goes through CompleteSession only.
type UpdateSessionRequest struct {
	EndTime              *time.Time `json:"end_time"`
	CompletionPercentage *float64   `json:"completion_percentage" binding:"omitempty,min=0,max=100"`
	FocusScore           *float64   `json:"focus_score" binding:"omitempty,min=0,max=100"`
	ComprehensionScore   *float64   `json:"comprehension_score" binding:"omitempty,min=0,max=100"`
	ActivitiesCompleted  *int       `json:"activities_completed" binding:"omitempty,min=0"`
	TotalActivities      *int       `json:"total_activities" binding:"omitempty,min=0"`
	Notes                *string    `json:"notes" binding:"omitempty,max=5000"`
}

// SessionFilter narrows ListSessions; empty fields match everything.
type SessionFilter struct {
	Subject     string `form:"subject"`
	SessionType string `form:"session_type"`
}

// PlannedSession is one suggested session of a study plan.
type PlannedSession struct {
	Subject             string            `json:"subject"`
	RecommendedDuration int               `json:"recommended_duration"`
	Difficulty          models.Difficulty `json:"difficulty"`
	SessionType         string            `json:"session_type"`
	Priority            string            `json:"priority"`
}

// ScheduledDay is one day of the weekly schedule.
type ScheduledDay struct {
	Date                string `json:"date"`
	Day                 string `json:"day"`
	RecommendedSessions int    `json:"recommended_sessions"`
	EstimatedDuration   int    `json:"estimated_duration"`
}

// StudyPlan is a personalised plan derived from preferences and recent sessions.
type StudyPlan struct {
	RecommendedSessions []PlannedSession `json:"recommended_sessions"`
	DailyGoalProgress   float64          `json:"daily_goal_progress"`
	WeeklySchedule      []ScheduledDay   `json:"weekly_schedule"`
	NextReviewTopics    []string         `json:"next_review_topics"`
}

// SessionSummary is the dashboard view of a session.
type SessionSummary struct {
	ID                   int       `json:"id"`
	Subject              string    `json:"subject"`
	Topic                *string   `json:"topic"`
	DurationMinutes      *int      `json:"duration_minutes"`
	CompletionPercentage float64   `json:"completion_percentage"`
	StartTime            time.Time `json:"start_time"`
}

// WeeklyStats summarises the last seven days.
type WeeklyStats struct {
	TotalMinutes  int     `json:"total_minutes"`
	TotalSessions int     `json:"total_sessions"`
	DailyAverage  float64 `json:"daily_average"`
	GoalProgress  float64 `json:"goal_progress"`
}

// SubjectDistribution counts sessions and minutes per subject.
type SubjectDistribution struct {
	Subject      string `json:"subject"`
	SessionCount int    `json:"session_count"`
	TotalMinutes int    `json:"total_minutes"`
}

// LearningDashboard is the learning overview for the last week and month.
type LearningDashboard struct {
	RecentSessions      []SessionSummary      `json:"recent_sessions"`
	WeeklyStats         WeeklyStats           `json:"weekly_stats"`
	SubjectDistribution []SubjectDistribution `json:"subject_distribution"`
}

const (
	studyPlanSubjects       = 3
	studyPlanSessionMinutes = 30
	studyPlanReviewTopics   = 5
	studyPlanLookbackDays   = 30
	studyPlanSessionLimit   = 50
	dashboardLookbackDays   = 7
	dashboardSessionLimit   = 10
)

// LearningService manages learning sessions.
type LearningService struct {
	db     *gorm.DB
	logger *observability.Logger
	now    func() time.Time
}

// NewLearningServiceWithLogger creates a new LearningService instance with logger
func NewLearningServiceWithLogger(db *gorm.DB, logger *observability.Logger) *LearningService {
	return &LearningService{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession starts a session at the current time.
func (s *LearningService) CreateSession(ctx context.Context, userID int, req CreateSessionRequest) (result0 *models.LearningSession, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "create_session",
		observability.AttributeUserID(userID), observability.AttributeSubject(req.Subject))
	defer observability.FinishSpan(span, &err)

	difficulty := models.DifficultyMedium
	if req.DifficultyLevel != "" {
		difficulty = models.ParseDifficulty(req.DifficultyLevel)
	}
	planned := req.PlannedDurationMinutes
	if planned <= 0 {
		planned = 60
	}

	session := &models.LearningSession{
		UserID:                 userID,
		Subject:                req.Subject,
		Topic:                  req.Topic,
		SessionType:            models.ParseSessionType(req.SessionType),
		DifficultyLevel:        difficulty,
		StartTime:              s.now(),
		PlannedDurationMinutes: planned,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, translateError(err, "learning session")
	}

	s.logger.Info(ctx, "Learning session created", map[string]interface{}{
		"user_id":    userID,
		"session_id": session.ID,
		"subject":    session.Subject,
	})
	return session, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *LearningService) ListSessions(ctx context.Context, userID int, filter SessionFilter, page Page) (result0 []models.LearningSession, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "list_sessions",
		observability.AttributeUserID(userID), observability.AttributeLimit(page.Limit), observability.AttributeOffset(page.Offset))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.SessionType != "" {
		query = query.Where("session_type = ?", filter.SessionType)
	}

	sessions := []models.LearningSession{}
	if err := page.Normalize(MaxPageLimit).apply(query.Order("start_time DESC, id DESC")).Find(&sessions).Error; err != nil {
		return nil, translateError(err, "learning session")
	}
	return sessions, nil
}

// GetSession returns one of the user's sessions.
func (s *LearningService) GetSession(ctx context.Context, userID, sessionID int) (result0 *models.LearningSession, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "get_session",
		observability.AttributeUserID(userID), observability.AttributeSessionID(sessionID))
	defer observability.FinishSpan(span, &err)

	return s.findSession(s.db.WithContext(ctx), userID, sessionID)
}

func (s *LearningService) findSession(db *gorm.DB, userID, sessionID int) (*models.LearningSession, error) {
	var session models.LearningSession
	if err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		return nil, translateError(err, "learning session")
	}
	return &session, nil
}

// UpdateSession applies the non-nil fields of req. A new end time recomputes the duration.
func (s *LearningService) UpdateSession(ctx context.Context, userID, sessionID int, req UpdateSessionRequest) (result0 *models.LearningSession, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "update_session",
		observability.AttributeUserID(userID), observability.AttributeSessionID(sessionID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	session, err := s.findSession(db, userID, sessionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.EndTime != nil {
		// The duration of a completed session is already credited to the user
		if session.IsCompleted {
			return nil, invalidState("end_time cannot change once the session is completed")
		}
		end := req.EndTime.UTC()
		if end.Before(session.StartTime) {
			return nil, validationFailed("end_time must not be before start_time")
		}
		updates["end_time"] = end
		updates["duration_minutes"] = models.DurationBetween(session.StartTime, end)
	}
	if req.CompletionPercentage != nil {
		updates["completion_percentage"] = *req.CompletionPercentage
	}
	if req.FocusScore != nil {
		updates["focus_score"] = *req.FocusScore
	}
	if req.ComprehensionScore != nil {
		updates["comprehension_score"] = *req.ComprehensionScore
	}
	if req.ActivitiesCompleted != nil {
		updates["activities_completed"] = *req.ActivitiesCompleted
	}
	if req.TotalActivities != nil {
		updates["total_activities"] = *req.TotalActivities
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return session, nil
	}

	query := db.Model(&models.LearningSession{}).Where("id = ? AND user_id = ?", sessionID, userID)
	if req.EndTime != nil {
		query = query.Where("is_completed = ?", false)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return nil, translateError(res.Error, "learning session")
	}
	if res.RowsAffected == 0 {
		return nil, invalidState("end_time cannot change once the session is completed")
	}
	return s.findSession(db, userID, sessionID)
}

// CompleteSession marks the session completed now and credits its duration to the
// user's total study time. Both writes commit together and happen at most once.
func (s *LearningService) CompleteSession(ctx context.Context, userID, sessionID int) (result0 *models.LearningSession, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "complete_session",
		observability.AttributeUserID(userID), observability.AttributeSessionID(sessionID))
	defer observability.FinishSpan(span, &err)

	var completed *models.LearningSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.findSession(tx, userID, sessionID)
		if err != nil {
			return err
		}
		if session.IsCompleted {
			return invalidState("learning session is already completed")
		}

		end := s.now()
		duration := models.DurationBetween(session.StartTime, end)
		res := tx.Model(&models.LearningSession{}).
			Where("id = ? AND user_id = ? AND is_completed = ?", sessionID, userID, false).
			Updates(map[string]interface{}{
				"is_completed":          true,
				"end_time":              end,
				"duration_minutes":      duration,
				"completion_percentage": 100.0,
			})
		if res.Error != nil {
			return translateError(res.Error, "learning session")
		}
		if res.RowsAffected == 0 {
			return invalidState("learning session is already completed")
		}

		if duration > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", userID).
				Update("total_study_time_minutes", gorm.Expr("total_study_time_minutes + ?", duration)).Error; err != nil {
				return translateError(err, "user")
			}
		}

		completed, err = s.findSession(tx, userID, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Learning session completed", map[string]interface{}{
		"user_id":          userID,
		"session_id":       sessionID,
		"duration_minutes": completed.Minutes(),
	})
	return completed, nil
}

// StudyPlan builds a plan from the user's preferences and last 30 days of sessions.
func (s *LearningService) StudyPlan(ctx context.Context, userID int) (result0 *StudyPlan, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "study_plan", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, translateError(err, "user")
	}

	now := s.now()
	var recent []models.LearningSession
	if err := db.Where("user_id = ? AND start_time >= ?", userID, windowStart(now, studyPlanLookbackDays)).
		Order("start_time DESC").Limit(studyPlanSessionLimit).
		Find(&recent).Error; err != nil {
		return nil, translateError(err, "learning session")
	}

	return buildStudyPlan(user, recent, now), nil
}

func buildStudyPlan(user models.User, recent []models.LearningSession, now time.Time) *StudyPlan {
	today := scoring.StartOfDay(now)
	todayMinutes := scoring.TotalMinutes(lo.Filter(recent, func(s models.LearningSession, _ int) bool {
		return scoring.StartOfDay(s.StartTime).Equal(today)
	}))

	plan := &StudyPlan{
		RecommendedSessions: []PlannedSession{},
		DailyGoalProgress:   goalProgress(todayMinutes, user.DailyStudyGoalMinutes),
		WeeklySchedule:      make([]ScheduledDay, 0, 7),
	}

	for _, subject := range lo.Slice([]string(user.SubjectsOfInterest), 0, studyPlanSubjects) {
		plan.RecommendedSessions = append(plan.RecommendedSessions, PlannedSession{
			Subject:             subject,
			RecommendedDuration: studyPlanSessionMinutes,
			Difficulty:          user.PreferredDifficulty,
			SessionType:         string(models.SessionTypeStudy),
			Priority:            string(models.PriorityMedium),
		})
	}

	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, i)
		plan.WeeklySchedule = append(plan.WeeklySchedule, ScheduledDay{
			Date:                day.Format(scoring.DateLayout),
			Day:                 day.Weekday().String(),
			RecommendedSessions: 2,
			EstimatedDuration:   user.DailyStudyGoalMinutes,
		})
	}

	topics := lo.FilterMap(recent, func(s models.LearningSession, _ int) (string, bool) {
		return s.TopicOr(""), s.IsCompleted && s.TopicOr("") != ""
	})
	plan.NextReviewTopics = lo.Slice(lo.Uniq(topics), 0, studyPlanReviewTopics)
	return plan
}

// goalProgress is minutes as a percentage of goal, capped at 100.
func goalProgress(minutes, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(float64(minutes)/float64(goal)*100, 100)
}

// Dashboard returns the last week's sessions and stats with a 30-day subject distribution.
func (s *LearningService) Dashboard(ctx context.Context, userID int) (result0 *LearningDashboard, err error) {
	ctx, span := observability.TraceLearningFunction(ctx, "dashboard", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, translateError(err, "user")
	}

	now := s.now()
	var recent []models.LearningSession
	if err := db.Where("user_id = ? AND start_time >= ?", userID, windowStart(now, dashboardLookbackDays)).
		Order("start_time DESC").Limit(dashboardSessionLimit).
		Find(&recent).Error; err != nil {
		return nil, translateError(err, "learning session")
	}

	distribution := []SubjectDistribution{}
	if err := db.Model(&models.LearningSession{}).
		Select("subject, COUNT(id) AS session_count, COALESCE(SUM(duration_minutes), 0) AS total_minutes").
		Where("user_id = ? AND start_time >= ?", userID, windowStart(now, studyPlanLookbackDays)).
		Group("subject").Order("subject").
		Scan(&distribution).Error; err != nil {
		return nil, translateError(err, "learning session")
	}

	weekMinutes := scoring.TotalMinutes(recent)
	span.SetAttributes(attribute.Int("learning.week_minutes", weekMinutes))

	return &LearningDashboard{
		RecentSessions: lo.Map(recent, func(s models.LearningSession, _ int) SessionSummary {
			return SessionSummary{
				ID:                   s.ID,
				Subject:              s.Subject,
				Topic:                s.Topic,
				DurationMinutes:      s.DurationMinutes,
				CompletionPercentage: s.CompletionPercentage,
				StartTime:            s.StartTime,
			}
		}),
		WeeklyStats: WeeklyStats{
			TotalMinutes:  weekMinutes,
			TotalSessions: len(recent),
			DailyAverage:  float64(weekMinutes) / 7,
			GoalProgress:  goalProgress(weekMinutes, user.DailyStudyGoalMinutes*7),
		},
		SubjectDistribution: distribution,
	}, nil
}
