package services

import (
	"context"
	"fmt"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/observability"
	"learnapp/internal/scoring"
	"learnapp/internal/userlock"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressServiceInterface defines progress, achievement and trend operations.
type ProgressServiceInterface interface {
	SubjectsProgress(ctx context.Context, userID int) ([]models.Progress, error)
	SubjectProgress(ctx context.Context, userID int, subject string) ([]models.Progress, error)
	Dashboard(ctx context.Context, userID int) (*ProgressDashboard, error)
	Achievements(ctx context.Context, userID int, unlockedOnly bool) ([]models.Achievement, error)
	CheckAchievements(ctx context.Context, userID int) (*AchievementCheckResult, error)
	Trends(ctx context.Context, userID, days int, subject string) (*ProgressTrends, error)
}

// OverallStats is the headline of the progress dashboard.
type OverallStats struct {
	TotalSubjects    int     `json:"total_subjects"`
	MasteredSubjects int     `json:"mastered_subjects"`
	AverageMastery   float64 `json:"average_mastery"`
	TotalStudyTime   int     `json:"total_study_time"`
	CurrentStreak    int     `json:"current_streak"`
}

// TopicProgress is one topic row inside SubjectProgressSummary.
type TopicProgress struct {
	Topic           string  `json:"topic"`
	MasteryScore    float64 `json:"mastery_score"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NeedsReview     bool    `json:"needs_review"`
}

// SubjectProgressSummary groups progress rows of one subject.
type SubjectProgressSummary struct {
	Subject        string          `json:"subject"`
	Topics         []TopicProgress `json:"topics"`
	OverallMastery float64         `json:"overall_mastery"`
	TimeSpent      int             `json:"time_spent"`
	IsStruggling   bool            `json:"is_struggling"`
}

// AchievementSummary is the dashboard view of an unlocked achievement.
type AchievementSummary struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	BadgeIcon     *string    `json:"badge_icon"`
	PointsAwarded int        `json:"points_awarded"`
	UnlockedAt    *time.Time `json:"unlocked_at"`
}

// StrugglingArea is a progress row that needs attention.
type StrugglingArea struct {
	Subject           string  `json:"subject"`
	Topic             *string `json:"topic"`
	MasteryScore      float64 `json:"mastery_score"`
	ConfidenceLevel   float64 `json:"confidence_level"`
	RecommendedAction string  `json:"recommended_action"`
}

// ProgressDashboard is the rollup of all progress records of a user.
type ProgressDashboard struct {
	OverallStats               OverallStats             `json:"overall_stats"`
	SubjectProgress            []SubjectProgressSummary `json:"subject_progress"`
	RecentAchievements         []AchievementSummary     `json:"recent_achievements"`
	StrugglingAreas            []StrugglingArea         `json:"struggling_areas"`
	ImprovementRecommendations []string                 `json:"improvement_recommendations"`
}

// AchievementCheckResult reports how many achievements a check unlocked.
type AchievementCheckResult struct {
	Message              string `json:"message"`
	AchievementsUnlocked int    `json:"achievements_unlocked"`
}

// TrendSummary summarises daily trends.
type TrendSummary struct {
	TotalStudyTime      int     `json:"total_study_time"`
	TotalSessions       int     `json:"total_sessions"`
	AverageDailyTime    float64 `json:"average_daily_time"`
	TimeTrendPercentage float64 `json:"time_trend_percentage"`
	MostActiveDay       *string `json:"most_active_day"`
}

// ProgressTrends are daily rollups of sessions over a window.
type ProgressTrends struct {
	PeriodDays    int                  `json:"period_days"`
	SubjectFilter *string              `json:"subject_filter"`
	DailyTrends   []scoring.DailyTrend `json:"daily_trends"`
	Summary       TrendSummary         `json:"summary"`
}

const (
	generalTopic               = "General"
	recentAchievementDays      = 30
	recentAchievementLimit     = 5
	strugglingAreaLimit        = 5
	improvementRecommendations = 3
	strugglingMasteryCutoff    = 60.0
	fundamentalsMasteryCutoff  = 50.0
)

// ProgressService reads progress records and runs the achievement unlock engine.
type ProgressService struct {
	db     *gorm.DB
	locker userlock.Locker
	logger *observability.Logger
	now    func() time.Time
}

// NewProgressServiceWithLogger creates a new ProgressService instance with logger
func NewProgressServiceWithLogger(db *gorm.DB, locker userlock.Locker, logger *observability.Logger) *ProgressService {
	return &ProgressService{
		db:     db,
		locker: locker,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SubjectsProgress returns every progress record of the user, highest mastery first.
func (s *ProgressService) SubjectsProgress(ctx context.Context, userID int) (result0 []models.Progress, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "subjects_progress", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	return s.progressRecords(s.db.WithContext(ctx), userID, "")
}

// SubjectProgress returns the user's progress records for one subject.
func (s *ProgressService) SubjectProgress(ctx context.Context, userID int, subject string) (result0 []models.Progress, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "subject_progress",
		observability.AttributeUserID(userID), observability.AttributeSubject(subject))
	defer observability.FinishSpan(span, &err)

	return s.progressRecords(s.db.WithContext(ctx), userID, subject)
}

func (s *ProgressService) progressRecords(db *gorm.DB, userID int, subject string) ([]models.Progress, error) {
	query := db.Where("user_id = ?", userID)
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	records := []models.Progress{}
	if err := query.Order("mastery_score DESC, id").Find(&records).Error; err != nil {
		return nil, translateError(err, "progress")
	}
	return records, nil
}

// Dashboard rolls up all progress records with recent achievements.
func (s *ProgressService) Dashboard(ctx context.Context, userID int) (result0 *ProgressDashboard, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "dashboard", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	var records []models.Progress
	if err := db.Where("user_id = ?", userID).Order("id").Find(&records).Error; err != nil {
		return nil, translateError(err, "progress")
	}

	var recent []models.Achievement
	if len(records) > 0 {
		if err := db.Where("user_id = ? AND is_unlocked = ? AND unlocked_at >= ?",
			userID, true, windowStart(s.now(), recentAchievementDays)).
			Order("unlocked_at DESC").Limit(recentAchievementLimit).
			Find(&recent).Error; err != nil {
			return nil, translateError(err, "achievement")
		}
	}

	return buildProgressDashboard(records, recent), nil
}

func buildProgressDashboard(records []models.Progress, recent []models.Achievement) *ProgressDashboard {
	out := &ProgressDashboard{
		SubjectProgress:            []SubjectProgressSummary{},
		RecentAchievements:         []AchievementSummary{},
		StrugglingAreas:            []StrugglingArea{},
		ImprovementRecommendations: []string{},
	}
	if len(records) == 0 {
		return out
	}

	out.OverallStats = OverallStats{
		TotalSubjects:    len(lo.Uniq(lo.Map(records, func(p models.Progress, _ int) string { return p.Subject }))),
		MasteredSubjects: lo.CountBy(records, func(p models.Progress) bool { return p.IsMastered }),
		AverageMastery:   scoring.Round2(scoring.Mean(lo.Map(records, func(p models.Progress, _ int) float64 { return p.MasteryScore }))),
		TotalStudyTime:   lo.SumBy(records, func(p models.Progress) int { return p.TimeSpentMinutes }),
		CurrentStreak:    lo.Max(lo.Map(records, func(p models.Progress, _ int) int { return p.StreakDays })),
	}

	bySubject := lo.GroupBy(records, func(p models.Progress) string { return p.Subject })
	for _, subject := range lo.Uniq(lo.Map(records, func(p models.Progress, _ int) string { return p.Subject })) {
		group := bySubject[subject]
		summary := SubjectProgressSummary{
			Subject:        subject,
			OverallMastery: scoring.Mean(lo.Map(group, func(p models.Progress, _ int) float64 { return p.MasteryScore })),
			TimeSpent:      lo.SumBy(group, func(p models.Progress) int { return p.TimeSpentMinutes }),
			IsStruggling:   lo.SomeBy(group, func(p models.Progress) bool { return p.IsStruggling }),
		}
		summary.Topics = lo.Map(group, func(p models.Progress, _ int) TopicProgress {
			topic := generalTopic
			if p.Topic != nil && *p.Topic != "" {
				topic = *p.Topic
			}
			return TopicProgress{
				Topic:           topic,
				MasteryScore:    p.MasteryScore,
				ConfidenceLevel: p.ConfidenceLevel,
				NeedsReview:     p.NeedsReview,
			}
		})
		out.SubjectProgress = append(out.SubjectProgress, summary)
	}

	out.RecentAchievements = lo.Map(recent, func(a models.Achievement, _ int) AchievementSummary {
		return AchievementSummary{
			Title:         a.Title,
			Description:   a.Description,
			BadgeIcon:     a.BadgeIcon,
			PointsAwarded: a.PointsAwarded,
			UnlockedAt:    a.UnlockedAt,
		}
	})

	struggling := lo.FilterMap(records, func(p models.Progress, _ int) (StrugglingArea, bool) {
		action := "Additional practice needed"
		if p.MasteryScore < fundamentalsMasteryCutoff {
			action = "Review fundamentals"
		}
		return StrugglingArea{
			Subject:           p.Subject,
			Topic:             p.Topic,
			MasteryScore:      p.MasteryScore,
			ConfidenceLevel:   p.ConfidenceLevel,
			RecommendedAction: action,
		}, p.IsStruggling || p.MasteryScore < strugglingMasteryCutoff
	})
	out.StrugglingAreas = lo.Slice(struggling, 0, strugglingAreaLimit)
	out.ImprovementRecommendations = lo.Map(lo.Slice(struggling, 0, improvementRecommendations),
		func(a StrugglingArea, _ int) string { return "Focus on struggling areas in " + a.Subject })
	return out
}

// Achievements lists the user's achievements, unlocked and most recent first.
func (s *ProgressService) Achievements(ctx context.Context, userID int, unlockedOnly bool) (result0 []models.Achievement, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "achievements",
		observability.AttributeUserID(userID), attribute.Bool("achievements.unlocked_only", unlockedOnly))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unlockedOnly {
		query = query.Where("is_unlocked = ?", true)
	}
	achievements := []models.Achievement{}
	if err := query.Order("is_unlocked DESC, unlocked_at DESC NULLS LAST, points_awarded DESC, id").
		Find(&achievements).Error; err != nil {
		return nil, translateError(err, "achievement")
	}
	return achievements, nil
}

// CheckAchievements unlocks every newly reached milestone. Inserts ignore milestones
// already recorded, so repeated checks unlock each achievement once.
func (s *ProgressService) CheckAchievements(ctx context.Context, userID int) (result0 *AchievementCheckResult, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "check_achievements", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	unlockedCount := 0
	err = s.locker.Do(ctx, userlock.Key("achievements", userID), func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			inputs, err := s.achievementInputs(tx, userID)
			if err != nil {
				return err
			}

			for _, achievement := range EarnedAchievements(userID, inputs, s.now()) {
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&achievement)
				if res.Error != nil {
					return translateError(res.Error, "achievement")
				}
				unlockedCount += int(res.RowsAffected)
			}
			return nil
		})
	})
	if err != nil {
		return nil, translateError(err, "achievement")
	}

	span.SetAttributes(attribute.Int("achievements.unlocked", unlockedCount))
	observability.RecordAchievementsUnlocked(ctx, unlockedCount)
	if unlockedCount > 0 {
		s.logger.Info(ctx, "Achievements unlocked", map[string]interface{}{
			"user_id":  userID,
			"unlocked": unlockedCount,
		})
	}

	return &AchievementCheckResult{
		Message:              fmt.Sprintf("Checked achievements. %d new achievements unlocked!", unlockedCount),
		AchievementsUnlocked: unlockedCount,
	}, nil
}

func (s *ProgressService) achievementInputs(db *gorm.DB, userID int) (AchievementInputs, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return AchievementInputs{}, translateError(err, "user")
	}

	var aggregates struct {
		MaxStreak int
		Mastered  int
	}
	if err := db.Model(&models.Progress{}).
		Select("COALESCE(MAX(streak_days), 0) AS max_streak, COUNT(*) FILTER (WHERE is_mastered) AS mastered").
		Where("user_id = ?", userID).
		Scan(&aggregates).Error; err != nil {
		return AchievementInputs{}, translateError(err, "progress")
	}

	return AchievementInputs{
		MaxStreakDays:     aggregates.MaxStreak,
		TotalStudyMinutes: user.TotalStudyTimeMinutes,
		AverageScore:      user.AverageScore,
		MasteredSubjects:  aggregates.Mastered,
	}, nil
}

// Trends returns daily session rollups over the last days, optionally for one subject.
func (s *ProgressService) Trends(ctx context.Context, userID, days int, subject string) (result0 *ProgressTrends, err error) {
	ctx, span := observability.TraceProgressFunction(ctx, "trends",
		observability.AttributeUserID(userID), observability.AttributeDays(days), observability.AttributeSubject(subject))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).
		Where("user_id = ? AND start_time >= ?", userID, windowStart(s.now(), days))
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	var sessions []models.LearningSession
	if err := query.Order("start_time").Find(&sessions).Error; err != nil {
		return nil, translateError(err, "learning session")
	}

	out := buildProgressTrends(sessions, days)
	if subject != "" {
		out.SubjectFilter = &subject
	}
	return out, nil
}

func buildProgressTrends(sessions []models.LearningSession, days int) *ProgressTrends {
	daily := scoring.DailyTrends(sessions)
	out := &ProgressTrends{
		PeriodDays:  days,
		DailyTrends: daily,
		Summary: TrendSummary{
			TotalStudyTime:      scoring.TotalMinutes(sessions),
			TotalSessions:       len(sessions),
			TimeTrendPercentage: scoring.Round2(scoring.WeekOverWeekTimeTrend(daily)),
		},
	}
	if len(daily) > 0 {
		out.Summary.AverageDailyTime = float64(out.Summary.TotalStudyTime) / float64(len(daily))
	}
	if day, ok := scoring.MostActiveDay(daily); ok {
		out.Summary.MostActiveDay = &day
	}
	return out
}
