package services

import (
	"context"
	"sort"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/observability"
	"learnapp/internal/scoring"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Performance trend metrics.
const (
	MetricScore      = "score"
	MetricStudyTime  = "study_time"
	MetricCompletion = "completion"
)

// AnalyticsServiceInterface defines cross-domain reporting over a lookback window.
type AnalyticsServiceInterface interface {
	Overview(ctx context.Context, userID, days int) (*AnalyticsOverview, error)
	Subjects(ctx context.Context, userID, days int) (*SubjectAnalyticsReport, error)
	PerformanceTrends(ctx context.Context, userID, days int, metric string) (*PerformanceTrends, error)
	LearningPatterns(ctx context.Context, userID, days int) (*LearningPatternsReport, error)
	ContentEngagement(ctx context.Context, userID, days int) (*ContentEngagementReport, error)
	RecommendationsEffectiveness(ctx context.Context, userID, days int) (*RecommendationImpactReport, error)
}

// OverviewTotals are the headline totals of the overview.
type OverviewTotals struct {
	TotalStudyTimeMinutes int     `json:"total_study_time_minutes"`
	TotalSessions         int     `json:"total_sessions"`
	TotalAssessments      int     `json:"total_assessments"`
	AverageScore          float64 `json:"average_score"`
	SubjectsStudied       int     `json:"subjects_studied"`
	ContentInteractions   int     `json:"content_interactions"`
	StreakDays            int     `json:"streak_days"`
	ImprovementRate       float64 `json:"improvement_rate"`
}

// DailyAverages divide the window totals by its length in days.
type DailyAverages struct {
	StudyTimeMinutes float64 `json:"study_time_minutes"`
	Sessions         float64 `json:"sessions"`
	Assessments      float64 `json:"assessments"`
}

// AnalyticsOverview is the overview report.
type AnalyticsOverview struct {
	PeriodDays   int            `json:"period_days"`
	Overview     OverviewTotals `json:"overview"`
	DailyAverage DailyAverages  `json:"daily_average"`
}

// SubjectAnalytics combines sessions, assessments and progress for one subject.
type SubjectAnalytics struct {
	Subject           string  `json:"subject"`
	StudyTimeMinutes  int     `json:"study_time_minutes"`
	SessionsCount     int     `json:"sessions_count"`
	AverageCompletion float64 `json:"average_completion"`
	AssessmentsCount  int     `json:"assessments_count"`
	AverageScore      float64 `json:"average_score"`
	MasteryLevel      float64 `json:"mastery_level"`
	ImprovementTrend  float64 `json:"improvement_trend"`
}

// SubjectAnalyticsReport lists per-subject analytics.
type SubjectAnalyticsReport struct {
	PeriodDays int                `json:"period_days"`
	Subjects   []SubjectAnalytics `json:"subjects"`
}

// TrendPoint is one observation of a trend metric.
type TrendPoint struct {
	Date    string  `json:"date"`
	Value   float64 `json:"value"`
	Subject string  `json:"subject"`
	Type    string  `json:"type"`
}

// MetricTrendSummary compares the two halves of a trend series.
type MetricTrendSummary struct {
	Direction        scoring.TrendDirection `json:"direction"`
	PercentageChange float64                `json:"percentage_change"`
	TotalDataPoints  int                    `json:"total_data_points"`
}

// PerformanceTrends is a time-ordered series of one metric with its summary.
type PerformanceTrends struct {
	PeriodDays   int                `json:"period_days"`
	Metric       string             `json:"metric"`
	TrendData    []TrendPoint       `json:"trend_data"`
	TrendSummary MetricTrendSummary `json:"trend_summary"`
}

// LearningPatterns describes when and what the user studies.
type LearningPatterns struct {
	MostProductiveTime   string                 `json:"most_productive_time"`
	AverageSessionLength float64                `json:"average_session_length"`
	PreferredSubjects    []scoring.SubjectTotal `json:"preferred_subjects"`
	StudyConsistency     float64                `json:"study_consistency"`
	WeeklyPattern        []scoring.WeekdayTotal `json:"weekly_pattern"`
	TotalSessions        int                    `json:"total_sessions"`
	TotalStudyDays       int                    `json:"total_study_days"`
}

// LearningPatternsReport wraps LearningPatterns with its window.
type LearningPatternsReport struct {
	PeriodDays int              `json:"period_days"`
	Patterns   LearningPatterns `json:"patterns"`
}

// ContentTypeEngagement is the engagement with one content type.
type ContentTypeEngagement struct {
	Type             models.ContentType `json:"type"`
	Interactions     int                `json:"interactions"`
	CompletionRate   float64            `json:"completion_rate"`
	TotalTimeMinutes float64            `json:"total_time_minutes"`
	AverageRating    float64            `json:"average_rating"`
}

// EngagementSummary aggregates interactions across content types.
type EngagementSummary struct {
	TotalInteractions        int                     `json:"total_interactions"`
	CompletedContent         int                     `json:"completed_content"`
	OverallCompletionRate    float64                 `json:"overall_completion_rate"`
	TotalEngagementTimeHours float64                 `json:"total_engagement_time_hours"`
	ContentTypes             []ContentTypeEngagement `json:"content_types"`
	FavoriteContentTypes     []ContentTypeEngagement `json:"favorite_content_types"`
}

// ContentEngagementReport wraps EngagementSummary with its window.
type ContentEngagementReport struct {
	PeriodDays int               `json:"period_days"`
	Engagement EngagementSummary `json:"engagement"`
}

// TypePerformance is the response to one recommendation type.
type TypePerformance struct {
	Type              models.RecommendationType `json:"type"`
	Total             int                       `json:"total"`
	AcceptanceRate    float64                   `json:"acceptance_rate"`
	CompletionRate    float64                   `json:"completion_rate"`
	AverageConfidence float64                   `json:"average_confidence"`
}

// RecommendationImpact scores how useful recommendations were to the user.
type RecommendationImpact struct {
	TotalRecommendations int               `json:"total_recommendations"`
	ViewedCount          int               `json:"viewed_count"`
	AcceptanceRate       float64           `json:"acceptance_rate"`
	CompletionRate       float64           `json:"completion_rate"`
	TypePerformance      []TypePerformance `json:"type_performance"`
	ImpactScore          float64           `json:"impact_score"`
}

// RecommendationImpactReport wraps RecommendationImpact with its window.
type RecommendationImpactReport struct {
	PeriodDays    int                  `json:"period_days"`
	Effectiveness RecommendationImpact `json:"effectiveness"`
}

const (
	noPatternData          = "No data"
	preferredSubjectsLimit = 3
	favoriteTypesLimit     = 3
	impactAcceptanceWeight = 0.4
	impactCompletionWeight = 0.6
)

// AnalyticsService computes reports over a user's recent records.
type AnalyticsService struct {
	db     *gorm.DB
	logger *observability.Logger
	now    func() time.Time
}

// NewAnalyticsServiceWithLogger creates a new AnalyticsService instance with logger
func NewAnalyticsServiceWithLogger(db *gorm.DB, logger *observability.Logger) *AnalyticsService {
	return &AnalyticsService{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func sessionsSince(db *gorm.DB, userID int, since time.Time) ([]models.LearningSession, error) {
	var sessions []models.LearningSession
	if err := db.Where("user_id = ? AND start_time >= ?", userID, since).
		Order("start_time, id").Find(&sessions).Error; err != nil {
		return nil, translateError(err, "learning session")
	}
	return sessions, nil
}

func completedAssessmentsSince(db *gorm.DB, userID int, since time.Time) ([]models.Assessment, error) {
	var assessments []models.Assessment
	if err := db.Where("user_id = ? AND is_completed = ? AND created_at >= ?", userID, true, since).
		Order("created_at, id").Find(&assessments).Error; err != nil {
		return nil, translateError(err, "assessment")
	}
	return assessments, nil
}

// Overview reports headline totals over the last days. The independent queries run concurrently.
func (s *AnalyticsService) Overview(ctx context.Context, userID, days int) (result0 *AnalyticsOverview, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "overview",
		observability.AttributeUserID(userID), observability.AttributeDays(days))
	defer observability.FinishSpan(span, &err)

	since := windowStart(s.now(), days)
	var (
		user         models.User
		sessions     []models.LearningSession
		assessments  []models.Assessment
		interactions int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return translateError(s.db.WithContext(gctx).First(&user, userID).Error, "user")
	})
	g.Go(func() (err error) {
		sessions, err = sessionsSince(s.db.WithContext(gctx), userID, since)
		return err
	})
	g.Go(func() (err error) {
		assessments, err = completedAssessmentsSince(s.db.WithContext(gctx), userID, since)
		return err
	})
	g.Go(func() error {
		return translateError(s.db.WithContext(gctx).Model(&models.ContentInteraction{}).
			Where("user_id = ? AND start_time >= ?", userID, since).
			Count(&interactions).Error, "content interaction")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildOverview(days, user, sessions, assessments, int(interactions)), nil
}

func buildOverview(days int, user models.User, sessions []models.LearningSession, assessments []models.Assessment, interactions int) *AnalyticsOverview {
	scores := scoring.CompletedScores(assessments)
	totalMinutes := scoring.TotalMinutes(sessions)

	out := &AnalyticsOverview{
		PeriodDays: days,
		Overview: OverviewTotals{
			TotalStudyTimeMinutes: totalMinutes,
			TotalSessions:         len(sessions),
			TotalAssessments:      len(assessments),
			AverageScore:          scoring.Round2(scoring.Mean(scores)),
			SubjectsStudied:       scoring.DistinctSubjects(sessions),
			ContentInteractions:   interactions,
			StreakDays:            user.StreakDays,
			ImprovementRate:       scoring.Round2(scoring.ImprovementRate(scores)),
		},
	}
	if days > 0 {
		out.DailyAverage = DailyAverages{
			StudyTimeMinutes: scoring.Round2(float64(totalMinutes) / float64(days)),
			Sessions:         scoring.Round2(float64(len(sessions)) / float64(days)),
			Assessments:      scoring.Round2(float64(len(assessments)) / float64(days)),
		}
	}
	return out
}

type sessionSubjectStats struct {
	Subject       string
	SessionCount  int
	TotalMinutes  int
	AvgCompletion float64
}

type assessmentSubjectStats struct {
	Subject         string
	AssessmentCount int
	AvgScore        float64
}

type progressSubjectStats struct {
	Subject         string
	Mastery         float64
	ImprovementRate float64
}

// Subjects breaks the window down by subject, joining in current mastery.
func (s *AnalyticsService) Subjects(ctx context.Context, userID, days int) (result0 *SubjectAnalyticsReport, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "subjects",
		observability.AttributeUserID(userID), observability.AttributeDays(days))
	defer observability.FinishSpan(span, &err)

	since := windowStart(s.now(), days)
	var (
		sessionStats    []sessionSubjectStats
		assessmentStats []assessmentSubjectStats
		progressStats   []progressSubjectStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return translateError(s.db.WithContext(gctx).Model(&models.LearningSession{}).
			Select("subject, COUNT(*) AS session_count, COALESCE(SUM(duration_minutes), 0) AS total_minutes, COALESCE(AVG(completion_percentage), 0) AS avg_completion").
			Where("user_id = ? AND start_time >= ?", userID, since).
			Group("subject").Order("subject").
			Scan(&sessionStats).Error, "learning session")
	})
	g.Go(func() error {
		return translateError(s.db.WithContext(gctx).Model(&models.Assessment{}).
			Select("subject, COUNT(*) AS assessment_count, COALESCE(AVG(score_percentage), 0) AS avg_score").
			Where("user_id = ? AND is_completed = ? AND created_at >= ?", userID, true, since).
			Group("subject").Order("subject").
			Scan(&assessmentStats).Error, "assessment")
	})
	g.Go(func() error {
		return translateError(s.db.WithContext(gctx).Model(&models.Progress{}).
			Select("subject, AVG(mastery_score) AS mastery, AVG(improvement_rate) AS improvement_rate").
			Where("user_id = ?", userID).
			Group("subject").
			Scan(&progressStats).Error, "progress")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &SubjectAnalyticsReport{
		PeriodDays: days,
		Subjects:   mergeSubjectAnalytics(sessionStats, assessmentStats, progressStats),
	}, nil
}

// mergeSubjectAnalytics lists subjects with sessions first, then subjects with only
// assessments. Progress only decorates subjects already listed.
func mergeSubjectAnalytics(sessions []sessionSubjectStats, assessments []assessmentSubjectStats, progress []progressSubjectStats) []SubjectAnalytics {
	out := make([]SubjectAnalytics, 0, len(sessions)+len(assessments))
	index := make(map[string]int)

	for _, st := range sessions {
		index[st.Subject] = len(out)
		out = append(out, SubjectAnalytics{
			Subject:           st.Subject,
			StudyTimeMinutes:  st.TotalMinutes,
			SessionsCount:     st.SessionCount,
			AverageCompletion: scoring.Round2(st.AvgCompletion),
		})
	}
	for _, st := range assessments {
		i, ok := index[st.Subject]
		if !ok {
			i = len(out)
			index[st.Subject] = i
			out = append(out, SubjectAnalytics{Subject: st.Subject})
		}
		out[i].AssessmentsCount = st.AssessmentCount
		out[i].AverageScore = scoring.Round2(st.AvgScore)
	}
	for _, st := range progress {
		if i, ok := index[st.Subject]; ok {
			out[i].MasteryLevel = scoring.Round2(st.Mastery)
			out[i].ImprovementTrend = scoring.Round2(st.ImprovementRate)
		}
	}
	return out
}

// PerformanceTrends returns the chosen metric over time with a two-bucket direction.
func (s *AnalyticsService) PerformanceTrends(ctx context.Context, userID, days int, metric string) (result0 *PerformanceTrends, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "performance_trends",
		observability.AttributeUserID(userID), observability.AttributeDays(days), attribute.String("analytics.metric", metric))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	since := windowStart(s.now(), days)

	var points []TrendPoint
	switch metric {
	case MetricScore:
		assessments, err := completedAssessmentsSince(db, userID, since)
		if err != nil {
			return nil, err
		}
		points = scoreTrendPoints(assessments)
	case MetricStudyTime, MetricCompletion:
		sessions, err := sessionsSince(db, userID, since)
		if err != nil {
			return nil, err
		}
		if metric == MetricStudyTime {
			points = studyTimeTrendPoints(sessions)
		} else {
			points = completionTrendPoints(sessions)
		}
	default:
		return nil, validationFailed("metric must be one of score, study_time, completion")
	}

	return buildPerformanceTrends(days, metric, points), nil
}

func scoreTrendPoints(assessments []models.Assessment) []TrendPoint {
	return lo.FilterMap(assessments, func(a models.Assessment, _ int) (TrendPoint, bool) {
		return TrendPoint{
			Date:    a.CreatedAt.Format(scoring.DateLayout),
			Value:   a.Score(),
			Subject: a.Subject,
			Type:    "assessment",
		}, a.ScorePercentage != nil
	})
}

func studyTimeTrendPoints(sessions []models.LearningSession) []TrendPoint {
	return lo.Map(scoring.DailyTrends(sessions), func(d scoring.DailyTrend, _ int) TrendPoint {
		return TrendPoint{Date: d.Date, Value: float64(d.StudyTimeMinutes), Subject: "All", Type: MetricStudyTime}
	})
}

func completionTrendPoints(sessions []models.LearningSession) []TrendPoint {
	return lo.Map(sessions, func(s models.LearningSession, _ int) TrendPoint {
		return TrendPoint{
			Date:    s.StartTime.Format(scoring.DateLayout),
			Value:   s.CompletionPercentage,
			Subject: s.Subject,
			Type:    MetricCompletion,
		}
	})
}

func buildPerformanceTrends(days int, metric string, points []TrendPoint) *PerformanceTrends {
	if points == nil {
		points = []TrendPoint{}
	}
	direction, change := scoring.Trend(lo.Map(points, func(p TrendPoint, _ int) float64 { return p.Value }))
	return &PerformanceTrends{
		PeriodDays: days,
		Metric:     metric,
		TrendData:  points,
		TrendSummary: MetricTrendSummary{
			Direction:        direction,
			PercentageChange: scoring.Round2(change),
			TotalDataPoints:  len(points),
		},
	}
}

// LearningPatterns analyses when and what the user studied over the last days.
func (s *AnalyticsService) LearningPatterns(ctx context.Context, userID, days int) (result0 *LearningPatternsReport, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "learning_patterns",
		observability.AttributeUserID(userID), observability.AttributeDays(days))
	defer observability.FinishSpan(span, &err)

	sessions, err := sessionsSince(s.db.WithContext(ctx), userID, windowStart(s.now(), days))
	if err != nil {
		return nil, err
	}
	return &LearningPatternsReport{PeriodDays: days, Patterns: buildLearningPatterns(sessions, days)}, nil
}

func buildLearningPatterns(sessions []models.LearningSession, days int) LearningPatterns {
	if len(sessions) == 0 {
		return LearningPatterns{
			MostProductiveTime: noPatternData,
			PreferredSubjects:  []scoring.SubjectTotal{},
			WeeklyPattern:      []scoring.WeekdayTotal{},
		}
	}

	productive := noPatternData
	if hour, ok := scoring.MostProductiveHour(sessions); ok {
		productive = scoring.BucketLabel(scoring.BucketForHour(hour))
	}

	subjects := scoring.SubjectTotals(sessions)
	if len(subjects) > preferredSubjectsLimit {
		subjects = subjects[:preferredSubjectsLimit]
	}

	activeDays := scoring.ActiveDays(sessions)
	return LearningPatterns{
		MostProductiveTime:   productive,
		AverageSessionLength: scoring.Round2(scoring.AverageSessionLength(sessions)),
		PreferredSubjects:    subjects,
		StudyConsistency:     scoring.Round2(scoring.ConsistencyScore(activeDays, days)),
		WeeklyPattern:        scoring.WeeklyPattern(sessions),
		TotalSessions:        len(sessions),
		TotalStudyDays:       activeDays,
	}
}

// ContentEngagement breaks the user's content interactions down by content type.
func (s *AnalyticsService) ContentEngagement(ctx context.Context, userID, days int) (result0 *ContentEngagementReport, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "content_engagement",
		observability.AttributeUserID(userID), observability.AttributeDays(days))
	defer observability.FinishSpan(span, &err)

	interactions, err := recentInteractions(s.db.WithContext(ctx), userID, windowStart(s.now(), days))
	if err != nil {
		return nil, err
	}
	return &ContentEngagementReport{PeriodDays: days, Engagement: buildEngagementSummary(interactions)}, nil
}

type typeTally struct {
	count, completed, ratings int
	seconds, ratingSum        float64
}

func buildEngagementSummary(interactions []models.ContentInteraction) EngagementSummary {
	out := EngagementSummary{
		TotalInteractions:    len(interactions),
		ContentTypes:         []ContentTypeEngagement{},
		FavoriteContentTypes: []ContentTypeEngagement{},
	}
	if len(interactions) == 0 {
		return out
	}

	tallies := map[models.ContentType]*typeTally{}
	var order []models.ContentType
	var totalSeconds float64
	for _, i := range interactions {
		if i.Content == nil {
			continue
		}
		t, ok := tallies[i.Content.ContentType]
		if !ok {
			t = &typeTally{}
			tallies[i.Content.ContentType] = t
			order = append(order, i.Content.ContentType)
		}
		t.count++
		if i.IsCompleted {
			t.completed++
			out.CompletedContent++
		}
		t.seconds += i.Seconds()
		totalSeconds += i.Seconds()
		if i.Rating != nil {
			t.ratingSum += float64(*i.Rating)
			t.ratings++
		}
	}

	for _, contentType := range order {
		t := tallies[contentType]
		averageRating := 0.0
		if t.ratings > 0 {
			averageRating = t.ratingSum / float64(t.ratings)
		}
		out.ContentTypes = append(out.ContentTypes, ContentTypeEngagement{
			Type:             contentType,
			Interactions:     t.count,
			CompletionRate:   scoring.Round2(scoring.Percentage(float64(t.completed), float64(t.count))),
			TotalTimeMinutes: scoring.Round2(t.seconds / 60),
			AverageRating:    scoring.Round2(averageRating),
		})
	}
	sort.SliceStable(out.ContentTypes, func(i, j int) bool {
		return out.ContentTypes[i].TotalTimeMinutes > out.ContentTypes[j].TotalTimeMinutes
	})

	out.OverallCompletionRate = scoring.Round2(scoring.Percentage(float64(out.CompletedContent), float64(len(interactions))))
	out.TotalEngagementTimeHours = scoring.Round2(totalSeconds / 3600)
	out.FavoriteContentTypes = out.ContentTypes[:min(favoriteTypesLimit, len(out.ContentTypes))]
	return out
}

// RecommendationsEffectiveness scores recommendations created in the last days.
func (s *AnalyticsService) RecommendationsEffectiveness(ctx context.Context, userID, days int) (result0 *RecommendationImpactReport, err error) {
	ctx, span := observability.TraceAnalyticsFunction(ctx, "recommendations_effectiveness",
		observability.AttributeUserID(userID), observability.AttributeDays(days))
	defer observability.FinishSpan(span, &err)

	recs, err := recommendationsSince(s.db.WithContext(ctx), userID, windowStart(s.now(), days))
	if err != nil {
		return nil, err
	}
	return &RecommendationImpactReport{PeriodDays: days, Effectiveness: buildRecommendationImpact(recs)}, nil
}

// buildRecommendationImpact weighs acceptance (of viewed) at 0.4 and completion (of accepted)
// at 0.6. The impact is 0 until something has been accepted.
func buildRecommendationImpact(recs []models.Recommendation) RecommendationImpact {
	out := RecommendationImpact{TypePerformance: []TypePerformance{}}
	if len(recs) == 0 {
		return out
	}

	var overall responseTally
	byType := map[models.RecommendationType]*responseTally{}
	confidence := map[models.RecommendationType]float64{}
	var order []models.RecommendationType
	for _, rec := range recs {
		overall.add(rec)
		if _, ok := byType[rec.RecommendationType]; !ok {
			byType[rec.RecommendationType] = &responseTally{}
			order = append(order, rec.RecommendationType)
		}
		byType[rec.RecommendationType].add(rec)
		confidence[rec.RecommendationType] += rec.ConfidenceScore
	}

	acceptance := scoring.Percentage(float64(overall.accepted), float64(overall.viewed))
	completion := scoring.Percentage(float64(overall.completed), float64(overall.accepted))

	out.TotalRecommendations = overall.total
	out.ViewedCount = overall.viewed
	out.AcceptanceRate = scoring.Round2(acceptance)
	out.CompletionRate = scoring.Round2(completion)
	if overall.accepted > 0 {
		out.ImpactScore = scoring.Round2(acceptance*impactAcceptanceWeight + completion*impactCompletionWeight)
	}

	for _, t := range order {
		tally := byType[t]
		out.TypePerformance = append(out.TypePerformance, TypePerformance{
			Type:              t,
			Total:             tally.total,
			AcceptanceRate:    scoring.Round2(scoring.Percentage(float64(tally.accepted), float64(tally.viewed))),
			CompletionRate:    scoring.Round2(scoring.Percentage(float64(tally.completed), float64(tally.accepted))),
			AverageConfidence: scoring.Round2(confidence[t] / float64(tally.total)),
		})
	}
	return out
}
