package services

import (
	"context"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/observability"
	"learnapp/internal/scoring"
	"learnapp/internal/userlock"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentServiceInterface defines content catalog and interaction operations.
type ContentServiceInterface interface {
	CreateContent(ctx context.Context, req CreateContentRequest) (*models.Content, error)
	ListContent(ctx context.Context, filter ContentFilter, page Page) ([]models.Content, error)
	GetContent(ctx context.Context, contentID int) (*models.Content, error)
	Recommendations(ctx context.Context, userID int, subject string, limit int) (*ContentRecommendations, error)
	RecordInteraction(ctx context.Context, userID int, req InteractionRequest) (*models.ContentInteraction, error)
	MyInteractions(ctx context.Context, userID int, interactionType string, page Page) ([]models.ContentInteraction, error)
	Progress(ctx context.Context, userID, contentID int) (*ContentProgress, error)
	Rate(ctx context.Context, userID, contentID, rating int) (*RatingResult, error)
	Subjects(ctx context.Context) ([]string, error)
	EngagementAnalytics(ctx context.Context, userID, days int) (*ContentEngagement, error)
}

// CreateContentRequest adds an item to the catalog.
type CreateContentRequest struct {
	Title                    string   `json:"title" binding:"required,min=1,max=255"`
	Description              *string  `json:"description"`
	ContentType              string   `json:"content_type" binding:"required,oneof=video article interactive quiz document audio"`
	Format                   *string  `json:"format" binding:"omitempty,max=64"`
	Subject                  string   `json:"subject" binding:"required,min=1,max=128"`
	Topic                    *string  `json:"topic" binding:"omitempty,max=255"`
	Subtopic                 *string  `json:"subtopic" binding:"omitempty,max=255"`
	DifficultyLevel          string   `json:"difficulty_level" binding:"omitempty,oneof=easy medium hard expert"`
	GradeLevel               *string  `json:"grade_level" binding:"omitempty,max=64"`
	LearningObjectives       []string `json:"learning_objectives" binding:"omitempty,max=50"`
	URL                      *string  `json:"url" binding:"omitempty,url"`
	EstimatedDurationMinutes *int     `json:"estimated_duration_minutes" binding:"omitempty,min=0"`
	Author                   *string  `json:"author" binding:"omitempty,max=255"`
}

// ContentFilter narrows ListContent. Search matches title, description or topic.
type ContentFilter struct {
	Subject         string `form:"subject"`
	ContentType     string `form:"content_type"`
	DifficultyLevel string `form:"difficulty_level"`
	GradeLevel      string `form:"grade_level"`
	Search          string `form:"search"`
}

// InteractionRequest records or updates the user's interaction of one type with a content item.
type InteractionRequest struct {
	ContentID          int      `json:"content_id" binding:"required"`
	InteractionType    string   `json:"interaction_type" binding:"required,oneof=view complete bookmark rate comment share"`
	LearningSessionID  *int     `json:"learning_session_id"`
	ProgressPercentage float64  `json:"progress_percentage" binding:"min=0,max=100"`
	LastPosition       *string  `json:"last_position" binding:"omitempty,max=255"`
	DurationSeconds    *float64 `json:"duration_seconds" binding:"omitempty,min=0"`
	Rating             *int     `json:"rating" binding:"omitempty,min=1,max=5"`
	DifficultyRating   *string  `json:"difficulty_rating" binding:"omitempty,max=32"`
	UsefulnessRating   *int     `json:"usefulness_rating" binding:"omitempty,min=1,max=5"`
	Notes              *string  `json:"notes" binding:"omitempty,max=5000"`
	DeviceType         *string  `json:"device_type" binding:"omitempty,max=64"`
}

// RecommendedContent is one personalised content suggestion.
type RecommendedContent struct {
	ID                       int                `json:"id"`
	Title                    string             `json:"title"`
	ContentType              models.ContentType `json:"content_type"`
	DifficultyLevel          models.Difficulty  `json:"difficulty_level"`
	EstimatedDurationMinutes *int               `json:"estimated_duration_minutes"`
	AverageRating            *float64           `json:"average_rating"`
	Description              *string            `json:"description"`
	RecommendationReason     string             `json:"recommendation_reason"`
}

// ContentRecommendations lists suggestions for one subject.
type ContentRecommendations struct {
	Subject         string               `json:"subject"`
	Recommendations []RecommendedContent `json:"recommendations"`
}

// ContentProgress is the user's viewing progress on one item.
type ContentProgress struct {
	ContentID          int        `json:"content_id"`
	ProgressPercentage float64    `json:"progress_percentage"`
	IsCompleted        bool       `json:"is_completed"`
	LastPosition       *string    `json:"last_position"`
	TimeSpentSeconds   float64    `json:"time_spent_seconds"`
	LastAccessed       *time.Time `json:"last_accessed,omitempty"`
}

// RatingResult reports a rating and the item's new average.
type RatingResult struct {
	Message          string  `json:"message"`
	Rating           int     `json:"rating"`
	NewAverageRating float64 `json:"new_average_rating"`
}

// TypeCount counts interactions per content type.
type TypeCount struct {
	Type  models.ContentType `json:"type"`
	Count int                `json:"count"`
}

// SubjectCount counts interactions per subject.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// ContentEngagement summarises a user's interactions over a window.
type ContentEngagement struct {
	TotalInteractions      int            `json:"total_interactions"`
	ContentTypesEngaged    []TypeCount    `json:"content_types_engaged"`
	SubjectsStudied        []SubjectCount `json:"subjects_studied"`
	CompletionRate         float64        `json:"completion_rate"`
	AverageSessionDuration float64        `json:"average_session_duration"`
	TotalStudyTimeHours    float64        `json:"total_study_time_hours"`
}

const (
	defaultContentRecommendations = 10
	maxContentRecommendations     = 20
	recommendationProgressCutoff  = 50
	contentRecommendationReason   = "Matches your learning style and difficulty preference"
)

// ContentService manages the shared content catalog and per-user interactions.
type ContentService struct {
	db     *gorm.DB
	locker userlock.Locker
	logger *observability.Logger
	now    func() time.Time
}

// NewContentServiceWithLogger creates a new ContentService instance with logger
func NewContentServiceWithLogger(db *gorm.DB, locker userlock.Locker, logger *observability.Logger) *ContentService {
	return &ContentService{
		db:     db,
		locker: locker,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateContent adds an active, unrated item to the catalog.
func (s *ContentService) CreateContent(ctx context.Context, req CreateContentRequest) (result0 *models.Content, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "create_content", observability.AttributeSubject(req.Subject))
	defer observability.FinishSpan(span, &err)

	objectives := pq.StringArray(req.LearningObjectives)
	if objectives == nil {
		objectives = pq.StringArray{}
	}
	content := &models.Content{
		Title:                    req.Title,
		Description:              req.Description,
		ContentType:              models.ParseContentType(req.ContentType),
		Format:                   req.Format,
		Subject:                  req.Subject,
		Topic:                    req.Topic,
		Subtopic:                 req.Subtopic,
		DifficultyLevel:          difficultyOrDefault(req.DifficultyLevel),
		GradeLevel:               req.GradeLevel,
		LearningObjectives:       objectives,
		URL:                      req.URL,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		Author:                   req.Author,
		IsActive:                 true,
	}
	if err := s.db.WithContext(ctx).Create(content).Error; err != nil {
		return nil, translateError(err, "content")
	}

	s.logger.Info(ctx, "Content created", map[string]interface{}{
		"content_id":   content.ID,
		"content_type": content.ContentType,
		"subject":      content.Subject,
	})
	return content, nil
}

// ListContent returns active items, best rated and most viewed first.
func (s *ContentService) ListContent(ctx context.Context, filter ContentFilter, page Page) (result0 []models.Content, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "list_content",
		observability.AttributeSubject(filter.Subject), attribute.String("content.search", filter.Search),
		observability.AttributeLimit(page.Limit), observability.AttributeOffset(page.Offset))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.ContentType != "" {
		query = query.Where("content_type = ?", filter.ContentType)
	}
	if filter.DifficultyLevel != "" {
		query = query.Where("difficulty_level = ?", filter.DifficultyLevel)
	}
	if filter.GradeLevel != "" {
		query = query.Where("grade_level = ?", filter.GradeLevel)
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		query = query.Where("(title ILIKE ? OR description ILIKE ? OR topic ILIKE ?)", term, term, term)
	}

	items := []models.Content{}
	if err := page.Normalize(MaxPageLimit).apply(query.Order(bestRatedOrder)).Find(&items).Error; err != nil {
		return nil, translateError(err, "content")
	}
	return items, nil
}

const bestRatedOrder = "average_rating DESC NULLS LAST, view_count DESC, id"

// GetContent returns an item and counts the view.
func (s *ContentService) GetContent(ctx context.Context, contentID int) (result0 *models.Content, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "get_content", observability.AttributeContentID(contentID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	res := db.Model(&models.Content{}).Where("id = ?", contentID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return nil, translateError(res.Error, "content")
	}
	if res.RowsAffected == 0 {
		return nil, notFound("content")
	}

	var content models.Content
	if err := db.First(&content, contentID).Error; err != nil {
		return nil, translateError(err, "content")
	}
	return &content, nil
}

// Recommendations suggests active items in subject at the user's preferred difficulty,
// skipping items the user is already more than half way through.
func (s *ContentService) Recommendations(ctx context.Context, userID int, subject string, limit int) (result0 *ContentRecommendations, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "recommendations",
		observability.AttributeUserID(userID), observability.AttributeSubject(subject), observability.AttributeLimit(limit))
	defer observability.FinishSpan(span, &err)

	if limit <= 0 {
		limit = defaultContentRecommendations
	}
	if limit > maxContentRecommendations {
		limit = maxContentRecommendations
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, translateError(err, "user")
	}

	progressed := db.Model(&models.ContentInteraction{}).Select("content_id").
		Where("user_id = ? AND progress_percentage > ?", userID, recommendationProgressCutoff)

	var items []models.Content
	if err := db.Where("is_active = ? AND subject = ? AND difficulty_level = ?", true, subject, user.PreferredDifficulty).
		Where("id NOT IN (?)", progressed).
		Order(bestRatedOrder).Limit(limit).
		Find(&items).Error; err != nil {
		return nil, translateError(err, "content")
	}

	return &ContentRecommendations{
		Subject: subject,
		Recommendations: lo.Map(items, func(c models.Content, _ int) RecommendedContent {
			return RecommendedContent{
				ID:                       c.ID,
				Title:                    c.Title,
				ContentType:              c.ContentType,
				DifficultyLevel:          c.DifficultyLevel,
				EstimatedDurationMinutes: c.EstimatedDurationMinutes,
				AverageRating:            c.AverageRating,
				Description:              c.Description,
				RecommendationReason:     contentRecommendationReason,
			}
		}),
	}, nil
}

// RecordInteraction upserts the (user, content, type) interaction. The content's
// completion count grows when the interaction first reaches 100% progress.
// A "rate" interaction carrying a rating goes through Rate.
func (s *ContentService) RecordInteraction(ctx context.Context, userID int, req InteractionRequest) (result0 *models.ContentInteraction, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "record_interaction",
		observability.AttributeUserID(userID), observability.AttributeContentID(req.ContentID),
		attribute.String("interaction.type", req.InteractionType))
	defer observability.FinishSpan(span, &err)

	interactionType := models.ParseInteractionType(req.InteractionType)
	if interactionType == models.InteractionTypeRate && req.Rating != nil {
		if _, err := s.Rate(ctx, userID, req.ContentID, *req.Rating); err != nil {
			return nil, err
		}
	}

	var interaction models.ContentInteraction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Content{}, req.ContentID).Error; err != nil {
			return translateError(err, "content")
		}

		now := s.now()
		fresh := models.ContentInteraction{
			UserID:          userID,
			ContentID:       req.ContentID,
			InteractionType: interactionType,
			StartTime:       now,
			TimeOfDay:       ptr(scoring.BucketForHour(now.Hour())),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}, {Name: "interaction_type"}},
			DoNothing: true,
		}).Create(&fresh)
		if res.Error != nil {
			return translateError(res.Error, "content interaction")
		}
		created := res.RowsAffected == 1

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND content_id = ? AND interaction_type = ?", userID, req.ContentID, interactionType).
			First(&interaction).Error; err != nil {
			return translateError(err, "content interaction")
		}

		updates, completedNow := interactionUpdates(interaction, req, created, now)
		if err := tx.Model(&interaction).Updates(updates).Error; err != nil {
			return translateError(err, "content interaction")
		}
		if completedNow {
			if err := tx.Model(&models.Content{}).Where("id = ?", req.ContentID).
				UpdateColumn("completion_count", gorm.Expr("completion_count + 1")).Error; err != nil {
				return translateError(err, "content")
			}
		}

		return tx.First(&interaction, interaction.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &interaction, nil
}

// interactionUpdates computes the column updates for an upsert and whether this call
// moved the interaction into the completed state.
func interactionUpdates(existing models.ContentInteraction, req InteractionRequest, created bool, now time.Time) (map[string]interface{}, bool) {
	updates := map[string]interface{}{
		"progress_percentage": req.ProgressPercentage,
		"last_position":       req.LastPosition,
	}
	if !created {
		updates["end_time"] = now
		updates["interaction_count"] = existing.InteractionCount + 1
	}
	if req.DurationSeconds != nil {
		updates["duration_seconds"] = existing.Seconds() + *req.DurationSeconds
	}
	if req.LearningSessionID != nil {
		updates["learning_session_id"] = *req.LearningSessionID
	}
	if req.Rating != nil && req.InteractionType != string(models.InteractionTypeRate) {
		updates["rating"] = *req.Rating
	}
	if req.DifficultyRating != nil {
		updates["difficulty_rating"] = *req.DifficultyRating
	}
	if req.UsefulnessRating != nil {
		updates["usefulness_rating"] = *req.UsefulnessRating
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.DeviceType != nil {
		updates["device_type"] = *req.DeviceType
	}

	completedNow := req.ProgressPercentage >= 100 && !existing.IsCompleted
	if completedNow {
		updates["is_completed"] = true
		updates["completion_time"] = now
	}
	return updates, completedNow
}

// MyInteractions lists the user's interactions, most recent first.
func (s *ContentService) MyInteractions(ctx context.Context, userID int, interactionType string, page Page) (result0 []models.ContentInteraction, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "my_interactions",
		observability.AttributeUserID(userID), observability.AttributeLimit(page.Limit), observability.AttributeOffset(page.Offset))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if interactionType != "" {
		query = query.Where("interaction_type = ?", interactionType)
	}

	interactions := []models.ContentInteraction{}
	if err := page.Normalize(MaxPageLimit).apply(query.Order("start_time DESC, id DESC")).Find(&interactions).Error; err != nil {
		return nil, translateError(err, "content interaction")
	}
	return interactions, nil
}

// Progress reports the user's view progress on an item; zero when never viewed.
func (s *ContentService) Progress(ctx context.Context, userID, contentID int) (result0 *ContentProgress, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "progress",
		observability.AttributeUserID(userID), observability.AttributeContentID(contentID))
	defer observability.FinishSpan(span, &err)

	var interactions []models.ContentInteraction
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND content_id = ? AND interaction_type = ?", userID, contentID, models.InteractionTypeView).
		Limit(1).Find(&interactions).Error; err != nil {
		return nil, translateError(err, "content interaction")
	}

	progress := &ContentProgress{ContentID: contentID}
	if len(interactions) == 1 {
		view := interactions[0]
		progress.ProgressPercentage = view.ProgressPercentage
		progress.IsCompleted = view.IsCompleted
		progress.LastPosition = view.LastPosition
		progress.TimeSpentSeconds = view.Seconds()
		progress.LastAccessed = ptr(view.StartTime)
		if view.EndTime != nil {
			progress.LastAccessed = view.EndTime
		}
	}
	return progress, nil
}

// Rate records the user's 1-5 rating of an item, replacing any earlier rating, and
// keeps the item's average equal to the mean of current per-user ratings.
func (s *ContentService) Rate(ctx context.Context, userID, contentID, rating int) (result0 *RatingResult, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "rate",
		observability.AttributeUserID(userID), observability.AttributeContentID(contentID), attribute.Int("content.rating", rating))
	defer observability.FinishSpan(span, &err)

	if rating < 1 || rating > 5 {
		return nil, validationFailed("rating must be between 1 and 5")
	}

	var newAverage float64
	err = s.locker.Do(ctx, userlock.Key("rate", userID, contentID), func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var content models.Content
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&content, contentID).Error; err != nil {
				return translateError(err, "content")
			}

			var existing []models.ContentInteraction
			if err := tx.Where("user_id = ? AND content_id = ? AND interaction_type = ?",
				userID, contentID, models.InteractionTypeRate).Limit(1).Find(&existing).Error; err != nil {
				return translateError(err, "content interaction")
			}

			total := content.TotalRatings
			switch {
			case len(existing) == 1 && existing[0].Rating != nil:
				newAverage = scoring.ReplaceInMean(content.Rating(), total, float64(*existing[0].Rating), float64(rating))
			default:
				newAverage = scoring.IncrementalMean(content.Rating(), total, float64(rating))
				total++
			}

			if len(existing) == 1 {
				if err := tx.Model(&existing[0]).Update("rating", rating).Error; err != nil {
					return translateError(err, "content interaction")
				}
			} else {
				if err := tx.Create(&models.ContentInteraction{
					UserID:          userID,
					ContentID:       contentID,
					InteractionType: models.InteractionTypeRate,
					StartTime:       s.now(),
					Rating:          &rating,
				}).Error; err != nil {
					return translateError(err, "content interaction")
				}
			}

			return tx.Model(&content).Updates(map[string]interface{}{
				"average_rating": newAverage,
				"total_ratings":  total,
			}).Error
		})
	})
	if err != nil {
		return nil, translateError(err, "content rating")
	}

	return &RatingResult{
		Message:          "Content rated successfully",
		Rating:           rating,
		NewAverageRating: scoring.Round2(newAverage),
	}, nil
}

// Subjects lists the distinct subjects of active content.
func (s *ContentService) Subjects(ctx context.Context) (result0 []string, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "subjects")
	defer observability.FinishSpan(span, &err)

	subjects := []string{}
	if err := s.db.WithContext(ctx).Model(&models.Content{}).
		Where("is_active = ?", true).
		Distinct().Order("subject").
		Pluck("subject", &subjects).Error; err != nil {
		return nil, translateError(err, "content")
	}
	return subjects, nil
}

// EngagementAnalytics summarises the user's interactions over the last days.
func (s *ContentService) EngagementAnalytics(ctx context.Context, userID, days int) (result0 *ContentEngagement, err error) {
	ctx, span := observability.TraceContentFunction(ctx, "engagement_analytics",
		observability.AttributeUserID(userID), observability.AttributeDays(days))
	defer observability.FinishSpan(span, &err)

	interactions, err := recentInteractions(s.db.WithContext(ctx), userID, windowStart(s.now(), days))
	if err != nil {
		return nil, err
	}
	return buildEngagement(interactions), nil
}

// recentInteractions loads interactions since start with their content, newest first.
// A limit of 0 loads all of them.
func recentInteractions(db *gorm.DB, userID int, since time.Time) ([]models.ContentInteraction, error) {
	var interactions []models.ContentInteraction
	if err := db.Preload("Content").
		Where("user_id = ? AND start_time >= ?", userID, since).
		Order("start_time DESC, id DESC").
		Find(&interactions).Error; err != nil {
		return nil, translateError(err, "content interaction")
	}
	return interactions, nil
}

func buildEngagement(interactions []models.ContentInteraction) *ContentEngagement {
	out := &ContentEngagement{
		TotalInteractions:   len(interactions),
		ContentTypesEngaged: []TypeCount{},
		SubjectsStudied:     []SubjectCount{},
	}
	if len(interactions) == 0 {
		return out
	}

	withContent := lo.Filter(interactions, func(i models.ContentInteraction, _ int) bool { return i.Content != nil })
	types := lo.Map(withContent, func(i models.ContentInteraction, _ int) models.ContentType { return i.Content.ContentType })
	typeCounts := lo.CountValues(types)
	for _, t := range lo.Uniq(types) {
		out.ContentTypesEngaged = append(out.ContentTypesEngaged, TypeCount{Type: t, Count: typeCounts[t]})
	}
	subjects := lo.Map(withContent, func(i models.ContentInteraction, _ int) string { return i.Content.Subject })
	subjectCounts := lo.CountValues(subjects)
	for _, subject := range lo.Uniq(subjects) {
		out.SubjectsStudied = append(out.SubjectsStudied, SubjectCount{Subject: subject, Count: subjectCounts[subject]})
	}

	totalSeconds := lo.SumBy(interactions, func(i models.ContentInteraction) float64 { return i.Seconds() })
	completed := lo.CountBy(interactions, func(i models.ContentInteraction) bool { return i.IsCompleted })

	out.CompletionRate = scoring.Round2(scoring.Percentage(float64(completed), float64(len(interactions))))
	out.AverageSessionDuration = scoring.Round2(totalSeconds / float64(len(interactions)) / 60)
	out.TotalStudyTimeHours = scoring.Round2(totalSeconds / 3600)
	return out
}
