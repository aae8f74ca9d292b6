package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/observability"
	"learnapp/internal/scoring"
	"learnapp/internal/userlock"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecommendationServiceInterface defines recommendation generation and lifecycle operations.
type RecommendationServiceInterface interface {
	List(ctx context.Context, userID int, filter RecommendationFilter, page Page) ([]models.Recommendation, error)
	Generate(ctx context.Context, userID int) (*GenerationResult, error)
	Get(ctx context.Context, userID, recommendationID int) (*models.Recommendation, error)
	Respond(ctx context.Context, userID, recommendationID int, req RespondRequest) (*models.Recommendation, error)
	Complete(ctx context.Context, userID, recommendationID int, req CompleteRecommendationRequest) (*models.Recommendation, error)
	Effectiveness(ctx context.Context, userID, days int) (*RecommendationEffectiveness, error)
	Dismiss(ctx context.Context, userID, recommendationID int) error
}

// RecommendationFilter narrows List. Empty fields do not filter.
type RecommendationFilter struct {
	RecommendationType string `form:"recommendation_type"`
	Priority           string `form:"priority"`
	Status             string `form:"status"`
}

// RespondRequest accepts or declines a recommendation.
type RespondRequest struct {
	IsAccepted *bool   `json:"is_accepted" binding:"required"`
	Feedback   *string `json:"feedback" binding:"omitempty,max=2000"`
}

// CompleteRecommendationRequest carries optional feedback gathered on completion.
type CompleteRecommendationRequest struct {
	EffectivenessScore *float64 `json:"effectiveness_score" binding:"omitempty,min=0,max=1"`
	UserRating         *int     `json:"user_rating" binding:"omitempty,min=1,max=5"`
	ActualTimeTaken    *int     `json:"actual_time_taken" binding:"omitempty,min=0"`
}

// GenerationResult reports how many recommendations a generation run created.
type GenerationResult struct {
	Message                string `json:"message"`
	RecommendationsCreated int    `json:"recommendations_created"`
}

// TypeEffectiveness is the acceptance and completion of one recommendation type.
type TypeEffectiveness struct {
	Type           models.RecommendationType `json:"type"`
	Total          int                       `json:"total"`
	AcceptanceRate float64                   `json:"acceptance_rate"`
	CompletionRate float64                   `json:"completion_rate"`
}

// PriorityEffectiveness is the acceptance of one priority level.
type PriorityEffectiveness struct {
	Priority       models.Priority `json:"priority"`
	Total          int             `json:"total"`
	AcceptanceRate float64         `json:"acceptance_rate"`
}

// RecommendationEffectiveness summarises how the user responded to recommendations.
// Acceptance is measured against viewed recommendations, completion against accepted ones.
type RecommendationEffectiveness struct {
	TotalRecommendations int                     `json:"total_recommendations"`
	ViewedCount          int                     `json:"viewed_count"`
	AcceptedCount        int                     `json:"accepted_count"`
	CompletedCount       int                     `json:"completed_count"`
	AcceptanceRate       float64                 `json:"acceptance_rate"`
	CompletionRate       float64                 `json:"completion_rate"`
	TypeBreakdown        []TypeEffectiveness     `json:"type_breakdown"`
	PriorityBreakdown    []PriorityEffectiveness `json:"priority_breakdown"`
}

const (
	maxRecommendationLimit = 50
	priorityRankOrder      = "CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END"
)

// RecommendationService generates recommendations and tracks the user's responses to them.
type RecommendationService struct {
	db     *gorm.DB
	locker userlock.Locker
	logger *observability.Logger
	now    func() time.Time
}

// NewRecommendationServiceWithLogger creates a new RecommendationService instance with logger
func NewRecommendationServiceWithLogger(db *gorm.DB, locker userlock.Locker, logger *observability.Logger) *RecommendationService {
	return &RecommendationService{
		db:     db,
		locker: locker,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns the user's unexpired recommendations, most urgent and most confident first.
// Dismissed recommendations are only listed when asked for by status.
func (s *RecommendationService) List(ctx context.Context, userID int, filter RecommendationFilter, page Page) (result0 []models.Recommendation, err error) {
	ctx, span := observability.TraceRecommendationFunction(ctx, "list",
		observability.AttributeUserID(userID), observability.AttributeLimit(page.Limit), observability.AttributeOffset(page.Offset))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", s.now())
	if filter.RecommendationType != "" {
		query = query.Where("recommendation_type = ?", filter.RecommendationType)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status <> ?", models.RecommendationStatusDismissed)
	}

	recommendations := []models.Recommendation{}
	ordered := query.Order(priorityRankOrder).Order("confidence_score DESC, created_at DESC, id DESC")
	if err := page.Normalize(maxRecommendationLimit).apply(ordered).Find(&recommendations).Error; err != nil {
		return nil, translateError(err, "recommendation")
	}
	return recommendations, nil
}

// Generate evaluates the recommendation rules over the last 30 days of activity and stores
// what they emit. A rule whose type and title already has an active, unexpired
// recommendation is skipped.
func (s *RecommendationService) Generate(ctx context.Context, userID int) (result0 *GenerationResult, err error) {
	ctx, span := observability.TraceRecommendationFunction(ctx, "generate", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	created := 0
	err = s.locker.Do(ctx, userlock.Key("recommendations", userID), func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := s.now()
			inputs, err := s.recommendationInputs(tx, userID, now)
			if err != nil {
				return err
			}

			emitted, err := evaluateRecommendationRules(inputs, bestContentFinder(tx), now)
			if err != nil {
				return err
			}

			for i := range emitted {
				exists, err := activeRecommendationExists(tx, emitted[i], now)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
				if err := tx.Create(&emitted[i]).Error; err != nil {
					return translateError(err, "recommendation")
				}
				created++
			}
			return nil
		})
	})
	if err != nil {
		return nil, translateError(err, "recommendation")
	}

	span.SetAttributes(attribute.Int("recommendations.created", created))
	observability.RecordRecommendationsGenerated(ctx, created)
	s.logger.Info(ctx, "Recommendations generated", map[string]interface{}{
		"user_id": userID,
		"created": created,
	})

	return &GenerationResult{
		Message:                fmt.Sprintf("Generated %d new recommendations", created),
		RecommendationsCreated: created,
	}, nil
}

// recommendationInputs loads the whole lookback window so threshold rules see every row in it.
func (s *RecommendationService) recommendationInputs(db *gorm.DB, userID int, now time.Time) (recommendationInputs, error) {
	in := recommendationInputs{}
	if err := db.First(&in.User, userID).Error; err != nil {
		return in, translateError(err, "user")
	}

	since := windowStart(now, recommendationLookbackDays)
	if err := db.Where("user_id = ? AND start_time >= ?", userID, since).
		Order("start_time DESC, id DESC").
		Find(&in.Sessions).Error; err != nil {
		return in, translateError(err, "learning session")
	}
	if err := db.Where("user_id = ? AND is_completed = ? AND created_at >= ?", userID, true, since).
		Order("created_at DESC, id DESC").
		Find(&in.Assessments).Error; err != nil {
		return in, translateError(err, "assessment")
	}

	interactions, err := recentInteractions(db, userID, since)
	if err != nil {
		return in, err
	}
	in.Interactions = interactions
	return in, nil
}

// bestContentFinder looks up the highest rated active item matching a rule's query.
func bestContentFinder(db *gorm.DB) contentFinder {
	return func(q contentQuery) (*models.Content, error) {
		query := db.Where("is_active = ?", true)
		if q.Subject != "" {
			query = query.Where("subject = ?", q.Subject)
		}
		if q.Difficulty != "" {
			query = query.Where("difficulty_level = ?", q.Difficulty)
		}
		if q.ContentType != "" {
			query = query.Where("content_type = ?", q.ContentType)
		}
		if q.MinRating != nil {
			query = query.Where("average_rating >= ?", *q.MinRating)
		}

		var content models.Content
		err := query.Order(bestRatedOrder).Take(&content).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, translateError(err, "content")
		}
		return &content, nil
	}
}

func activeRecommendationExists(db *gorm.DB, rec models.Recommendation, now time.Time) (bool, error) {
	var count int64
	err := db.Model(&models.Recommendation{}).
		Where("user_id = ? AND recommendation_type = ? AND title = ? AND status = ?",
			rec.UserID, rec.RecommendationType, rec.Title, models.RecommendationStatusActive).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	if err != nil {
		return false, translateError(err, "recommendation")
	}
	return count > 0, nil
}

// Get returns a recommendation and marks it viewed the first time it is read.
func (s *RecommendationService) Get(ctx context.Context, userID, recommendationID int) (result0 *models.Recommendation, err error) {
	ctx, span := observability.TraceRecommendationFunction(ctx, "get",
		observability.AttributeUserID(userID), observability.AttributeRecommendationID(recommendationID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Recommendation{}).
		Where("id = ? AND user_id = ? AND is_viewed = ?", recommendationID, userID, false).
		Updates(map[string]interface{}{"is_viewed": true, "viewed_at": s.now()}).Error; err != nil {
		return nil, translateError(err, "recommendation")
	}

	var rec models.Recommendation
	if err := db.Preload("TargetContent").
		Where("id = ? AND user_id = ?", recommendationID, userID).
		First(&rec).Error; err != nil {
		return nil, translateError(err, "recommendation")
	}
	return &rec, nil
}

// Respond records an accept or decline. Only pending or active, unexpired
// recommendations accept a response.
func (s *RecommendationService) Respond(ctx context.Context, userID, recommendationID int, req RespondRequest) (result0 *models.Recommendation, err error) {
	ctx, span := observability.TraceRecommendationFunction(ctx, "respond",
		observability.AttributeUserID(userID), observability.AttributeRecommendationID(recommendationID))
	defer observability.FinishSpan(span, &err)

	accepted := deref(req.IsAccepted)
	return s.transition(ctx, userID, recommendationID, func(rec models.Recommendation, now time.Time) (map[string]interface{}, error) {
		if !rec.CanRespond() {
			return nil, invalidState(fmt.Sprintf("cannot respond to a %s recommendation", rec.Status))
		}
		if rec.IsExpired(now) {
			return nil, invalidState("recommendation has expired")
		}

		status := models.RecommendationStatusDeclined
		if accepted {
			status = models.RecommendationStatusAccepted
		}
		updates := map[string]interface{}{
			"is_accepted":  accepted,
			"status":       status,
			"responded_at": now,
		}
		if req.Feedback != nil {
			updates["user_feedback"] = *req.Feedback
		}
		return updates, nil
	})
}

// Complete marks an accepted recommendation as done.
func (s *RecommendationService) Complete(ctx context.Context, userID, recommendationID int, req CompleteRecommendationRequest) (result0 *models.Recommendation, err error) {
	ctx, span := observability.TraceRecommendationFunction(ctx, "complete",
		observability.AttributeUserID(userID), observability.AttributeRecommendationID(recommendationID))
	defer observability.FinishSpan(span, &err)

	return s.transition(ctx, userID, recommendationID, func(rec models.Recommendation, now time.Time) (map[string]interface{}, error) {
		if !rec.CanComplete() {
			return nil, invalidState("cannot complete a recommendation that wasn't accepted")
		}

		updates := map[string]interface{}{
			"is_completed": true,
			"status":       models.RecommendationStatusCompleted,
			"completed_at": now,
		}
		if req.EffectivenessScore != nil {
			updates["effectiveness_score"] = *req.EffectivenessScore
		}
		if req.UserRating != nil {
			updates["user_rating"] = *req.UserRating
		}
		if req.ActualTimeTaken != nil {
			updates["actual_time_taken"] = *req.ActualTimeTaken
		}
		return updates, nil
	})
}

// Dismiss hides a recommendation from listings. The row is kept for analytics.
func (s *RecommendationService) Dismiss(ctx context.Context, userID, recommendationID int) (err error) {
	ctx, span := observability.TraceRecommendationFunction(ctx, "dismiss",
		observability.AttributeUserID(userID), observability.AttributeRecommendationID(recommendationID))
	defer observability.FinishSpan(span, &err)

	res := s.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("id = ? AND user_id = ?", recommendationID, userID).
		Update("status", models.RecommendationStatusDismissed)
	if res.Error != nil {
		return translateError(res.Error, "recommendation")
	}
	if res.RowsAffected == 0 {
		return notFound("recommendation")
	}
	return nil
}

// transition applies a state change to a locked recommendation row.
func (s *RecommendationService) transition(ctx context.Context, userID, recommendationID int,
	change func(rec models.Recommendation, now time.Time) (map[string]interface{}, error)) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", recommendationID, userID).
			First(&rec).Error; err != nil {
			return translateError(err, "recommendation")
		}

		updates, err := change(rec, s.now())
		if err != nil {
			return err
		}
		if err := tx.Model(&rec).Updates(updates).Error; err != nil {
			return translateError(err, "recommendation")
		}
		return tx.First(&rec, rec.ID).Error
	})
	if err != nil {
		return nil, translateError(err, "recommendation")
	}

	s.logger.Info(ctx, "Recommendation updated", map[string]interface{}{
		"user_id":           userID,
		"recommendation_id": recommendationID,
		"status":            rec.Status,
	})
	return &rec, nil
}

// Effectiveness summarises responses to recommendations created in the last days.
func (s *RecommendationService) Effectiveness(ctx context.Context, userID, days int) (result0 *RecommendationEffectiveness, err error) {
	ctx, span := observability.TraceRecommendationFunction(ctx, "effectiveness",
		observability.AttributeUserID(userID), observability.AttributeDays(days))
	defer observability.FinishSpan(span, &err)

	recs, err := recommendationsSince(s.db.WithContext(ctx), userID, windowStart(s.now(), days))
	if err != nil {
		return nil, err
	}
	return buildRecommendationEffectiveness(recs), nil
}

func recommendationsSince(db *gorm.DB, userID int, since time.Time) ([]models.Recommendation, error) {
	var recs []models.Recommendation
	if err := db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at, id").Find(&recs).Error; err != nil {
		return nil, translateError(err, "recommendation")
	}
	return recs, nil
}

type responseTally struct {
	total, viewed, accepted, completed int
}

func (t *responseTally) add(rec models.Recommendation) {
	t.total++
	if rec.IsViewed {
		t.viewed++
	}
	if deref(rec.IsAccepted) {
		t.accepted++
	}
	if rec.IsCompleted {
		t.completed++
	}
}

func buildRecommendationEffectiveness(recs []models.Recommendation) *RecommendationEffectiveness {
	out := &RecommendationEffectiveness{
		TypeBreakdown:     []TypeEffectiveness{},
		PriorityBreakdown: []PriorityEffectiveness{},
	}

	var overall responseTally
	byType := map[models.RecommendationType]*responseTally{}
	byPriority := map[models.Priority]*responseTally{}
	var typeOrder []models.RecommendationType
	var priorityOrder []models.Priority

	for _, rec := range recs {
		overall.add(rec)

		if _, ok := byType[rec.RecommendationType]; !ok {
			byType[rec.RecommendationType] = &responseTally{}
			typeOrder = append(typeOrder, rec.RecommendationType)
		}
		byType[rec.RecommendationType].add(rec)

		if _, ok := byPriority[rec.Priority]; !ok {
			byPriority[rec.Priority] = &responseTally{}
			priorityOrder = append(priorityOrder, rec.Priority)
		}
		byPriority[rec.Priority].add(rec)
	}

	out.TotalRecommendations = overall.total
	out.ViewedCount = overall.viewed
	out.AcceptedCount = overall.accepted
	out.CompletedCount = overall.completed
	out.AcceptanceRate = scoring.Round2(scoring.Percentage(float64(overall.accepted), float64(overall.viewed)))
	out.CompletionRate = scoring.Round2(scoring.Percentage(float64(overall.completed), float64(overall.accepted)))

	for _, t := range typeOrder {
		tally := byType[t]
		out.TypeBreakdown = append(out.TypeBreakdown, TypeEffectiveness{
			Type:           t,
			Total:          tally.total,
			AcceptanceRate: scoring.Round2(scoring.Percentage(float64(tally.accepted), float64(tally.total))),
			CompletionRate: scoring.Round2(scoring.Percentage(float64(tally.completed), float64(tally.accepted))),
		})
	}
	for _, p := range priorityOrder {
		tally := byPriority[p]
		out.PriorityBreakdown = append(out.PriorityBreakdown, PriorityEffectiveness{
			Priority:       p,
			Total:          tally.total,
			AcceptanceRate: scoring.Round2(scoring.Percentage(float64(tally.accepted), float64(tally.total))),
		})
	}
	return out
}
