package handlers

import (
	"context"
	"net/http"
	"strings"

	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves the cross-cutting analytics reports.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServiceInterface
	logger           *observability.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler instance
func NewAnalyticsHandler(analyticsService services.AnalyticsServiceInterface, logger *observability.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, logger: logger}
}

// report runs one analytics query for the current user and writes its result.
func report[T any](c *gin.Context, name string, r dayRange, query func(ctx context.Context, userID, days int) (T, error)) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), name)
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, ok := parseDays(c, r)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeDays(days))

	result, err := query(ctx, userID, days)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Overview handles GET /api/v1/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	report(c, "analytics_overview", defaultDays, h.analyticsService.Overview)
}

// Subjects handles GET /api/v1/analytics/subjects
func (h *AnalyticsHandler) Subjects(c *gin.Context) {
	report(c, "analytics_subjects", defaultDays, h.analyticsService.Subjects)
}

// PerformanceTrends handles GET /api/v1/analytics/performance-trends
func (h *AnalyticsHandler) PerformanceTrends(c *gin.Context) {
	metric := strings.TrimSpace(c.DefaultQuery("metric", services.MetricScore))
	report(c, "analytics_performance_trends", trendDays, func(ctx context.Context, userID, days int) (*services.PerformanceTrends, error) {
		return h.analyticsService.PerformanceTrends(ctx, userID, days, metric)
	})
}

// LearningPatterns handles GET /api/v1/analytics/learning-patterns
func (h *AnalyticsHandler) LearningPatterns(c *gin.Context) {
	report(c, "analytics_learning_patterns", patternsDays, h.analyticsService.LearningPatterns)
}

// ContentEngagement handles GET /api/v1/analytics/content-engagement
func (h *AnalyticsHandler) ContentEngagement(c *gin.Context) {
	report(c, "analytics_content_engagement", defaultDays, h.analyticsService.ContentEngagement)
}

// RecommendationsEffectiveness handles GET /api/v1/analytics/recommendations-effectiveness
func (h *AnalyticsHandler) RecommendationsEffectiveness(c *gin.Context) {
	report(c, "analytics_recommendations_effectiveness", defaultDays, h.analyticsService.RecommendationsEffectiveness)
}
