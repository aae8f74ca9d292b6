package handlers

import (
	"errors"
	"io"
	"net/http"

	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

const maxRecommendationPageLimit = 50

// RecommendationHandler handles recommendation HTTP requests
type RecommendationHandler struct {
	recommendationService services.RecommendationServiceInterface
	logger                *observability.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler instance
func NewRecommendationHandler(recommendationService services.RecommendationServiceInterface, logger *observability.Logger) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService, logger: logger}
}

// List handles GET /api/v1/recommendations
func (h *RecommendationHandler) List(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_recommendations")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := parsePage(c, maxRecommendationPageLimit)
	if !ok {
		return
	}
	var filter services.RecommendationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handleBindError(c, err)
		return
	}

	recs, err := h.recommendationService.List(ctx, userID, filter, page)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// Generate handles POST /api/v1/recommendations/generate
func (h *RecommendationHandler) Generate(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "generate_recommendations")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.recommendationService.Generate(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "Recommendation generation failed", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/recommendations/:id
func (h *RecommendationHandler) Get(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_recommendation")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeRecommendationID(recID))

	rec, err := h.recommendationService.Get(ctx, userID, recID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Respond handles POST /api/v1/recommendations/:id/respond
func (h *RecommendationHandler) Respond(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "respond_recommendation")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	rec, err := h.recommendationService.Respond(ctx, userID, recID, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Response recorded successfully", "recommendation": rec})
}

// Complete handles POST /api/v1/recommendations/:id/complete
func (h *RecommendationHandler) Complete(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "complete_recommendation")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CompleteRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handleBindError(c, err)
		return
	}

	rec, err := h.recommendationService.Complete(ctx, userID, recID, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recommendation marked as completed", "recommendation": rec})
}

// Effectiveness handles GET /api/v1/recommendations/analytics/effectiveness
func (h *RecommendationHandler) Effectiveness(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "recommendation_effectiveness")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, ok := parseDays(c, defaultDays)
	if !ok {
		return
	}

	stats, err := h.recommendationService.Effectiveness(ctx, userID, days)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Dismiss handles DELETE /api/v1/recommendations/:id
func (h *RecommendationHandler) Dismiss(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "dismiss_recommendation")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	recID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.recommendationService.Dismiss(ctx, userID, recID); err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recommendation dismissed successfully"})
}
