package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultContentRecommendations = 10
	maxContentRecommendations     = 20
)

// RateContentRequest is the body of POST /content/:id/rate.
type RateContentRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// ContentHandler handles catalog and interaction HTTP requests
type ContentHandler struct {
	contentService services.ContentServiceInterface
	logger         *observability.Logger
}

// NewContentHandler creates a new ContentHandler instance
func NewContentHandler(contentService services.ContentServiceInterface, logger *observability.Logger) *ContentHandler {
	return &ContentHandler{contentService: contentService, logger: logger}
}

// CreateContent handles POST /api/v1/content
func (h *ContentHandler) CreateContent(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_content")
	defer observability.FinishSpan(span, nil)

	var req services.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	content, err := h.contentService.CreateContent(ctx, req)
	if err != nil {
		h.logger.Error(ctx, "Failed to create content", err, map[string]interface{}{"title": req.Title})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, content)
}

// ListContent handles GET /api/v1/content
func (h *ContentHandler) ListContent(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_content")
	defer observability.FinishSpan(span, nil)

	page, ok := parsePage(c, services.MaxPageLimit)
	if !ok {
		return
	}
	var filter services.ContentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handleBindError(c, err)
		return
	}

	items, err := h.contentService.ListContent(ctx, filter, page)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetContent handles GET /api/v1/content/:id
func (h *ContentHandler) GetContent(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_content")
	defer observability.FinishSpan(span, nil)

	contentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeContentID(contentID))

	content, err := h.contentService.GetContent(ctx, contentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// Recommendations handles GET /api/v1/content/recommendations/:subject
func (h *ContentHandler) Recommendations(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "content_recommendations")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := defaultContentRecommendations
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxContentRecommendations {
			HandleValidationError(c, "limit", raw, "must be an integer between 1 and 20")
			return
		}
		limit = parsed
	}

	recs, err := h.contentService.Recommendations(ctx, userID, c.Param("subject"), limit)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// RecordInteraction handles POST /api/v1/content/interactions
func (h *ContentHandler) RecordInteraction(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "record_content_interaction")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	interaction, err := h.contentService.RecordInteraction(ctx, userID, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, interaction)
}

// MyInteractions handles GET /api/v1/content/interactions/my
func (h *ContentHandler) MyInteractions(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "my_content_interactions")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := parsePage(c, services.MaxPageLimit)
	if !ok {
		return
	}

	interactions, err := h.contentService.MyInteractions(ctx, userID, strings.TrimSpace(c.Query("interaction_type")), page)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, interactions)
}

// Progress handles GET /api/v1/content/interactions/:content_id/progress
func (h *ContentHandler) Progress(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "content_progress")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	contentID, ok := parseIDParam(c, "content_id")
	if !ok {
		return
	}

	progress, err := h.contentService.Progress(ctx, userID, contentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Rate handles POST /api/v1/content/:id/rate
func (h *ContentHandler) Rate(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "rate_content")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	contentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.contentService.Rate(ctx, userID, contentID, req.Rating)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Subjects handles GET /api/v1/content/subjects/list
func (h *ContentHandler) Subjects(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "content_subjects")
	defer observability.FinishSpan(span, nil)

	subjects, err := h.contentService.Subjects(ctx)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}

// EngagementAnalytics handles GET /api/v1/content/analytics/engagement
func (h *ContentHandler) EngagementAnalytics(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "content_engagement_analytics")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, ok := parseDays(c, defaultDays)
	if !ok {
		return
	}

	engagement, err := h.contentService.EngagementAnalytics(ctx, userID, days)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, engagement)
}
