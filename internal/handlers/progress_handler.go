package handlers

import (
	"net/http"
	"strings"

	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

// ProgressHandler handles mastery, achievement and trend HTTP requests
type ProgressHandler struct {
	progressService services.ProgressServiceInterface
	logger          *observability.Logger
}

// NewProgressHandler creates a new ProgressHandler instance
func NewProgressHandler(progressService services.ProgressServiceInterface, logger *observability.Logger) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, logger: logger}
}

// SubjectsProgress handles GET /api/v1/progress/subjects
func (h *ProgressHandler) SubjectsProgress(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "subjects_progress")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	progress, err := h.progressService.SubjectsProgress(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// SubjectProgress handles GET /api/v1/progress/subject/:subject
func (h *ProgressHandler) SubjectProgress(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "subject_progress")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	subject := c.Param("subject")
	span.SetAttributes(observability.AttributeSubject(subject))

	progress, err := h.progressService.SubjectProgress(ctx, userID, subject)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Dashboard handles GET /api/v1/progress/dashboard
func (h *ProgressHandler) Dashboard(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "progress_dashboard")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.progressService.Dashboard(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Achievements handles GET /api/v1/progress/achievements
func (h *ProgressHandler) Achievements(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "achievements")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	unlockedOnly, ok := parseBoolQuery(c, "unlocked_only", false)
	if !ok {
		return
	}

	achievements, err := h.progressService.Achievements(ctx, userID, unlockedOnly)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, achievements)
}

// CheckAchievements handles POST /api/v1/progress/achievements/check
func (h *ProgressHandler) CheckAchievements(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "check_achievements")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.progressService.CheckAchievements(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "Achievement check failed", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Trends handles GET /api/v1/progress/analytics/trends
func (h *ProgressHandler) Trends(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "progress_trends")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, ok := parseDays(c, trendDays)
	if !ok {
		return
	}

	trends, err := h.progressService.Trends(ctx, userID, days, strings.TrimSpace(c.Query("subject")))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}
