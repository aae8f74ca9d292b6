package handlers

import (
	"net/http"

	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

// LearningHandler handles learning session HTTP requests
type LearningHandler struct {
	learningService services.LearningServiceInterface
	logger          *observability.Logger
}

// NewLearningHandler creates a new LearningHandler instance
func NewLearningHandler(learningService services.LearningServiceInterface, logger *observability.Logger) *LearningHandler {
	return &LearningHandler{learningService: learningService, logger: logger}
}

// CreateSession handles POST /api/v1/learning/sessions
func (h *LearningHandler) CreateSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_learning_session")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	session, err := h.learningService.CreateSession(ctx, userID, req)
	if err != nil {
		h.logger.Error(ctx, "Failed to create learning session", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// ListSessions handles GET /api/v1/learning/sessions
func (h *LearningHandler) ListSessions(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_learning_sessions")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := parsePage(c, services.MaxPageLimit)
	if !ok {
		return
	}
	var filter services.SessionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handleBindError(c, err)
		return
	}

	sessions, err := h.learningService.ListSessions(ctx, userID, filter, page)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/learning/sessions/:id
func (h *LearningHandler) GetSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_learning_session")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeSessionID(sessionID))

	session, err := h.learningService.GetSession(ctx, userID, sessionID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdateSession handles PUT /api/v1/learning/sessions/:id
func (h *LearningHandler) UpdateSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "update_learning_session")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	session, err := h.learningService.UpdateSession(ctx, userID, sessionID, req)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CompleteSession handles POST /api/v1/learning/sessions/:id/complete
func (h *LearningHandler) CompleteSession(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "complete_learning_session")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.learningService.CompleteSession(ctx, userID, sessionID)
	if err != nil {
		h.logger.Warn(ctx, "Failed to complete learning session", map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
			"error":      err.Error(),
		})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Learning session completed successfully", "session": session})
}

// StudyPlan handles GET /api/v1/learning/study-plan
func (h *LearningHandler) StudyPlan(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "study_plan")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	plan, err := h.learningService.StudyPlan(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Dashboard handles GET /api/v1/learning/dashboard
func (h *LearningHandler) Dashboard(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "learning_dashboard")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.learningService.Dashboard(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
