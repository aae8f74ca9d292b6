package handlers

import (
	"net/http"
	"strings"

	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

// AssessmentHandler handles assessment HTTP requests
type AssessmentHandler struct {
	assessmentService services.AssessmentServiceInterface
	logger            *observability.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler instance
func NewAssessmentHandler(assessmentService services.AssessmentServiceInterface, logger *observability.Logger) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService, logger: logger}
}

// CreateAssessment handles POST /api/v1/assessments
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "create_assessment")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	assessment, err := h.assessmentService.CreateAssessment(ctx, userID, req)
	if err != nil {
		h.logger.Error(ctx, "Failed to create assessment", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessment)
}

// ListAssessments handles GET /api/v1/assessments
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "list_assessments")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := parsePage(c, services.MaxPageLimit)
	if !ok {
		return
	}
	var filter services.AssessmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handleBindError(c, err)
		return
	}

	assessments, err := h.assessmentService.ListAssessments(ctx, userID, filter, page)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessments)
}

// GetAssessment handles GET /api/v1/assessments/:id
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_assessment")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeAssessmentID(assessmentID))

	assessment, err := h.assessmentService.GetAssessment(ctx, userID, assessmentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// GetQuestions handles GET /api/v1/assessments/:id/questions
func (h *AssessmentHandler) GetQuestions(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_assessment_questions")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	questions, err := h.assessmentService.GetQuestions(ctx, userID, assessmentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

// StartAssessment handles POST /api/v1/assessments/:id/start
func (h *AssessmentHandler) StartAssessment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "start_assessment")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	assessment, err := h.assessmentService.StartAssessment(ctx, userID, assessmentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assessment started successfully", "assessment": assessment})
}

// SubmitAssessment handles POST /api/v1/assessments/:id/submit
func (h *AssessmentHandler) SubmitAssessment(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_assessment")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeAssessmentID(assessmentID))

	var req services.SubmitAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	result, err := h.assessmentService.SubmitAssessment(ctx, userID, assessmentID, req)
	if err != nil {
		h.logger.Warn(ctx, "Assessment submission rejected", map[string]interface{}{
			"user_id":       userID,
			"assessment_id": assessmentID,
			"error":         err.Error(),
		})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetResults handles GET /api/v1/assessments/:id/results
func (h *AssessmentHandler) GetResults(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_assessment_results")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	results, err := h.assessmentService.GetResults(ctx, userID, assessmentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// PerformanceAnalytics handles GET /api/v1/assessments/analytics/performance
func (h *AssessmentHandler) PerformanceAnalytics(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "assessment_performance_analytics")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, ok := parseDays(c, defaultDays)
	if !ok {
		return
	}

	analytics, err := h.assessmentService.PerformanceAnalytics(ctx, userID, days, strings.TrimSpace(c.Query("subject")))
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}
