package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"learnapp/internal/config"
	"learnapp/internal/middleware"
	"learnapp/internal/observability"
	"learnapp/internal/services"
	contextutils "learnapp/internal/utils"
)

// ServiceName identifies this API in traces, logs and the route listing
const ServiceName = "learnapp-backend"

// RouterServices groups the domain services the API routes delegate to.
type RouterServices struct {
	Auth           services.AuthServiceInterface
	User           services.UserServiceInterface
	Learning       services.LearningServiceInterface
	Assessment     services.AssessmentServiceInterface
	Content        services.ContentServiceInterface
	Progress       services.ProgressServiceInterface
	Recommendation services.RecommendationServiceInterface
	Analytics      services.AnalyticsServiceInterface
}

// NewRouter creates a new router with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	svc RouterServices,
	schemas *middleware.SchemaLoader,
	db Pinger,
	logger *observability.Logger,
) *gin.Engine {
	// Setup Gin mode
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false
	router.HandleMethodNotAllowed = true

	router.Use(middleware.ErrorRecoveryMiddleware(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	router.Use(requestLogger(logger))

	// OpenTelemetry middleware for HTTP tracing and context propagation with automatic error attributes
	router.Use(observability.GinMiddlewareWithErrorHandling(ServiceName)...)

	// Setup CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	healthHandler := NewHealthHandler(db, ServiceName, logger)
	router.GET("/health", healthHandler.Health)
	router.GET("/version", healthHandler.Version)

	authHandler := NewAuthHandler(svc.Auth, svc.User, logger)
	userHandler := NewUserHandler(svc.User, logger)
	learningHandler := NewLearningHandler(svc.Learning, logger)
	assessmentHandler := NewAssessmentHandler(svc.Assessment, logger)
	contentHandler := NewContentHandler(svc.Content, logger)
	progressHandler := NewProgressHandler(svc.Progress, logger)
	recommendationHandler := NewRecommendationHandler(svc.Recommendation, logger)
	analyticsHandler := NewAnalyticsHandler(svc.Analytics, logger)

	validate := func(schema string) gin.HandlerFunc {
		return middleware.RequestValidation(schemas, schema, logger)
	}
	requireAuth := middleware.RequireAuth(svc.Auth)

	v1 := router.Group(cfg.Server.APIPrefix)
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", validate("register"), authHandler.Register)
			auth.POST("/login", validate("login"), authHandler.Login)
			auth.POST("/refresh", validate("refresh"), authHandler.Refresh)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		users := v1.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", validate("profile_update"), userHandler.UpdateProfile)
			users.GET("/stats", userHandler.GetStats)
			users.POST("/change-password", validate("change_password"), userHandler.ChangePassword)
			users.DELETE("/account", userHandler.DeleteAccount)
		}

		learning := v1.Group("/learning")
		learning.Use(requireAuth)
		{
			learning.POST("/sessions", validate("session_create"), learningHandler.CreateSession)
			learning.GET("/sessions", learningHandler.ListSessions)
			learning.GET("/sessions/:id", learningHandler.GetSession)
			learning.PUT("/sessions/:id", validate("session_update"), learningHandler.UpdateSession)
			learning.POST("/sessions/:id/complete", learningHandler.CompleteSession)
			learning.GET("/study-plan", learningHandler.StudyPlan)
			learning.GET("/dashboard", learningHandler.Dashboard)
		}

		assessments := v1.Group("/assessments")
		assessments.Use(requireAuth)
		{
			assessments.POST("", validate("assessment_create"), assessmentHandler.CreateAssessment)
			assessments.GET("", assessmentHandler.ListAssessments)
			assessments.GET("/analytics/performance", assessmentHandler.PerformanceAnalytics)
			assessments.GET("/:id", assessmentHandler.GetAssessment)
			assessments.GET("/:id/questions", assessmentHandler.GetQuestions)
			assessments.POST("/:id/start", assessmentHandler.StartAssessment)
			assessments.POST("/:id/submit", validate("assessment_submit"), assessmentHandler.SubmitAssessment)
			assessments.GET("/:id/results", assessmentHandler.GetResults)
		}

		content := v1.Group("/content")
		content.Use(requireAuth)
		{
			content.POST("", validate("content_create"), contentHandler.CreateContent)
			content.GET("", contentHandler.ListContent)
			content.GET("/subjects/list", contentHandler.Subjects)
			content.GET("/analytics/engagement", contentHandler.EngagementAnalytics)
			content.GET("/recommendations/:subject", contentHandler.Recommendations)
			content.POST("/interactions", validate("interaction"), contentHandler.RecordInteraction)
			content.GET("/interactions/my", contentHandler.MyInteractions)
			content.GET("/interactions/:content_id/progress", contentHandler.Progress)
			content.GET("/:id", contentHandler.GetContent)
			content.POST("/:id/rate", validate("rating"), contentHandler.Rate)
		}

		progress := v1.Group("/progress")
		progress.Use(requireAuth)
		{
			progress.GET("/subjects", progressHandler.SubjectsProgress)
			progress.GET("/subject/:subject", progressHandler.SubjectProgress)
			progress.GET("/dashboard", progressHandler.Dashboard)
			progress.GET("/achievements", progressHandler.Achievements)
			progress.POST("/achievements/check", progressHandler.CheckAchievements)
			progress.GET("/analytics/trends", progressHandler.Trends)
		}

		recommendations := v1.Group("/recommendations")
		recommendations.Use(requireAuth)
		{
			recommendations.GET("", recommendationHandler.List)
			recommendations.POST("/generate", recommendationHandler.Generate)
			recommendations.GET("/analytics/effectiveness", recommendationHandler.Effectiveness)
			recommendations.GET("/:id", recommendationHandler.Get)
			recommendations.POST("/:id/respond", validate("recommendation_respond"), recommendationHandler.Respond)
			recommendations.POST("/:id/complete",
				middleware.OptionalRequestValidation(schemas, "recommendation_complete", logger), recommendationHandler.Complete)
			recommendations.DELETE("/:id", recommendationHandler.Dismiss)
		}

		analytics := v1.Group("/analytics")
		analytics.Use(requireAuth)
		{
			analytics.GET("/overview", analyticsHandler.Overview)
			analytics.GET("/subjects", analyticsHandler.Subjects)
			analytics.GET("/performance-trends", analyticsHandler.PerformanceTrends)
			analytics.GET("/learning-patterns", analyticsHandler.LearningPatterns)
			analytics.GET("/content-engagement", analyticsHandler.ContentEngagement)
			analytics.GET("/recommendations-effectiveness", analyticsHandler.RecommendationsEffectiveness)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeRecordNotFound,
			contextutils.SeverityInfo, "route not found", c.Request.Method+" "+c.Request.URL.Path))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"code":    "METHOD_NOT_ALLOWED",
			"message": "method not allowed",
			"details": c.Request.Method + " " + c.Request.URL.Path,
		})
	})

	// Automatic route listing at root path
	routeListing := NewRouteListingHandler(ServiceName)
	router.GET("/", routeListing.GetRouteListingJSON)
	routeListing.CollectRoutes(router)

	return router
}

// requestLogger logs each request once at a level chosen by its status class.
func requestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.route":       c.FullPath(),
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
			"request_id":       c.GetString(middleware.RequestIDKey),
		}
		if userID, ok := middleware.GetUserID(c); ok {
			fields["user_id"] = userID
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
