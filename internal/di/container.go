// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"learnapp/internal/config"
	"learnapp/internal/database"
	"learnapp/internal/handlers"
	"learnapp/internal/middleware"
	"learnapp/internal/observability"
	"learnapp/internal/services"
	"learnapp/internal/userlock"
	contextutils "learnapp/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetAuthService() (services.AuthServiceInterface, error)
	GetUserService() (services.UserServiceInterface, error)
	GetLearningService() (services.LearningServiceInterface, error)
	GetAssessmentService() (services.AssessmentServiceInterface, error)
	GetContentService() (services.ContentServiceInterface, error)
	GetProgressService() (services.ProgressServiceInterface, error)
	GetRecommendationService() (services.RecommendationServiceInterface, error)
	GetAnalyticsService() (services.AnalyticsServiceInterface, error)
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Router() (*gin.Engine, error)
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	EnsureAdminUser(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	gormDB        *gorm.DB
	locker        userlock.Locker
	schemas       *middleware.SchemaLoader
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	schemas, err := middleware.LoadEmbeddedSchemas()
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to load request schemas")
	}
	sc.schemas = schemas

	// Initialize database
	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDBWithConfig(sc.cfg.Database)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	gormDB, err := database.OpenGorm(db, sc.logger)
	if err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to open gorm")
	}
	sc.gormDB = gormDB

	locker, closeLocker, err := userlock.New(ctx, sc.cfg.Redis, sc.logger)
	if err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to initialize user locks")
	}
	sc.locker = locker
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return closeLocker()
	})

	sc.initializeServices(ctx)
	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetAuthService returns the auth service
func (sc *ServiceContainer) GetAuthService() (services.AuthServiceInterface, error) {
	return GetServiceAs[services.AuthServiceInterface](sc, "auth")
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (services.UserServiceInterface, error) {
	return GetServiceAs[services.UserServiceInterface](sc, "user")
}

// GetLearningService returns the learning service
func (sc *ServiceContainer) GetLearningService() (services.LearningServiceInterface, error) {
	return GetServiceAs[services.LearningServiceInterface](sc, "learning")
}

// GetAssessmentService returns the assessment service
func (sc *ServiceContainer) GetAssessmentService() (services.AssessmentServiceInterface, error) {
	return GetServiceAs[services.AssessmentServiceInterface](sc, "assessment")
}

// GetContentService returns the content service
func (sc *ServiceContainer) GetContentService() (services.ContentServiceInterface, error) {
	return GetServiceAs[services.ContentServiceInterface](sc, "content")
}

// GetProgressService returns the progress service
func (sc *ServiceContainer) GetProgressService() (services.ProgressServiceInterface, error) {
	return GetServiceAs[services.ProgressServiceInterface](sc, "progress")
}

// GetRecommendationService returns the recommendation service
func (sc *ServiceContainer) GetRecommendationService() (services.RecommendationServiceInterface, error) {
	return GetServiceAs[services.RecommendationServiceInterface](sc, "recommendation")
}

// GetAnalyticsService returns the analytics service
func (sc *ServiceContainer) GetAnalyticsService() (services.AnalyticsServiceInterface, error) {
	return GetServiceAs[services.AnalyticsServiceInterface](sc, "analytics")
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Router builds the HTTP router from the initialized services.
func (sc *ServiceContainer) Router() (*gin.Engine, error) {
	var (
		svc handlers.RouterServices
		err error
	)
	if svc.Auth, err = sc.GetAuthService(); err != nil {
		return nil, err
	}
	if svc.User, err = sc.GetUserService(); err != nil {
		return nil, err
	}
	if svc.Learning, err = sc.GetLearningService(); err != nil {
		return nil, err
	}
	if svc.Assessment, err = sc.GetAssessmentService(); err != nil {
		return nil, err
	}
	if svc.Content, err = sc.GetContentService(); err != nil {
		return nil, err
	}
	if svc.Progress, err = sc.GetProgressService(); err != nil {
		return nil, err
	}
	if svc.Recommendation, err = sc.GetRecommendationService(); err != nil {
		return nil, err
	}
	if svc.Analytics, err = sc.GetAnalyticsService(); err != nil {
		return nil, err
	}

	return handlers.NewRouter(sc.cfg, svc, sc.schemas, sc.db, sc.logger), nil
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs shutdown functions in reverse order of registration
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errors []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errors = append(errors, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errors) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errors)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(_ context.Context) {
	sc.services["auth"] = services.NewAuthServiceWithLogger(sc.gormDB, sc.cfg.Auth, sc.logger)
	sc.services["user"] = services.NewUserServiceWithLogger(sc.gormDB, sc.cfg, sc.logger)
	sc.services["learning"] = services.NewLearningServiceWithLogger(sc.gormDB, sc.logger)
	sc.services["assessment"] = services.NewAssessmentServiceWithLogger(sc.gormDB, sc.logger)

	// Services that mutate shared per-user aggregates serialize through the locker
	sc.services["content"] = services.NewContentServiceWithLogger(sc.gormDB, sc.locker, sc.logger)
	sc.services["progress"] = services.NewProgressServiceWithLogger(sc.gormDB, sc.locker, sc.logger)
	sc.services["recommendation"] = services.NewRecommendationServiceWithLogger(sc.gormDB, sc.locker, sc.logger)

	sc.services["analytics"] = services.NewAnalyticsServiceWithLogger(sc.gormDB, sc.logger)
}

// EnsureAdminUser creates the admin user if it doesn't exist
func (sc *ServiceContainer) EnsureAdminUser(ctx context.Context) error {
	userService, err := sc.GetUserService()
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to get user service")
	}

	return userService.EnsureAdminUserExists(ctx, sc.cfg.Server.AdminUsername, sc.cfg.Server.AdminPassword, sc.cfg.Server.AdminEmail)
}
