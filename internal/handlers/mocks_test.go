package handlers

import (
	"context"

	"learnapp/internal/models"
	"learnapp/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockAuthService is a testify double for services.AuthServiceInterface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req services.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, identifier, password string) (*services.TokenPair, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthService) ParseAccessToken(tokenString string) (int, error) {
	args := m.Called(tokenString)
	return args.Int(0), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, tokenString string) (int, error) {
	args := m.Called(ctx, tokenString)
	return args.Int(0), args.Error(1)
}

// MockUserService is a testify double for services.UserServiceInterface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID int, req services.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetStats(ctx context.Context, userID int) (*services.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.UserStats), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

func (m *MockUserService) DeactivateUser(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, userID int, newPassword string) error {
	args := m.Called(ctx, userID, newPassword)
	return args.Error(0)
}

func (m *MockUserService) ListUsers(ctx context.Context, page services.Page, activeOnly bool) ([]models.User, int64, error) {
	args := m.Called(ctx, page, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) EnsureAdminUserExists(ctx context.Context, username, password, email string) error {
	args := m.Called(ctx, username, password, email)
	return args.Error(0)
}

// MockLearningService is a testify double for services.LearningServiceInterface
type MockLearningService struct {
	mock.Mock
}

func (m *MockLearningService) CreateSession(ctx context.Context, userID int, req services.CreateSessionRequest) (*models.LearningSession, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningSession), args.Error(1)
}

func (m *MockLearningService) ListSessions(ctx context.Context, userID int, filter services.SessionFilter, page services.Page) ([]models.LearningSession, error) {
	args := m.Called(ctx, userID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LearningSession), args.Error(1)
}

func (m *MockLearningService) GetSession(ctx context.Context, userID, sessionID int) (*models.LearningSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningSession), args.Error(1)
}

func (m *MockLearningService) UpdateSession(ctx context.Context, userID, sessionID int, req services.UpdateSessionRequest) (*models.LearningSession, error) {
	args := m.Called(ctx, userID, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningSession), args.Error(1)
}

func (m *MockLearningService) CompleteSession(ctx context.Context, userID, sessionID int) (*models.LearningSession, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningSession), args.Error(1)
}

func (m *MockLearningService) StudyPlan(ctx context.Context, userID int) (*services.StudyPlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StudyPlan), args.Error(1)
}

func (m *MockLearningService) Dashboard(ctx context.Context, userID int) (*services.LearningDashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LearningDashboard), args.Error(1)
}

// MockAssessmentService is a testify double for services.AssessmentServiceInterface
type MockAssessmentService struct {
	mock.Mock
}

func (m *MockAssessmentService) CreateAssessment(ctx context.Context, userID int, req services.CreateAssessmentRequest) (*models.Assessment, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

func (m *MockAssessmentService) ListAssessments(ctx context.Context, userID int, filter services.AssessmentFilter, page services.Page) ([]models.Assessment, error) {
	args := m.Called(ctx, userID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Assessment), args.Error(1)
}

func (m *MockAssessmentService) GetAssessment(ctx context.Context, userID, assessmentID int) (*models.Assessment, error) {
	args := m.Called(ctx, userID, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

func (m *MockAssessmentService) GetQuestions(ctx context.Context, userID, assessmentID int) ([]models.Question, error) {
	args := m.Called(ctx, userID, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockAssessmentService) StartAssessment(ctx context.Context, userID, assessmentID int) (*models.Assessment, error) {
	args := m.Called(ctx, userID, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assessment), args.Error(1)
}

func (m *MockAssessmentService) SubmitAssessment(ctx context.Context, userID, assessmentID int, req services.SubmitAssessmentRequest) (*services.SubmissionResult, error) {
	args := m.Called(ctx, userID, assessmentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubmissionResult), args.Error(1)
}

func (m *MockAssessmentService) GetResults(ctx context.Context, userID, assessmentID int) (*services.AssessmentResults, error) {
	args := m.Called(ctx, userID, assessmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AssessmentResults), args.Error(1)
}

func (m *MockAssessmentService) PerformanceAnalytics(ctx context.Context, userID, days int, subject string) (*services.PerformanceAnalytics, error) {
	args := m.Called(ctx, userID, days, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PerformanceAnalytics), args.Error(1)
}

// MockContentService is a testify double for services.ContentServiceInterface
type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) CreateContent(ctx context.Context, req services.CreateContentRequest) (*models.Content, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockContentService) ListContent(ctx context.Context, filter services.ContentFilter, page services.Page) ([]models.Content, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Content), args.Error(1)
}

func (m *MockContentService) GetContent(ctx context.Context, contentID int) (*models.Content, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockContentService) Recommendations(ctx context.Context, userID int, subject string, limit int) (*services.ContentRecommendations, error) {
	args := m.Called(ctx, userID, subject, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ContentRecommendations), args.Error(1)
}

func (m *MockContentService) RecordInteraction(ctx context.Context, userID int, req services.InteractionRequest) (*models.ContentInteraction, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContentInteraction), args.Error(1)
}

func (m *MockContentService) MyInteractions(ctx context.Context, userID int, interactionType string, page services.Page) ([]models.ContentInteraction, error) {
	args := m.Called(ctx, userID, interactionType, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContentInteraction), args.Error(1)
}

func (m *MockContentService) Progress(ctx context.Context, userID, contentID int) (*services.ContentProgress, error) {
	args := m.Called(ctx, userID, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ContentProgress), args.Error(1)
}

func (m *MockContentService) Rate(ctx context.Context, userID, contentID, rating int) (*services.RatingResult, error) {
	args := m.Called(ctx, userID, contentID, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RatingResult), args.Error(1)
}

func (m *MockContentService) Subjects(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockContentService) EngagementAnalytics(ctx context.Context, userID, days int) (*services.ContentEngagement, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ContentEngagement), args.Error(1)
}

// MockProgressService is a testify double for services.ProgressServiceInterface
type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) SubjectsProgress(ctx context.Context, userID int) ([]models.Progress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Progress), args.Error(1)
}

func (m *MockProgressService) SubjectProgress(ctx context.Context, userID int, subject string) ([]models.Progress, error) {
	args := m.Called(ctx, userID, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Progress), args.Error(1)
}

func (m *MockProgressService) Dashboard(ctx context.Context, userID int) (*services.ProgressDashboard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProgressDashboard), args.Error(1)
}

func (m *MockProgressService) Achievements(ctx context.Context, userID int, unlockedOnly bool) ([]models.Achievement, error) {
	args := m.Called(ctx, userID, unlockedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Achievement), args.Error(1)
}

func (m *MockProgressService) CheckAchievements(ctx context.Context, userID int) (*services.AchievementCheckResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AchievementCheckResult), args.Error(1)
}

func (m *MockProgressService) Trends(ctx context.Context, userID, days int, subject string) (*services.ProgressTrends, error) {
	args := m.Called(ctx, userID, days, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProgressTrends), args.Error(1)
}

// MockRecommendationService is a testify double for services.RecommendationServiceInterface
type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) List(ctx context.Context, userID int, filter services.RecommendationFilter, page services.Page) ([]models.Recommendation, error) {
	args := m.Called(ctx, userID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recommendation), args.Error(1)
}

func (m *MockRecommendationService) Generate(ctx context.Context, userID int) (*services.GenerationResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerationResult), args.Error(1)
}

func (m *MockRecommendationService) Get(ctx context.Context, userID, recommendationID int) (*models.Recommendation, error) {
	args := m.Called(ctx, userID, recommendationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recommendation), args.Error(1)
}

func (m *MockRecommendationService) Respond(ctx context.Context, userID, recommendationID int, req services.RespondRequest) (*models.Recommendation, error) {
	args := m.Called(ctx, userID, recommendationID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recommendation), args.Error(1)
}

func (m *MockRecommendationService) Complete(ctx context.Context, userID, recommendationID int, req services.CompleteRecommendationRequest) (*models.Recommendation, error) {
	args := m.Called(ctx, userID, recommendationID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recommendation), args.Error(1)
}

func (m *MockRecommendationService) Effectiveness(ctx context.Context, userID, days int) (*services.RecommendationEffectiveness, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RecommendationEffectiveness), args.Error(1)
}

func (m *MockRecommendationService) Dismiss(ctx context.Context, userID, recommendationID int) error {
	args := m.Called(ctx, userID, recommendationID)
	return args.Error(0)
}

// MockAnalyticsService is a testify double for services.AnalyticsServiceInterface
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Overview(ctx context.Context, userID, days int) (*services.AnalyticsOverview, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalyticsOverview), args.Error(1)
}

func (m *MockAnalyticsService) Subjects(ctx context.Context, userID, days int) (*services.SubjectAnalyticsReport, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SubjectAnalyticsReport), args.Error(1)
}

func (m *MockAnalyticsService) PerformanceTrends(ctx context.Context, userID, days int, metric string) (*services.PerformanceTrends, error) {
	args := m.Called(ctx, userID, days, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PerformanceTrends), args.Error(1)
}

func (m *MockAnalyticsService) LearningPatterns(ctx context.Context, userID, days int) (*services.LearningPatternsReport, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LearningPatternsReport), args.Error(1)
}

func (m *MockAnalyticsService) ContentEngagement(ctx context.Context, userID, days int) (*services.ContentEngagementReport, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ContentEngagementReport), args.Error(1)
}

func (m *MockAnalyticsService) RecommendationsEffectiveness(ctx context.Context, userID, days int) (*services.RecommendationImpactReport, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RecommendationImpactReport), args.Error(1)
}
