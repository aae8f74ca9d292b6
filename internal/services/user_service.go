package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"learnapp/internal/config"
	"learnapp/internal/models"
	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserServiceInterface defines the interface for user-related operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (*models.User, error)
	GetStats(ctx context.Context, userID int) (*UserStats, error)
	ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error
	DeactivateUser(ctx context.Context, userID int) error
	ResetPassword(ctx context.Context, userID int, newPassword string) error
	ListUsers(ctx context.Context, page Page, activeOnly bool) ([]models.User, int64, error)
	EnsureAdminUserExists(ctx context.Context, username, password, email string) error
}

// UpdateProfileRequest is a partial profile update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	FullName              *string   `json:"full_name" binding:"omitempty,min=1,max=255"`
	Bio                   *string   `json:"bio" binding:"omitempty,max=2000"`
	GradeLevel            *string   `json:"grade_level" binding:"omitempty,max=64"`
	SubjectsOfInterest    *[]string `json:"subjects_of_interest" binding:"omitempty,max=20,dive,max=128"`
	PreferredDifficulty   *string   `json:"preferred_difficulty" binding:"omitempty,oneof=easy medium hard expert"`
	DailyStudyGoalMinutes *int      `json:"daily_study_goal_minutes" binding:"omitempty,min=1,max=1440"`
	PreferredStudyTime    *string   `json:"preferred_study_time" binding:"omitempty,oneof=morning afternoon evening night"`
}

// UserStats summarises a user's running aggregates.
type UserStats struct {
	TotalStudyTimeMinutes     int     `json:"total_study_time_minutes"`
	TotalAssessmentsCompleted int     `json:"total_assessments_completed"`
	AverageScore              float64 `json:"average_score"`
	StreakDays                int     `json:"streak_days"`
	AchievementsCount         int64   `json:"achievements_count"`
	LearningSessionsCount     int64   `json:"learning_sessions_count"`
}

// UserService provides methods for user management.
type UserService struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *observability.Logger
}

// NewUserServiceWithLogger creates a new UserService instance with logger
func NewUserServiceWithLogger(db *gorm.DB, cfg *config.Config, logger *observability.Logger) *UserService {
	return &UserService{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *UserService) bcryptCost() int {
	if s.cfg == nil || s.cfg.Auth.BcryptCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.Auth.BcryptCost
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_username", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields of req.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req UpdateProfileRequest) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_profile", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.GradeLevel != nil {
		updates["grade_level"] = *req.GradeLevel
	}
	if req.SubjectsOfInterest != nil {
		updates["subjects_of_interest"] = pq.StringArray(*req.SubjectsOfInterest)
	}
	if req.PreferredDifficulty != nil {
		updates["preferred_difficulty"] = models.ParseDifficulty(*req.PreferredDifficulty)
	}
	if req.DailyStudyGoalMinutes != nil {
		updates["daily_study_goal_minutes"] = *req.DailyStudyGoalMinutes
	}
	if req.PreferredStudyTime != nil {
		updates["preferred_study_time"] = models.ParseTimeOfDay(*req.PreferredStudyTime)
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, translateError(res.Error, "user")
		}
		if res.RowsAffected == 0 {
			return nil, notFound("user")
		}
	}
	return s.GetUserByID(ctx, userID)
}

// GetStats returns the user's aggregates with achievement and session counts.
func (s *UserService) GetStats(ctx context.Context, userID int) (result0 *UserStats, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_stats", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		TotalStudyTimeMinutes:     user.TotalStudyTimeMinutes,
		TotalAssessmentsCompleted: user.TotalAssessmentsCompleted,
		AverageScore:              user.AverageScore,
		StreakDays:                user.StreakDays,
	}
	if err := s.db.WithContext(ctx).Model(&models.Achievement{}).
		Where("user_id = ? AND is_unlocked = ?", userID, true).
		Count(&stats.AchievementsCount).Error; err != nil {
		return nil, translateError(err, "achievement")
	}
	if err := s.db.WithContext(ctx).Model(&models.LearningSession{}).
		Where("user_id = ?", userID).
		Count(&stats.LearningSessionsCount).Error; err != nil {
		return nil, translateError(err, "learning session")
	}
	return stats, nil
}

// ChangePassword verifies the current password before replacing it.
func (s *UserService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "change_password", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(currentPassword)) != nil {
		return contextutils.ErrInvalidCredentials
	}
	return s.ResetPassword(ctx, userID, newPassword)
}

// ResetPassword sets a new password without checking the old one.
func (s *UserService) ResetPassword(ctx context.Context, userID int, newPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "reset_password", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if len(newPassword) < 8 {
		return validationFailed("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost())
	if err != nil {
		return contextutils.WrapError(err, "failed to hash password")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("hashed_password", string(hash))
	if res.Error != nil {
		return translateError(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return notFound("user")
	}
	return nil
}

// DeactivateUser soft-deletes the account and revokes its refresh tokens.
func (s *UserService) DeactivateUser(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "deactivate_user", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("is_active", false)
		if res.Error != nil {
			return translateError(res.Error, "user")
		}
		if res.RowsAffected == 0 {
			return notFound("user")
		}
		return revokeUserTokens(tx, userID, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "User deactivated", map[string]interface{}{"user_id": userID})
	return nil
}

// ListUsers returns users ordered by id together with the total count.
func (s *UserService) ListUsers(ctx context.Context, page Page, activeOnly bool) (result0 []models.User, result1 int64, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "list_users",
		observability.AttributeLimit(page.Limit), observability.AttributeOffset(page.Offset))
	defer observability.FinishSpan(span, &err)

	page = page.Normalize(MaxPageLimit)
	query := s.db.WithContext(ctx).Model(&models.User{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "user")
	}

	var users []models.User
	if err := page.apply(query.Order("id")).Find(&users).Error; err != nil {
		return nil, 0, translateError(err, "user")
	}
	return users, total, nil
}

// EnsureAdminUserExists creates the configured admin account when it is missing.
func (s *UserService) EnsureAdminUserExists(ctx context.Context, username, password, email string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "ensure_admin_user_exists", attribute.String("admin.username", username))
	defer observability.FinishSpan(span, &err)

	if username == "" || password == "" {
		return nil
	}

	_, err = s.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	var appErr *contextutils.AppError
	if !errors.As(err, &appErr) || appErr.Code != contextutils.ErrorCodeRecordNotFound {
		return err
	}

	if email == "" {
		email = username + "@localhost"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost())
	if err != nil {
		return contextutils.WrapError(err, "failed to hash admin password")
	}

	admin := &models.User{
		Email:                 strings.ToLower(email),
		Username:              username,
		FullName:              "Administrator",
		HashedPassword:        string(hash),
		IsActive:              true,
		IsVerified:            true,
		SubjectsOfInterest:    pq.StringArray{},
		PreferredDifficulty:   models.DifficultyMedium,
		DailyStudyGoalMinutes: 60,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return translateError(err, "user")
	}

	s.logger.Info(ctx, "Admin user created", map[string]interface{}{"username": username})
	return nil
}
