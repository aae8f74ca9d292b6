//go:build integration
// +build integration

package services

import (
	"context"
	"testing"

	"learnapp/internal/config"
	"learnapp/internal/models"
	contextutils "learnapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newIntegrationUserService(t *testing.T) (*UserService, *gorm.DB) {
	db := SharedTestDBSetup(t)
	cfg := &config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	return NewUserServiceWithLogger(db, cfg, testLogger()), db
}

func TestUserService_UpdateProfile_Integration(t *testing.T) {
	service, db := newIntegrationUserService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "profile")

	updated, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		FullName:              ptr("  New Name "),
		SubjectsOfInterest:    &[]string{"physics", "chemistry"},
		PreferredDifficulty:   ptr("hard"),
		DailyStudyGoalMinutes: ptr(90),
		PreferredStudyTime:    ptr("evening"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	assert.Equal(t, []string{"physics", "chemistry"}, []string(updated.SubjectsOfInterest))
	assert.Equal(t, models.DifficultyHard, updated.PreferredDifficulty)
	assert.Equal(t, 90, updated.DailyStudyGoalMinutes)
	require.NotNil(t, updated.PreferredStudyTime)
	assert.Equal(t, models.TimeOfDay("evening"), *updated.PreferredStudyTime)

	unchanged, err := service.UpdateProfile(ctx, user.ID, UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, "New Name", unchanged.FullName)

	_, err = service.UpdateProfile(ctx, 99999, UpdateProfileRequest{Bio: ptr("ghost")})
	requireCode(t, err, contextutils.ErrorCodeRecordNotFound)
}

func TestUserService_GetStats_Integration(t *testing.T) {
	service, db := newIntegrationUserService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "stats")
	createTestSession(t, db, user.ID, "math", user.CreatedAt, 30, true)

	stats, err := service.GetStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.LearningSessionsCount)
	assert.Zero(t, stats.AchievementsCount)
}

func TestUserService_Passwords_Integration(t *testing.T) {
	service, db := newIntegrationUserService(t)
	ctx := context.Background()
	user := createTestUser(t, db, "secret")

	err := service.ChangePassword(ctx, user.ID, "wrong", "new password")
	requireCode(t, err, contextutils.ErrorCodeInvalidCredentials)

	err = service.ResetPassword(ctx, user.ID, "short")
	requireCode(t, err, contextutils.ErrorCodeValidationFailed)

	require.NoError(t, service.ChangePassword(ctx, user.ID, "password123", "new password"))
	reloaded, err := service.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reloaded.HashedPassword), []byte("new password")))
}

func TestUserService_DeactivateAndList_Integration(t *testing.T) {
	service, db := newIntegrationUserService(t)
	ctx := context.Background()
	first := createTestUser(t, db, "first")
	createTestUser(t, db, "second")

	require.NoError(t, service.DeactivateUser(ctx, first.ID))
	requireCode(t, service.DeactivateUser(ctx, 99999), contextutils.ErrorCodeRecordNotFound)

	all, total, err := service.ListUsers(ctx, Page{}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	active, total, err := service.ListUsers(ctx, Page{}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Username)
}

func TestUserService_EnsureAdminUserExists_Integration(t *testing.T) {
	service, _ := newIntegrationUserService(t)
	ctx := context.Background()

	require.NoError(t, service.EnsureAdminUserExists(ctx, "admin", "adminpass", ""))
	require.NoError(t, service.EnsureAdminUserExists(ctx, "admin", "different", ""))

	admin, err := service.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@localhost", admin.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.HashedPassword), []byte("adminpass")))
}
