//go:build integration
// +build integration

package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"learnapp/internal/config"
	"learnapp/internal/database"
	"learnapp/internal/models"
	"learnapp/internal/observability"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SharedTestDBSetup provides a clean, migrated database for each integration test.
func SharedTestDBSetup(t *testing.T) *gorm.DB {
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	dbManager := database.NewManager(logger)

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Fatal("TEST_DATABASE_URL environment variable must be set for integration tests")
	}

	sqlDB, err := dbManager.InitDB(databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := database.OpenGorm(sqlDB, logger)
	require.NoError(t, err)

	CleanupTestDatabase(db, t)
	return db
}

// CleanupTestDatabase truncates every table and resets identities.
func CleanupTestDatabase(db *gorm.DB, t *testing.T) {
	err := db.Exec(`TRUNCATE TABLE
		answers, questions, assessments,
		content_interactions, recommendations, content,
		achievements, progress, learning_sessions,
		user_tokens, users
		RESTART IDENTITY CASCADE`).Error
	require.NoError(t, err)
}

// createTestUser inserts an active user with password "password123".
func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:                 fmt.Sprintf("%s@example.com", username),
		Username:              username,
		FullName:              "Test " + username,
		HashedPassword:        string(hash),
		IsActive:              true,
		SubjectsOfInterest:    pq.StringArray{"math"},
		PreferredDifficulty:   models.DifficultyMedium,
		DailyStudyGoalMinutes: 60,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}

func createTestContent(t *testing.T, db *gorm.DB, title, subject string, contentType models.ContentType, difficulty models.Difficulty) *models.Content {
	content := &models.Content{
		Title:              title,
		ContentType:        contentType,
		Subject:            subject,
		DifficultyLevel:    difficulty,
		LearningObjectives: pq.StringArray{},
		IsActive:           true,
	}
	require.NoError(t, db.Create(content).Error)
	return content
}

func createTestSession(t *testing.T, db *gorm.DB, userID int, subject string, start time.Time, minutes int, completed bool) *models.LearningSession {
	session := &models.LearningSession{
		UserID:                 userID,
		Subject:                subject,
		SessionType:            models.SessionTypeStudy,
		DifficultyLevel:        models.DifficultyMedium,
		StartTime:              start,
		DurationMinutes:        &minutes,
		PlannedDurationMinutes: 60,
		IsCompleted:            completed,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func reloadUser(t *testing.T, db *gorm.DB, id int) models.User {
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return user
}
