// Package models defines the persisted entities of the learning platform.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User is an account together with its learning preferences and running aggregates.
type User struct {
	ID                        int            `gorm:"primaryKey;column:id" json:"id"`
	Email                     string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Username                  string         `gorm:"uniqueIndex;not null;column:username" json:"username"`
	FullName                  string         `gorm:"not null;column:full_name" json:"full_name"`
	HashedPassword            string         `gorm:"not null;column:hashed_password" json:"-"`
	IsActive                  bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	IsVerified                bool           `gorm:"not null;default:false;column:is_verified" json:"is_verified"`
	Bio                       *string        `gorm:"column:bio" json:"bio"`
	AvatarURL                 *string        `gorm:"column:avatar_url" json:"avatar_url"`
	GradeLevel                *string        `gorm:"column:grade_level" json:"grade_level"`
	SubjectsOfInterest        pq.StringArray `gorm:"type:text[];not null;default:'{}';column:subjects_of_interest" json:"subjects_of_interest"`
	PreferredDifficulty       Difficulty     `gorm:"not null;default:medium;column:preferred_difficulty" json:"preferred_difficulty"`
	DailyStudyGoalMinutes     int            `gorm:"not null;default:60;column:daily_study_goal_minutes" json:"daily_study_goal_minutes"`
	PreferredStudyTime        *TimeOfDay     `gorm:"column:preferred_study_time" json:"preferred_study_time"`
	TotalStudyTimeMinutes     int            `gorm:"not null;default:0;column:total_study_time_minutes" json:"total_study_time_minutes"`
	TotalAssessmentsCompleted int            `gorm:"not null;default:0;column:total_assessments_completed" json:"total_assessments_completed"`
	AverageScore              float64        `gorm:"not null;default:0;column:average_score" json:"average_score"`
	StreakDays                int            `gorm:"not null;default:0;column:streak_days" json:"streak_days"`
	LastActivity              *time.Time     `gorm:"column:last_activity" json:"last_activity"`
	CreatedAt                 time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt                 time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserToken records an issued refresh token so it can be revoked.
type UserToken struct {
	ID        int        `gorm:"primaryKey;column:id"`
	UserID    int        `gorm:"index;not null;column:user_id"`
	TokenID   uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null;column:token_id"`
	ExpiresAt time.Time  `gorm:"not null;column:expires_at"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	CreatedAt time.Time  `gorm:"not null;column:created_at"`
}

func (UserToken) TableName() string {
	return "user_tokens"
}

// IsUsable reports whether the token may still be exchanged at now.
func (t UserToken) IsUsable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
