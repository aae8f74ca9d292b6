package models

import (
	"time"

	"gorm.io/datatypes"
)

// Progress is a rolling mastery record for a user on a subject and optional topic.
type Progress struct {
	ID                     int        `gorm:"primaryKey;column:id" json:"id"`
	UserID                 int        `gorm:"index;not null;column:user_id" json:"user_id"`
	Subject                string     `gorm:"not null;column:subject" json:"subject"`
	Topic                  *string    `gorm:"column:topic" json:"topic"`
	SkillLevel             float64    `gorm:"not null;default:0;column:skill_level" json:"skill_level"`
	MasteryScore           float64    `gorm:"not null;default:0;column:mastery_score" json:"mastery_score"`
	ConfidenceLevel        float64    `gorm:"not null;default:0;column:confidence_level" json:"confidence_level"`
	TimeSpentMinutes       int        `gorm:"not null;default:0;column:time_spent_minutes" json:"time_spent_minutes"`
	LastStudiedAt          *time.Time `gorm:"column:last_studied_at" json:"last_studied_at"`
	StreakDays             int        `gorm:"not null;default:0;column:streak_days" json:"streak_days"`
	LongestStreak          int        `gorm:"not null;default:0;column:longest_streak" json:"longest_streak"`
	TotalSessions          int        `gorm:"not null;default:0;column:total_sessions" json:"total_sessions"`
	CompletedSessions      int        `gorm:"not null;default:0;column:completed_sessions" json:"completed_sessions"`
	ImprovementRate        float64    `gorm:"not null;default:0;column:improvement_rate" json:"improvement_rate"`
	CurrentDifficulty      Difficulty `gorm:"not null;default:easy;column:current_difficulty" json:"current_difficulty"`
	TotalAssessments       int        `gorm:"not null;default:0;column:total_assessments" json:"total_assessments"`
	AverageAssessmentScore float64    `gorm:"not null;default:0;column:average_assessment_score" json:"average_assessment_score"`
	IsCompleted            bool       `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
	IsMastered             bool       `gorm:"not null;default:false;column:is_mastered" json:"is_mastered"`
	NeedsReview            bool       `gorm:"not null;default:false;column:needs_review" json:"needs_review"`
	IsStruggling           bool       `gorm:"not null;default:false;column:is_struggling" json:"is_struggling"`
	CreatedAt              time.Time  `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}

// Achievement is an unlocked milestone. (user, type, threshold) is unique.
type Achievement struct {
	ID                 int             `gorm:"primaryKey;column:id" json:"id"`
	UserID             int             `gorm:"not null;column:user_id" json:"user_id"`
	AchievementType    AchievementType `gorm:"not null;column:achievement_type" json:"achievement_type"`
	Title              string          `gorm:"not null;column:title" json:"title"`
	Description        string          `gorm:"not null;column:description" json:"description"`
	BadgeIcon          *string         `gorm:"column:badge_icon" json:"badge_icon"`
	Category           string          `gorm:"not null;column:category" json:"category"`
	ThresholdValue     float64         `gorm:"not null;column:threshold_value" json:"threshold_value"`
	ThresholdUnit      *string         `gorm:"column:threshold_unit" json:"threshold_unit"`
	Subject            *string         `gorm:"column:subject" json:"subject"`
	DifficultyLevel    string          `gorm:"not null;default:medium;column:difficulty_level" json:"difficulty_level"`
	Rarity             string          `gorm:"not null;default:common;column:rarity" json:"rarity"`
	PointsAwarded      int             `gorm:"not null;default:10;column:points_awarded" json:"points_awarded"`
	CurrentProgress    float64         `gorm:"not null;default:0;column:current_progress" json:"current_progress"`
	RequiredProgress   float64         `gorm:"not null;column:required_progress" json:"required_progress"`
	ProgressPercentage float64         `gorm:"not null;default:0;column:progress_percentage" json:"progress_percentage"`
	IsUnlocked         bool            `gorm:"not null;default:false;column:is_unlocked" json:"is_unlocked"`
	UnlockedAt         *time.Time      `gorm:"column:unlocked_at" json:"unlocked_at"`
	EvidenceData       datatypes.JSON  `gorm:"type:jsonb;column:evidence_data" json:"evidence_data,omitempty"`
	CreatedAt          time.Time       `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}
