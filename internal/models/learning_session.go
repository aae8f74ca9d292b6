package models

import "time"

// LearningSession is one study episode for a user on a subject and topic.
type LearningSession struct {
	ID                     int         `gorm:"primaryKey;column:id" json:"id"`
	UserID                 int         `gorm:"index;not null;column:user_id" json:"user_id"`
	Subject                string      `gorm:"not null;column:subject" json:"subject"`
	Topic                  *string     `gorm:"column:topic" json:"topic"`
	SessionType            SessionType `gorm:"not null;column:session_type" json:"session_type"`
	DifficultyLevel        Difficulty  `gorm:"not null;default:medium;column:difficulty_level" json:"difficulty_level"`
	StartTime              time.Time   `gorm:"not null;column:start_time" json:"start_time"`
	EndTime                *time.Time  `gorm:"column:end_time" json:"end_time"`
	DurationMinutes        *int        `gorm:"column:duration_minutes" json:"duration_minutes"`
	PlannedDurationMinutes int         `gorm:"not null;default:60;column:planned_duration_minutes" json:"planned_duration_minutes"`
	CompletionPercentage   float64     `gorm:"not null;default:0;column:completion_percentage" json:"completion_percentage"`
	FocusScore             *float64    `gorm:"column:focus_score" json:"focus_score"`
	ComprehensionScore     *float64    `gorm:"column:comprehension_score" json:"comprehension_score"`
	ActivitiesCompleted    int         `gorm:"not null;default:0;column:activities_completed" json:"activities_completed"`
	TotalActivities        int         `gorm:"not null;default:0;column:total_activities" json:"total_activities"`
	Notes                  *string     `gorm:"column:notes" json:"notes"`
	IsCompleted            bool        `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
	IsInterrupted          bool        `gorm:"not null;default:false;column:is_interrupted" json:"is_interrupted"`
	InterruptionReason     *string     `gorm:"column:interruption_reason" json:"interruption_reason"`
	CreatedAt              time.Time   `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt              time.Time   `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (LearningSession) TableName() string {
	return "learning_sessions"
}

// Minutes returns the recorded duration, treating a missing one as zero.
func (s LearningSession) Minutes() int {
	if s.DurationMinutes == nil {
		return 0
	}
	return *s.DurationMinutes
}

// TopicOr returns the topic, or fallback when none is set.
func (s LearningSession) TopicOr(fallback string) string {
	if s.Topic == nil || *s.Topic == "" {
		return fallback
	}
	return *s.Topic
}

// DurationBetween returns the whole minutes elapsed from start to end.
func DurationBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}
