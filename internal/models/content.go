package models

import (
	"time"

	"github.com/lib/pq"
)

// Content is a globally shared catalog item.
type Content struct {
	ID                       int            `gorm:"primaryKey;column:id" json:"id"`
	Title                    string         `gorm:"not null;column:title" json:"title"`
	Description              *string        `gorm:"column:description" json:"description"`
	ContentType              ContentType    `gorm:"not null;column:content_type" json:"content_type"`
	Format                   *string        `gorm:"column:format" json:"format"`
	Subject                  string         `gorm:"not null;column:subject" json:"subject"`
	Topic                    *string        `gorm:"column:topic" json:"topic"`
	Subtopic                 *string        `gorm:"column:subtopic" json:"subtopic"`
	DifficultyLevel          Difficulty     `gorm:"not null;default:medium;column:difficulty_level" json:"difficulty_level"`
	GradeLevel               *string        `gorm:"column:grade_level" json:"grade_level"`
	LearningObjectives       pq.StringArray `gorm:"type:text[];not null;default:'{}';column:learning_objectives" json:"learning_objectives"`
	URL                      *string        `gorm:"column:url" json:"url"`
	ExternalSource           *string        `gorm:"column:external_source" json:"external_source"`
	EstimatedDurationMinutes *int           `gorm:"column:estimated_duration_minutes" json:"estimated_duration_minutes"`
	AverageRating            *float64       `gorm:"column:average_rating" json:"average_rating"`
	TotalRatings             int            `gorm:"not null;default:0;column:total_ratings" json:"total_ratings"`
	ViewCount                int            `gorm:"not null;default:0;column:view_count" json:"view_count"`
	CompletionCount          int            `gorm:"not null;default:0;column:completion_count" json:"completion_count"`
	IsActive                 bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	IsVerified               bool           `gorm:"not null;default:false;column:is_verified" json:"is_verified"`
	Author                   *string        `gorm:"column:author" json:"author"`
	CreatedAt                time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt                time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Content) TableName() string {
	return "content"
}

// Rating returns the average rating, or zero when unrated.
func (c Content) Rating() float64 {
	if c.AverageRating == nil {
		return 0
	}
	return *c.AverageRating
}

// ContentInteraction is the single live interaction of one type between a user and a content item.
type ContentInteraction struct {
	ID                 int             `gorm:"primaryKey;column:id" json:"id"`
	UserID             int             `gorm:"not null;column:user_id" json:"user_id"`
	ContentID          int             `gorm:"not null;column:content_id" json:"content_id"`
	LearningSessionID  *int            `gorm:"column:learning_session_id" json:"learning_session_id"`
	InteractionType    InteractionType `gorm:"not null;column:interaction_type" json:"interaction_type"`
	StartTime          time.Time       `gorm:"not null;column:start_time" json:"start_time"`
	EndTime            *time.Time      `gorm:"column:end_time" json:"end_time"`
	DurationSeconds    *float64        `gorm:"column:duration_seconds" json:"duration_seconds"`
	ProgressPercentage float64         `gorm:"not null;default:0;column:progress_percentage" json:"progress_percentage"`
	LastPosition       *string         `gorm:"column:last_position" json:"last_position"`
	IsCompleted        bool            `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
	CompletionTime     *time.Time      `gorm:"column:completion_time" json:"completion_time"`
	InteractionCount   int             `gorm:"not null;default:1;column:interaction_count" json:"interaction_count"`
	Rating             *int            `gorm:"column:rating" json:"rating"`
	DifficultyRating   *string         `gorm:"column:difficulty_rating" json:"difficulty_rating"`
	UsefulnessRating   *int            `gorm:"column:usefulness_rating" json:"usefulness_rating"`
	Notes              *string         `gorm:"column:notes" json:"notes"`
	DeviceType         *string         `gorm:"column:device_type" json:"device_type"`
	TimeOfDay          *TimeOfDay      `gorm:"column:time_of_day" json:"time_of_day"`
	CreatedAt          time.Time       `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null;column:updated_at" json:"updated_at"`

	Content *Content `gorm:"foreignKey:ContentID" json:"content,omitempty"`
}

func (ContentInteraction) TableName() string {
	return "content_interactions"
}

// Seconds returns the recorded duration, treating a missing one as zero.
func (i ContentInteraction) Seconds() float64 {
	if i.DurationSeconds == nil {
		return 0
	}
	return *i.DurationSeconds
}
