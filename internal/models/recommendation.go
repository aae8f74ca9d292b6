package models

import (
	"time"

	"gorm.io/datatypes"
)

// Recommendation is a suggestion made to a user with a response lifecycle:
// pending/active -> accepted|declined -> completed.
type Recommendation struct {
	ID                   int                  `gorm:"primaryKey;column:id" json:"id"`
	UserID               int                  `gorm:"index;not null;column:user_id" json:"user_id"`
	RecommendationType   RecommendationType   `gorm:"not null;column:recommendation_type" json:"recommendation_type"`
	Title                string               `gorm:"not null;column:title" json:"title"`
	Description          string               `gorm:"not null;column:description" json:"description"`
	Priority             Priority             `gorm:"not null;default:medium;column:priority" json:"priority"`
	Category             string               `gorm:"not null;column:category" json:"category"`
	TargetContentID      *int                 `gorm:"column:target_content_id" json:"target_content_id"`
	TargetAssessmentID   *int                 `gorm:"column:target_assessment_id" json:"target_assessment_id"`
	EstimatedTimeMinutes *int                 `gorm:"column:estimated_time_minutes" json:"estimated_time_minutes"`
	DifficultyLevel      *Difficulty          `gorm:"column:difficulty_level" json:"difficulty_level"`
	Reasoning            string               `gorm:"not null;column:reasoning" json:"reasoning"`
	ConfidenceScore      float64              `gorm:"not null;column:confidence_score" json:"confidence_score"`
	IsViewed             bool                 `gorm:"not null;default:false;column:is_viewed" json:"is_viewed"`
	IsAccepted           *bool                `gorm:"column:is_accepted" json:"is_accepted"`
	IsCompleted          bool                 `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
	ViewedAt             *time.Time           `gorm:"column:viewed_at" json:"viewed_at"`
	RespondedAt          *time.Time           `gorm:"column:responded_at" json:"responded_at"`
	CompletedAt          *time.Time           `gorm:"column:completed_at" json:"completed_at"`
	ExpiresAt            *time.Time           `gorm:"column:expires_at" json:"expires_at"`
	EffectivenessScore   *float64             `gorm:"column:effectiveness_score" json:"effectiveness_score"`
	UserRating           *int                 `gorm:"column:user_rating" json:"user_rating"`
	ActualTimeTaken      *int                 `gorm:"column:actual_time_taken" json:"actual_time_taken"`
	UserFeedback         *string              `gorm:"column:user_feedback" json:"user_feedback"`
	ContextData          datatypes.JSON       `gorm:"type:jsonb;column:context_data" json:"context_data,omitempty"`
	TriggerEvent         *string              `gorm:"column:trigger_event" json:"trigger_event"`
	Status               RecommendationStatus `gorm:"not null;default:pending;column:status" json:"status"`
	CreatedAt            time.Time            `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"not null;column:updated_at" json:"updated_at"`

	TargetContent *Content `gorm:"foreignKey:TargetContentID" json:"target_content,omitempty"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// IsExpired reports whether the recommendation has passed its expiry at now.
func (r Recommendation) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// CanRespond reports whether an accept or decline is allowed.
func (r Recommendation) CanRespond() bool {
	switch r.Status {
	case RecommendationStatusPending, RecommendationStatusActive:
		return true
	default:
		return false
	}
}

// CanComplete reports whether completion is allowed; only accepted recommendations complete.
func (r Recommendation) CanComplete() bool {
	return r.Status == RecommendationStatusAccepted
}
