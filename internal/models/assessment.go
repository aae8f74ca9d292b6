package models

import (
	"time"

	"github.com/lib/pq"
)

// Assessment is a timed quiz owned by a user.
type Assessment struct {
	ID                int              `gorm:"primaryKey;column:id" json:"id"`
	UserID            int              `gorm:"index;not null;column:user_id" json:"user_id"`
	Title             string           `gorm:"not null;column:title" json:"title"`
	Subject           string           `gorm:"not null;column:subject" json:"subject"`
	Topic             *string          `gorm:"column:topic" json:"topic"`
	AssessmentType    AssessmentType   `gorm:"not null;column:assessment_type" json:"assessment_type"`
	DifficultyLevel   Difficulty       `gorm:"not null;default:medium;column:difficulty_level" json:"difficulty_level"`
	StartTime         *time.Time       `gorm:"column:start_time" json:"start_time"`
	EndTime           *time.Time       `gorm:"column:end_time" json:"end_time"`
	TimeLimitMinutes  *int             `gorm:"column:time_limit_minutes" json:"time_limit_minutes"`
	TimeTakenMinutes  *float64         `gorm:"column:time_taken_minutes" json:"time_taken_minutes"`
	TotalQuestions    int              `gorm:"not null;default:0;column:total_questions" json:"total_questions"`
	QuestionsAnswered int              `gorm:"not null;default:0;column:questions_answered" json:"questions_answered"`
	CorrectAnswers    int              `gorm:"not null;default:0;column:correct_answers" json:"correct_answers"`
	ScorePercentage   *float64         `gorm:"column:score_percentage" json:"score_percentage"`
	MaxPossibleScore  float64          `gorm:"not null;default:100;column:max_possible_score" json:"max_possible_score"`
	Status            AssessmentStatus `gorm:"not null;default:not_started;column:status" json:"status"`
	IsCompleted       bool             `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
	CreatedAt         time.Time        `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null;column:updated_at" json:"updated_at"`

	Questions []Question `gorm:"foreignKey:AssessmentID" json:"questions,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// Score returns the score percentage, or zero for an ungraded assessment.
func (a Assessment) Score() float64 {
	if a.ScorePercentage == nil {
		return 0
	}
	return *a.ScorePercentage
}

// Question belongs to an assessment and carries its correct answer.
type Question struct {
	ID                   int            `gorm:"primaryKey;column:id" json:"id"`
	AssessmentID         int            `gorm:"index;not null;column:assessment_id" json:"assessment_id"`
	Position             int            `gorm:"not null;default:0;column:position" json:"position"`
	QuestionText         string         `gorm:"not null;column:question_text" json:"question_text"`
	QuestionType         QuestionType   `gorm:"not null;column:question_type" json:"question_type"`
	DifficultyLevel      Difficulty     `gorm:"not null;default:medium;column:difficulty_level" json:"difficulty_level"`
	Subject              string         `gorm:"not null;column:subject" json:"subject"`
	Topic                *string        `gorm:"column:topic" json:"topic"`
	Options              pq.StringArray `gorm:"type:text[];not null;default:'{}';column:options" json:"options"`
	CorrectAnswer        *string        `gorm:"column:correct_answer" json:"correct_answer,omitempty"`
	Explanation          *string        `gorm:"column:explanation" json:"explanation,omitempty"`
	PointsPossible       float64        `gorm:"not null;default:1;column:points_possible" json:"points_possible"`
	EstimatedTimeSeconds *int           `gorm:"column:estimated_time_seconds" json:"estimated_time_seconds"`
	CreatedAt            time.Time      `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Public returns a copy without the correct answer and explanation.
func (q Question) Public() Question {
	q.CorrectAnswer = nil
	q.Explanation = nil
	return q
}

// Answer is a graded response to one question of a submitted assessment.
type Answer struct {
	ID               int       `gorm:"primaryKey;column:id" json:"id"`
	AssessmentID     int       `gorm:"not null;column:assessment_id" json:"assessment_id"`
	QuestionID       int       `gorm:"not null;column:question_id" json:"question_id"`
	UserID           int       `gorm:"not null;column:user_id" json:"user_id"`
	AnswerText       *string   `gorm:"column:answer_text" json:"answer_text"`
	SelectedOption   *string   `gorm:"column:selected_option" json:"selected_option"`
	IsCorrect        bool      `gorm:"not null;default:false;column:is_correct" json:"is_correct"`
	PointsEarned     float64   `gorm:"not null;default:0;column:points_earned" json:"points_earned"`
	PointsPossible   float64   `gorm:"not null;default:1;column:points_possible" json:"points_possible"`
	TimeTakenSeconds *float64  `gorm:"column:time_taken_seconds" json:"time_taken_seconds"`
	AnsweredAt       time.Time `gorm:"not null;column:answered_at" json:"answered_at"`
	CreatedAt        time.Time `gorm:"not null;column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}
