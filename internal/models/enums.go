package models

import (
	"database/sql/driver"
	"fmt"
)

// Other is the fallback for stored values outside a closed enumeration.
const Other = "other"

type enumType interface {
	~string
}

// parseEnum maps raw onto one of known, or other when it is not recognised.
func parseEnum[T enumType](raw string, known []T) T {
	for _, v := range known {
		if string(v) == raw {
			return v
		}
	}
	return T(Other)
}

func scanEnum[T enumType](dst *T, src interface{}, known []T) error {
	switch v := src.(type) {
	case nil:
		*dst = ""
	case string:
		*dst = parseEnum(v, known)
	case []byte:
		*dst = parseEnum(string(v), known)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
	return nil
}

func valueEnum[T enumType](v T) (driver.Value, error) {
	return string(v), nil
}

func stringsOf[T enumType](known []T) []string {
	out := make([]string, len(known))
	for i, v := range known {
		out[i] = string(v)
	}
	return out
}

// Difficulty is the difficulty level of sessions, questions and content.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

var difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}

// ParseDifficulty returns the matching Difficulty or "other".
func ParseDifficulty(s string) Difficulty { return parseEnum(s, difficulties) }
func (d *Difficulty) Scan(src interface{}) error { return scanEnum(d, src, difficulties) }
func (d Difficulty) Value() (driver.Value, error) { return valueEnum(d) }

// SessionType classifies a learning session.
type SessionType string

const (
	SessionTypeStudy      SessionType = "study"
	SessionTypeAssessment SessionType = "assessment"
	SessionTypeReview     SessionType = "review"
	SessionTypePractice   SessionType = "practice"
)

var sessionTypes = []SessionType{SessionTypeStudy, SessionTypeAssessment, SessionTypeReview, SessionTypePractice}

func ParseSessionType(s string) SessionType { return parseEnum(s, sessionTypes) }
func (t *SessionType) Scan(src interface{}) error { return scanEnum(t, src, sessionTypes) }
func (t SessionType) Value() (driver.Value, error) { return valueEnum(t) }

// AssessmentType classifies an assessment.
type AssessmentType string

const (
	AssessmentTypeDiagnostic AssessmentType = "diagnostic"
	AssessmentTypeFormative  AssessmentType = "formative"
	AssessmentTypeSummative  AssessmentType = "summative"
	AssessmentTypeAdaptive   AssessmentType = "adaptive"
)

var assessmentTypes = []AssessmentType{AssessmentTypeDiagnostic, AssessmentTypeFormative, AssessmentTypeSummative, AssessmentTypeAdaptive}

func ParseAssessmentType(s string) AssessmentType { return parseEnum(s, assessmentTypes) }
func (t *AssessmentType) Scan(src interface{}) error { return scanEnum(t, src, assessmentTypes) }
func (t AssessmentType) Value() (driver.Value, error) { return valueEnum(t) }

// AssessmentStatus is the assessment lifecycle state:
// not_started -> in_progress -> completed, or abandoned.
type AssessmentStatus string

const (
	AssessmentStatusNotStarted AssessmentStatus = "not_started"
	AssessmentStatusInProgress AssessmentStatus = "in_progress"
	AssessmentStatusCompleted  AssessmentStatus = "completed"
	AssessmentStatusAbandoned  AssessmentStatus = "abandoned"
)

var assessmentStatuses = []AssessmentStatus{AssessmentStatusNotStarted, AssessmentStatusInProgress, AssessmentStatusCompleted, AssessmentStatusAbandoned}

func ParseAssessmentStatus(s string) AssessmentStatus { return parseEnum(s, assessmentStatuses) }
func (s *AssessmentStatus) Scan(src interface{}) error { return scanEnum(s, src, assessmentStatuses) }
func (s AssessmentStatus) Value() (driver.Value, error) { return valueEnum(s) }

// QuestionType is the answer format of a question.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeEssay          QuestionType = "essay"
	QuestionTypeFillBlank      QuestionType = "fill_blank"
)

var questionTypes = []QuestionType{QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeShortAnswer, QuestionTypeEssay, QuestionTypeFillBlank}

func ParseQuestionType(s string) QuestionType { return parseEnum(s, questionTypes) }
func (t *QuestionType) Scan(src interface{}) error { return scanEnum(t, src, questionTypes) }
func (t QuestionType) Value() (driver.Value, error) { return valueEnum(t) }

// ContentType is the media kind of a catalog item.
type ContentType string

const (
	ContentTypeVideo       ContentType = "video"
	ContentTypeArticle     ContentType = "article"
	ContentTypeInteractive ContentType = "interactive"
	ContentTypeQuiz        ContentType = "quiz"
	ContentTypeDocument    ContentType = "document"
	ContentTypeAudio       ContentType = "audio"
)

var contentTypes = []ContentType{ContentTypeVideo, ContentTypeArticle, ContentTypeInteractive, ContentTypeQuiz, ContentTypeDocument, ContentTypeAudio}

func ParseContentType(s string) ContentType { return parseEnum(s, contentTypes) }
func (t *ContentType) Scan(src interface{}) error { return scanEnum(t, src, contentTypes) }
func (t ContentType) Value() (driver.Value, error) { return valueEnum(t) }

// IsTextBased reports whether the content is read rather than watched or heard.
func (t ContentType) IsTextBased() bool {
	return t == ContentTypeArticle || t == ContentTypeDocument
}

// InteractionType is the kind of user interaction with content.
type InteractionType string

const (
	InteractionTypeView     InteractionType = "view"
	InteractionTypeComplete InteractionType = "complete"
	InteractionTypeBookmark InteractionType = "bookmark"
	InteractionTypeRate     InteractionType = "rate"
	InteractionTypeComment  InteractionType = "comment"
	InteractionTypeShare    InteractionType = "share"
)

var interactionTypes = []InteractionType{InteractionTypeView, InteractionTypeComplete, InteractionTypeBookmark, InteractionTypeRate, InteractionTypeComment, InteractionTypeShare}

func ParseInteractionType(s string) InteractionType { return parseEnum(s, interactionTypes) }
func (t *InteractionType) Scan(src interface{}) error { return scanEnum(t, src, interactionTypes) }
func (t InteractionType) Value() (driver.Value, error) { return valueEnum(t) }

// RecommendationType is the kind of suggestion made to a user.
type RecommendationType string

const (
	RecommendationTypeContent    RecommendationType = "content"
	RecommendationTypeStudyPlan  RecommendationType = "study_plan"
	RecommendationTypeAssessment RecommendationType = "assessment"
	RecommendationTypeBreak      RecommendationType = "break"
	RecommendationTypeReview     RecommendationType = "review"
)

var recommendationTypes = []RecommendationType{RecommendationTypeContent, RecommendationTypeStudyPlan, RecommendationTypeAssessment, RecommendationTypeBreak, RecommendationTypeReview}

func ParseRecommendationType(s string) RecommendationType { return parseEnum(s, recommendationTypes) }
func (t *RecommendationType) Scan(src interface{}) error { return scanEnum(t, src, recommendationTypes) }
func (t RecommendationType) Value() (driver.Value, error) { return valueEnum(t) }

// Priority orders recommendations.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func ParsePriority(s string) Priority { return parseEnum(s, priorities) }
func (p *Priority) Scan(src interface{}) error { return scanEnum(p, src, priorities) }
func (p Priority) Value() (driver.Value, error) { return valueEnum(p) }

// Rank orders priorities from most (0) to least urgent; unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// RecommendationStatus is the recommendation response lifecycle state.
type RecommendationStatus string

const (
	RecommendationStatusPending   RecommendationStatus = "pending"
	RecommendationStatusActive    RecommendationStatus = "active"
	RecommendationStatusAccepted  RecommendationStatus = "accepted"
	RecommendationStatusDeclined  RecommendationStatus = "declined"
	RecommendationStatusCompleted RecommendationStatus = "completed"
	RecommendationStatusExpired   RecommendationStatus = "expired"
	RecommendationStatusDismissed RecommendationStatus = "dismissed"
)

var recommendationStatuses = []RecommendationStatus{
	RecommendationStatusPending, RecommendationStatusActive, RecommendationStatusAccepted,
	RecommendationStatusDeclined, RecommendationStatusCompleted, RecommendationStatusExpired,
	RecommendationStatusDismissed,
}

func ParseRecommendationStatus(s string) RecommendationStatus { return parseEnum(s, recommendationStatuses) }
func (s *RecommendationStatus) Scan(src interface{}) error { return scanEnum(s, src, recommendationStatuses) }
func (s RecommendationStatus) Value() (driver.Value, error) { return valueEnum(s) }

// AchievementType groups achievement milestone tables.
type AchievementType string

const (
	AchievementTypeStreak      AchievementType = "streak"
	AchievementTypeTime        AchievementType = "time"
	AchievementTypeAssessment  AchievementType = "assessment"
	AchievementTypeMastery     AchievementType = "mastery"
	AchievementTypeConsistency AchievementType = "consistency"
	AchievementTypeImprovement AchievementType = "improvement"
)

var achievementTypes = []AchievementType{
	AchievementTypeStreak, AchievementTypeTime, AchievementTypeAssessment,
	AchievementTypeMastery, AchievementTypeConsistency, AchievementTypeImprovement,
}

func ParseAchievementType(s string) AchievementType { return parseEnum(s, achievementTypes) }
func (t *AchievementType) Scan(src interface{}) error { return scanEnum(t, src, achievementTypes) }
func (t AchievementType) Value() (driver.Value, error) { return valueEnum(t) }

// TimeOfDay is a coarse bucket of the hour of day.
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
	TimeOfDayNight     TimeOfDay = "night"
)

var timesOfDay = []TimeOfDay{TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayNight}

func ParseTimeOfDay(s string) TimeOfDay { return parseEnum(s, timesOfDay) }
func (t *TimeOfDay) Scan(src interface{}) error { return scanEnum(t, src, timesOfDay) }
func (t TimeOfDay) Value() (driver.Value, error) { return valueEnum(t) }

// Allowed value lists, used by request validation.
var (
	DifficultyValues           = stringsOf(difficulties)
	SessionTypeValues          = stringsOf(sessionTypes)
	AssessmentTypeValues       = stringsOf(assessmentTypes)
	AssessmentStatusValues     = stringsOf(assessmentStatuses)
	QuestionTypeValues         = stringsOf(questionTypes)
	ContentTypeValues          = stringsOf(contentTypes)
	InteractionTypeValues      = stringsOf(interactionTypes)
	RecommendationTypeValues   = stringsOf(recommendationTypes)
	PriorityValues             = stringsOf(priorities)
	RecommendationStatusValues = stringsOf(recommendationStatuses)
	TimeOfDayValues            = stringsOf(timesOfDay)
)
