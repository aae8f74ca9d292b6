package services

import (
	"context"
	"time"

	"learnapp/internal/models"
	"learnapp/internal/observability"
	"learnapp/internal/scoring"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssessmentServiceInterface defines assessment operations.
type AssessmentServiceInterface interface {
	CreateAssessment(ctx context.Context, userID int, req CreateAssessmentRequest) (*models.Assessment, error)
	ListAssessments(ctx context.Context, userID int, filter AssessmentFilter, page Page) ([]models.Assessment, error)
	GetAssessment(ctx context.Context, userID, assessmentID int) (*models.Assessment, error)
	GetQuestions(ctx context.Context, userID, assessmentID int) ([]models.Question, error)
	StartAssessment(ctx context.Context, userID, assessmentID int) (*models.Assessment, error)
	SubmitAssessment(ctx context.Context, userID, assessmentID int, req SubmitAssessmentRequest) (*SubmissionResult, error)
	GetResults(ctx context.Context, userID, assessmentID int) (*AssessmentResults, error)
	PerformanceAnalytics(ctx context.Context, userID, days int, subject string) (*PerformanceAnalytics, error)
}

// CreateQuestionRequest is one question embedded in CreateAssessmentRequest.
type CreateQuestionRequest struct {
	QuestionText         string   `json:"question_text" binding:"required,min=1"`
	QuestionType         string   `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer essay fill_blank"`
	DifficultyLevel      string   `json:"difficulty_level" binding:"omitempty,oneof=easy medium hard expert"`
	Subject              string   `json:"subject" binding:"omitempty,max=128"`
	Topic                *string  `json:"topic" binding:"omitempty,max=255"`
	Options              []string `json:"options" binding:"omitempty,max=20"`
	CorrectAnswer        string   `json:"correct_answer" binding:"required"`
	Explanation          *string  `json:"explanation"`
	PointsPossible       float64  `json:"points_possible" binding:"omitempty,gt=0"`
	EstimatedTimeSeconds *int     `json:"estimated_time_seconds" binding:"omitempty,min=0"`
}

// CreateAssessmentRequest creates an assessment together with its questions.
type CreateAssessmentRequest struct {
	Title            string                  `json:"title" binding:"required,min=1,max=255"`
	Subject          string                  `json:"subject" binding:"required,min=1,max=128"`
	Topic            *string                 `json:"topic" binding:"omitempty,max=255"`
	AssessmentType   string                  `json:"assessment_type" binding:"omitempty,oneof=diagnostic formative summative adaptive"`
	DifficultyLevel  string                  `json:"difficulty_level" binding:"omitempty,oneof=easy medium hard expert"`
	TimeLimitMinutes *int                    `json:"time_limit_minutes" binding:"omitempty,min=1"`
	Questions        []CreateQuestionRequest `json:"questions" binding:"omitempty,dive"`
}

// AssessmentFilter narrows ListAssessments.
type AssessmentFilter struct {
	Subject        string `form:"subject"`
	AssessmentType string `form:"assessment_type"`
	Status         string `form:"status"`
}

// AnswerSubmission is the user's answer to one question.
type AnswerSubmission struct {
	QuestionID       int      `json:"question_id" binding:"required"`
	AnswerText       *string  `json:"answer_text"`
	SelectedOption   *string  `json:"selected_option"`
	TimeTakenSeconds *float64 `json:"time_taken_seconds" binding:"omitempty,min=0"`
}

// SubmitAssessmentRequest carries every answer of a submission.
type SubmitAssessmentRequest struct {
	Answers []AnswerSubmission `json:"answers" binding:"dive"`
}

// SubmissionResult is returned after grading a submission.
type SubmissionResult struct {
	Message        string             `json:"message"`
	Assessment     *models.Assessment `json:"assessment"`
	Score          float64            `json:"score"`
	CorrectAnswers int                `json:"correct_answers"`
	TotalQuestions int                `json:"total_questions"`
}

// ResultSummary is the headline of a completed assessment.
type ResultSummary struct {
	TotalQuestions    int      `json:"total_questions"`
	QuestionsAnswered int      `json:"questions_answered"`
	CorrectAnswers    int      `json:"correct_answers"`
	ScorePercentage   *float64 `json:"score_percentage"`
	TimeTakenMinutes  *float64 `json:"time_taken_minutes"`
}

// QuestionResult pairs a question with the user's graded answer.
type QuestionResult struct {
	QuestionID     int                 `json:"question_id"`
	QuestionText   string              `json:"question_text"`
	QuestionType   models.QuestionType `json:"question_type"`
	CorrectAnswer  *string             `json:"correct_answer"`
	UserAnswer     *string             `json:"user_answer"`
	IsCorrect      bool                `json:"is_correct"`
	PointsEarned   float64             `json:"points_earned"`
	PointsPossible float64             `json:"points_possible"`
	Explanation    *string             `json:"explanation"`
}

// AssessmentResults is the detailed result of a completed assessment.
type AssessmentResults struct {
	Assessment      *models.Assessment `json:"assessment"`
	Summary         ResultSummary      `json:"summary"`
	QuestionResults []QuestionResult   `json:"question_results"`
}

// SubjectScore aggregates assessment scores for one subject.
type SubjectScore struct {
	Subject         string  `json:"subject"`
	AverageScore    float64 `json:"average_score"`
	AssessmentCount int     `json:"assessment_count"`
}

// DifficultyScore aggregates assessment scores for one difficulty.
type DifficultyScore struct {
	Difficulty      models.Difficulty `json:"difficulty"`
	AverageScore    float64           `json:"average_score"`
	AssessmentCount int               `json:"assessment_count"`
}

// DatedScore is one point of the recent-score series.
type DatedScore struct {
	Date    string  `json:"date"`
	Score   float64 `json:"score"`
	Subject string  `json:"subject"`
}

// PerformanceAnalytics summarises completed assessments in a window.
type PerformanceAnalytics struct {
	TotalAssessments      int               `json:"total_assessments"`
	AverageScore          float64           `json:"average_score"`
	ImprovementTrend      float64           `json:"improvement_trend"`
	SubjectPerformance    []SubjectScore    `json:"subject_performance"`
	DifficultyPerformance []DifficultyScore `json:"difficulty_performance"`
	RecentScores          []DatedScore      `json:"recent_scores"`
}

const recentScoresLimit = 10

// AssessmentService manages assessments and their grading.
type AssessmentService struct {
	db     *gorm.DB
	logger *observability.Logger
	now    func() time.Time
}

// NewAssessmentServiceWithLogger creates a new AssessmentService instance with logger
func NewAssessmentServiceWithLogger(db *gorm.DB, logger *observability.Logger) *AssessmentService {
	return &AssessmentService{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateAssessment stores the assessment and its questions in their given order.
func (s *AssessmentService) CreateAssessment(ctx context.Context, userID int, req CreateAssessmentRequest) (result0 *models.Assessment, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "create_assessment",
		observability.AttributeUserID(userID), observability.AttributeSubject(req.Subject),
		attribute.Int("assessment.questions", len(req.Questions)))
	defer observability.FinishSpan(span, &err)

	assessmentType := models.AssessmentTypeFormative
	if req.AssessmentType != "" {
		assessmentType = models.ParseAssessmentType(req.AssessmentType)
	}

	assessment := &models.Assessment{
		UserID:           userID,
		Title:            req.Title,
		Subject:          req.Subject,
		Topic:            req.Topic,
		AssessmentType:   assessmentType,
		DifficultyLevel:  difficultyOrDefault(req.DifficultyLevel),
		TimeLimitMinutes: req.TimeLimitMinutes,
		TotalQuestions:   len(req.Questions),
		MaxPossibleScore: 100,
		Status:           models.AssessmentStatusNotStarted,
	}
	for i, q := range req.Questions {
		subject := q.Subject
		if subject == "" {
			subject = req.Subject
		}
		points := q.PointsPossible
		if points <= 0 {
			points = 1
		}
		options := pq.StringArray(q.Options)
		if options == nil {
			options = pq.StringArray{}
		}
		assessment.Questions = append(assessment.Questions, models.Question{
			Position:             i,
			QuestionText:         q.QuestionText,
			QuestionType:         models.ParseQuestionType(q.QuestionType),
			DifficultyLevel:      difficultyOrDefault(q.DifficultyLevel),
			Subject:              subject,
			Topic:                q.Topic,
			Options:              options,
			CorrectAnswer:        ptr(q.CorrectAnswer),
			Explanation:          q.Explanation,
			PointsPossible:       points,
			EstimatedTimeSeconds: q.EstimatedTimeSeconds,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(assessment).Error
	})
	if err != nil {
		return nil, translateError(err, "assessment")
	}

	s.logger.Info(ctx, "Assessment created", map[string]interface{}{
		"user_id":       userID,
		"assessment_id": assessment.ID,
		"questions":     len(assessment.Questions),
	})
	return assessment, nil
}

func difficultyOrDefault(raw string) models.Difficulty {
	if raw == "" {
		return models.DifficultyMedium
	}
	return models.ParseDifficulty(raw)
}

// ListAssessments returns the user's assessments, newest first.
func (s *AssessmentService) ListAssessments(ctx context.Context, userID int, filter AssessmentFilter, page Page) (result0 []models.Assessment, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "list_assessments",
		observability.AttributeUserID(userID), observability.AttributeLimit(page.Limit), observability.AttributeOffset(page.Offset))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.AssessmentType != "" {
		query = query.Where("assessment_type = ?", filter.AssessmentType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	assessments := []models.Assessment{}
	if err := page.Normalize(MaxPageLimit).apply(query.Order("created_at DESC, id DESC")).Find(&assessments).Error; err != nil {
		return nil, translateError(err, "assessment")
	}
	return assessments, nil
}

// GetAssessment returns one of the user's assessments without its questions.
func (s *AssessmentService) GetAssessment(ctx context.Context, userID, assessmentID int) (result0 *models.Assessment, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "get_assessment",
		observability.AttributeUserID(userID), observability.AttributeAssessmentID(assessmentID))
	defer observability.FinishSpan(span, &err)

	return findAssessment(s.db.WithContext(ctx), userID, assessmentID)
}

func findAssessment(db *gorm.DB, userID, assessmentID int) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := db.Where("id = ? AND user_id = ?", assessmentID, userID).First(&assessment).Error; err != nil {
		return nil, translateError(err, "assessment")
	}
	return &assessment, nil
}

func loadQuestions(db *gorm.DB, assessmentID int) ([]models.Question, error) {
	questions := []models.Question{}
	if err := db.Where("assessment_id = ?", assessmentID).Order("position, id").Find(&questions).Error; err != nil {
		return nil, translateError(err, "question")
	}
	return questions, nil
}

// GetQuestions returns the questions with correct answers and explanations removed.
func (s *AssessmentService) GetQuestions(ctx context.Context, userID, assessmentID int) (result0 []models.Question, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "get_questions",
		observability.AttributeUserID(userID), observability.AttributeAssessmentID(assessmentID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	if _, err := findAssessment(db, userID, assessmentID); err != nil {
		return nil, err
	}
	questions, err := loadQuestions(db, assessmentID)
	if err != nil {
		return nil, err
	}
	return lo.Map(questions, func(q models.Question, _ int) models.Question { return q.Public() }), nil
}

// StartAssessment moves a not_started assessment to in_progress.
func (s *AssessmentService) StartAssessment(ctx context.Context, userID, assessmentID int) (result0 *models.Assessment, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "start_assessment",
		observability.AttributeUserID(userID), observability.AttributeAssessmentID(assessmentID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	if _, err := findAssessment(db, userID, assessmentID); err != nil {
		return nil, err
	}

	res := db.Model(&models.Assessment{}).
		Where("id = ? AND user_id = ? AND status = ?", assessmentID, userID, models.AssessmentStatusNotStarted).
		Updates(map[string]interface{}{
			"status":     models.AssessmentStatusInProgress,
			"start_time": s.now(),
		})
	if res.Error != nil {
		return nil, translateError(res.Error, "assessment")
	}
	if res.RowsAffected == 0 {
		return nil, invalidState("assessment has already been started")
	}
	return findAssessment(db, userID, assessmentID)
}

// grade is the outcome of grading one submission.
type grade struct {
	answers        []models.Answer
	correct        int
	earnedPoints   float64
	possiblePoints float64
}

func (g grade) score() float64 {
	return scoring.ScorePercentage(g.earnedPoints, g.possiblePoints)
}

// gradeSubmission grades each submitted answer against its question. Answers for
// questions outside the assessment are skipped; points are totalled over answered questions.
func gradeSubmission(userID, assessmentID int, questions []models.Question, submitted []AnswerSubmission, now time.Time) grade {
	byID := lo.KeyBy(questions, func(q models.Question) int { return q.ID })

	var g grade
	for _, sub := range submitted {
		q, ok := byID[sub.QuestionID]
		if !ok {
			continue
		}

		given := deref(sub.AnswerText)
		if given == "" {
			given = deref(sub.SelectedOption)
		}
		correct := given != "" && scoring.IsCorrect(given, q.CorrectAnswer)

		answer := models.Answer{
			AssessmentID:     assessmentID,
			QuestionID:       q.ID,
			UserID:           userID,
			AnswerText:       sub.AnswerText,
			SelectedOption:   sub.SelectedOption,
			IsCorrect:        correct,
			PointsPossible:   q.PointsPossible,
			TimeTakenSeconds: sub.TimeTakenSeconds,
			AnsweredAt:       now,
		}
		if correct {
			answer.PointsEarned = q.PointsPossible
			g.correct++
			g.earnedPoints += q.PointsPossible
		}
		g.possiblePoints += q.PointsPossible
		g.answers = append(g.answers, answer)
	}
	return g
}

// SubmitAssessment grades the answers of an in_progress assessment. Answer rows, the
// assessment update and the user's running aggregates commit in one transaction.
func (s *AssessmentService) SubmitAssessment(ctx context.Context, userID, assessmentID int, req SubmitAssessmentRequest) (result0 *SubmissionResult, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "submit_assessment",
		observability.AttributeUserID(userID), observability.AttributeAssessmentID(assessmentID),
		attribute.Int("assessment.answers", len(req.Answers)))
	defer observability.FinishSpan(span, &err)

	ids := lo.Map(req.Answers, func(a AnswerSubmission, _ int) int { return a.QuestionID })
	if dup := lo.FindDuplicates(ids); len(dup) > 0 {
		return nil, validationFailed("each question may be answered only once per submission")
	}

	var result *SubmissionResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assessment models.Assessment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", assessmentID, userID).
			First(&assessment).Error; err != nil {
			return translateError(err, "assessment")
		}
		if assessment.Status != models.AssessmentStatusInProgress {
			return invalidState("assessment is not in progress")
		}

		questions, err := loadQuestions(tx, assessmentID)
		if err != nil {
			return err
		}

		now := s.now()
		g := gradeSubmission(userID, assessmentID, questions, req.Answers, now)
		if len(g.answers) > 0 {
			if err := tx.Create(&g.answers).Error; err != nil {
				return translateError(err, "answer")
			}
		}

		score := g.score()
		updates := map[string]interface{}{
			"end_time":           now,
			"is_completed":       true,
			"status":             models.AssessmentStatusCompleted,
			"questions_answered": len(g.answers),
			"correct_answers":    g.correct,
			"score_percentage":   score,
		}
		if assessment.StartTime != nil {
			updates["time_taken_minutes"] = now.Sub(*assessment.StartTime).Minutes()
		}
		if err := tx.Model(&assessment).Updates(updates).Error; err != nil {
			return translateError(err, "assessment")
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"average_score": gorm.Expr(
				"(average_score * total_assessments_completed + ?) / (total_assessments_completed + 1)", score),
			"total_assessments_completed": gorm.Expr("total_assessments_completed + 1"),
		}).Error; err != nil {
			return translateError(err, "user")
		}

		refreshed, err := findAssessment(tx, userID, assessmentID)
		if err != nil {
			return err
		}
		result = &SubmissionResult{
			Message:        "Assessment submitted successfully",
			Assessment:     refreshed,
			Score:          score,
			CorrectAnswers: g.correct,
			TotalQuestions: len(questions),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordAssessmentSubmitted(ctx, result.Assessment.Subject)
	s.logger.Info(ctx, "Assessment submitted", map[string]interface{}{
		"user_id":         userID,
		"assessment_id":   assessmentID,
		"score":           result.Score,
		"correct_answers": result.CorrectAnswers,
	})
	return result, nil
}

// GetResults returns per-question results of a completed assessment.
func (s *AssessmentService) GetResults(ctx context.Context, userID, assessmentID int) (result0 *AssessmentResults, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "get_results",
		observability.AttributeUserID(userID), observability.AttributeAssessmentID(assessmentID))
	defer observability.FinishSpan(span, &err)

	db := s.db.WithContext(ctx)
	assessment, err := findAssessment(db, userID, assessmentID)
	if err != nil {
		return nil, err
	}
	if !assessment.IsCompleted {
		return nil, invalidState("assessment is not completed yet")
	}

	questions, err := loadQuestions(db, assessmentID)
	if err != nil {
		return nil, err
	}
	var answers []models.Answer
	if err := db.Where("assessment_id = ?", assessmentID).Find(&answers).Error; err != nil {
		return nil, translateError(err, "answer")
	}

	return &AssessmentResults{
		Assessment: assessment,
		Summary: ResultSummary{
			TotalQuestions:    assessment.TotalQuestions,
			QuestionsAnswered: assessment.QuestionsAnswered,
			CorrectAnswers:    assessment.CorrectAnswers,
			ScorePercentage:   assessment.ScorePercentage,
			TimeTakenMinutes:  assessment.TimeTakenMinutes,
		},
		QuestionResults: questionResults(questions, answers),
	}, nil
}

func questionResults(questions []models.Question, answers []models.Answer) []QuestionResult {
	byQuestion := lo.KeyBy(answers, func(a models.Answer) int { return a.QuestionID })

	return lo.Map(questions, func(q models.Question, _ int) QuestionResult {
		r := QuestionResult{
			QuestionID:     q.ID,
			QuestionText:   q.QuestionText,
			QuestionType:   q.QuestionType,
			CorrectAnswer:  q.CorrectAnswer,
			PointsPossible: q.PointsPossible,
			Explanation:    q.Explanation,
		}
		if a, ok := byQuestion[q.ID]; ok {
			r.UserAnswer = a.AnswerText
			if r.UserAnswer == nil || *r.UserAnswer == "" {
				r.UserAnswer = a.SelectedOption
			}
			r.IsCorrect = a.IsCorrect
			r.PointsEarned = a.PointsEarned
		}
		return r
	})
}

// PerformanceAnalytics summarises the user's completed assessments over the last days.
func (s *AssessmentService) PerformanceAnalytics(ctx context.Context, userID, days int, subject string) (result0 *PerformanceAnalytics, err error) {
	ctx, span := observability.TraceAssessmentFunction(ctx, "performance_analytics",
		observability.AttributeUserID(userID), observability.AttributeDays(days), observability.AttributeSubject(subject))
	defer observability.FinishSpan(span, &err)

	query := s.db.WithContext(ctx).
		Where("user_id = ? AND is_completed = ? AND created_at >= ?", userID, true, windowStart(s.now(), days))
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}

	var assessments []models.Assessment
	if err := query.Order("created_at, id").Find(&assessments).Error; err != nil {
		return nil, translateError(err, "assessment")
	}
	return buildPerformanceAnalytics(assessments), nil
}

func buildPerformanceAnalytics(assessments []models.Assessment) *PerformanceAnalytics {
	out := &PerformanceAnalytics{
		SubjectPerformance:    []SubjectScore{},
		DifficultyPerformance: []DifficultyScore{},
		RecentScores:          []DatedScore{},
	}
	if len(assessments) == 0 {
		return out
	}

	scores := assessmentScores(assessments)
	out.TotalAssessments = len(assessments)
	out.AverageScore = scoring.Round2(scoring.Mean(scores))
	out.ImprovementTrend = scoring.RoundTo(scoring.Slope(scores), 4)

	for _, subject := range lo.Uniq(lo.Map(assessments, func(a models.Assessment, _ int) string { return a.Subject })) {
		group := lo.Filter(assessments, func(a models.Assessment, _ int) bool { return a.Subject == subject })
		out.SubjectPerformance = append(out.SubjectPerformance, SubjectScore{
			Subject:         subject,
			AverageScore:    meanScore(group),
			AssessmentCount: len(group),
		})
	}

	for _, difficulty := range lo.Uniq(lo.Map(assessments, func(a models.Assessment, _ int) models.Difficulty { return a.DifficultyLevel })) {
		group := lo.Filter(assessments, func(a models.Assessment, _ int) bool { return a.DifficultyLevel == difficulty })
		out.DifficultyPerformance = append(out.DifficultyPerformance, DifficultyScore{
			Difficulty:      difficulty,
			AverageScore:    meanScore(group),
			AssessmentCount: len(group),
		})
	}

	recent := assessments
	if len(recent) > recentScoresLimit {
		recent = recent[len(recent)-recentScoresLimit:]
	}
	out.RecentScores = lo.Map(recent, func(a models.Assessment, _ int) DatedScore {
		return DatedScore{Date: a.CreatedAt.Format(scoring.DateLayout), Score: a.Score(), Subject: a.Subject}
	})
	return out
}

func assessmentScores(assessments []models.Assessment) []float64 {
	return lo.Map(assessments, func(a models.Assessment, _ int) float64 { return a.Score() })
}

// meanScore is the rounded mean used in per-group breakdowns.
func meanScore(assessments []models.Assessment) float64 {
	return scoring.Round2(scoring.Mean(assessmentScores(assessments)))
}
