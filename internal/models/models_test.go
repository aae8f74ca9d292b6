package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums_FallbackToOther(t *testing.T) {
	assert.Equal(t, DifficultyHard, ParseDifficulty("hard"))
	assert.Equal(t, Difficulty(Other), ParseDifficulty("legendary"))
	assert.Equal(t, ContentTypeVideo, ParseContentType("video"))
	assert.Equal(t, ContentType(Other), ParseContentType("podcast"))
	assert.Equal(t, RecommendationStatusDismissed, ParseRecommendationStatus("dismissed"))
	assert.Equal(t, AssessmentStatus(Other), ParseAssessmentStatus(""))
}

func TestEnumScan(t *testing.T) {
	tests := []struct {
		name     string
		src      interface{}
		expected Difficulty
	}{
		{"known string", "easy", DifficultyEasy},
		{"known bytes", []byte("expert"), DifficultyExpert},
		{"unknown value", "impossible", Difficulty(Other)},
		{"null", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Difficulty
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, tt.expected, d)
		})
	}

	var d Difficulty
	assert.Error(t, d.Scan(42))
}

func TestEnumValue(t *testing.T) {
	v, err := PriorityHigh.Value()
	require.NoError(t, err)
	assert.Equal(t, "high", v)
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Less(t, PriorityLow.Rank(), Priority(Other).Rank())
}

func TestContentType_IsTextBased(t *testing.T) {
	assert.True(t, ContentTypeArticle.IsTextBased())
	assert.True(t, ContentTypeDocument.IsTextBased())
	assert.False(t, ContentTypeVideo.IsTextBased())
	assert.False(t, ContentTypeQuiz.IsTextBased())
}

func TestAllowedValueLists(t *testing.T) {
	assert.Equal(t, []string{"easy", "medium", "hard", "expert"}, DifficultyValues)
	assert.Contains(t, InteractionTypeValues, "bookmark")
	assert.NotContains(t, RecommendationStatusValues, Other)
}

func TestLearningSession_Helpers(t *testing.T) {
	s := LearningSession{}
	assert.Equal(t, 0, s.Minutes())
	assert.Equal(t, "General", s.TopicOr("General"))

	d := 45
	topic := "Algebra"
	s.DurationMinutes = &d
	s.Topic = &topic
	assert.Equal(t, 45, s.Minutes())
	assert.Equal(t, "Algebra", s.TopicOr("General"))
}

func TestDurationBetween(t *testing.T) {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 45, DurationBetween(start, start.Add(45*time.Minute)))
	assert.Equal(t, 45, DurationBetween(start, start.Add(45*time.Minute+59*time.Second)))
	assert.Equal(t, 0, DurationBetween(start, start.Add(-time.Minute)))
}

func TestQuestion_PublicHidesAnswer(t *testing.T) {
	answer := "Paris"
	explanation := "Capital of France"
	q := Question{ID: 1, QuestionText: "Capital?", CorrectAnswer: &answer, Explanation: &explanation}

	public := q.Public()
	assert.Nil(t, public.CorrectAnswer)
	assert.Nil(t, public.Explanation)
	assert.NotNil(t, q.CorrectAnswer)

	data, err := json.Marshal(public)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correct_answer")
}

func TestUser_PasswordNotSerialized(t *testing.T) {
	data, err := json.Marshal(User{Username: "ada", HashedPassword: "secret-hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
}

func TestRecommendation_Lifecycle(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, Recommendation{ExpiresAt: &past}.IsExpired(now))
	assert.False(t, Recommendation{ExpiresAt: &future}.IsExpired(now))
	assert.False(t, Recommendation{}.IsExpired(now))

	assert.True(t, Recommendation{Status: RecommendationStatusActive}.CanRespond())
	assert.True(t, Recommendation{Status: RecommendationStatusPending}.CanRespond())
	assert.False(t, Recommendation{Status: RecommendationStatusCompleted}.CanRespond())

	assert.True(t, Recommendation{Status: RecommendationStatusAccepted}.CanComplete())
	assert.False(t, Recommendation{Status: RecommendationStatusDeclined}.CanComplete())
	assert.False(t, Recommendation{Status: RecommendationStatusActive}.CanComplete())
}

func TestUserToken_IsUsable(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	assert.True(t, UserToken{ExpiresAt: now.Add(time.Hour)}.IsUsable(now))
	assert.False(t, UserToken{ExpiresAt: now.Add(-time.Hour)}.IsUsable(now))
	assert.False(t, UserToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}.IsUsable(now))
}
