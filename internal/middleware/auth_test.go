package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "learnapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	userID    int
	err       error
	lastToken string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (int, error) {
	s.lastToken = token
	return s.userID, s.err
}

func newAuthRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", RequireAuth(auth), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     userID,
			"ok":          ok,
			"context_uid": contextutils.GetUserIDFromContext(c.Request.Context()),
		})
	})
	return router
}

func TestRequireAuth_ValidToken(t *testing.T) {
	auth := &stubAuthenticator{userID: 7}
	router := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc.def.ghi", auth.lastToken)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["user_id"])
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(7), body["context_uid"])
}

func TestRequireAuth_SchemeIsCaseInsensitive(t *testing.T) {
	auth := &stubAuthenticator{userID: 3}
	router := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token", auth.lastToken)
}

func TestRequireAuth_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		authErr    error
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty token", "Bearer   ", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", "Bearer old", contextutils.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
		{"inactive", "Bearer tok", contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityWarn, "account is inactive", ""), http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthRouter(&stubAuthenticator{userID: 1, err: tt.authErr})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(UserIDKey, "not-an-int")
	_, ok = GetUserID(c)
	assert.False(t, ok)
}
