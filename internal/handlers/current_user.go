package handlers

import (
	"learnapp/internal/middleware"
	contextutils "learnapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// currentUserID returns the authenticated user id, writing a 401 when it is missing.
func currentUserID(c *gin.Context) (int, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return 0, false
	}
	return userID, true
}
