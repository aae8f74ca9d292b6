package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecoveryMiddleware converts panics into a logged INTERNAL_SERVER_ERROR response
func ErrorRecoveryMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			panicErr, ok := recovered.(error)
			if !ok {
				panicErr = fmt.Errorf("panic: %v", recovered)
			}
			if errors.Is(panicErr, http.ErrAbortHandler) {
				panic(recovered)
			}

			stack := string(debug.Stack())
			logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
				"http.method": c.Request.Method,
				"http.path":   c.Request.URL.Path,
				"stack":       stack,
			})

			appErr := contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInternalError,
				contextutils.SeverityFatal,
				"Internal server error",
				"A panic occurred while processing the request",
				panicErr,
			)
			if gin.Mode() == gin.DebugMode {
				appErr.Details = fmt.Sprintf("%s\nStack trace: %s", appErr.Details, stack)
			}

			if !c.Writer.Written() {
				HandleAppError(c, appErr)
			}
			c.Abort()
		}()

		c.Next()
	}
}

// HandleAppError writes err as a structured error response with the mapped HTTP status.
// Errors that are not AppErrors are reported as a generic internal error.
func HandleAppError(c *gin.Context, err error) {
	var appErr *contextutils.AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		appErr = contextutils.NewAppError(contextutils.ErrorCodeInternalError, contextutils.SeverityError,
			"Internal server error", "")
	}
	StandardizeAppError(c, appErr)
}

// StandardizeAppError sends a structured error response using AppError
func StandardizeAppError(c *gin.Context, err *contextutils.AppError) {
	statusCode := StatusForCode(err.Code)

	body := err.ToJSON()
	body["retryable"] = contextutils.IsRetryable(err)
	if gin.Mode() != gin.DebugMode {
		delete(body, "cause")
	}
	if statusCode >= http.StatusInternalServerError && err.Cause != nil {
		_ = c.Error(err)
	}

	c.JSON(statusCode, body)
}

// StatusForCode maps AppError codes to HTTP status codes
func StatusForCode(code contextutils.ErrorCode) int {
	switch code {
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidFormat, contextutils.ErrorCodeValidationFailed:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized, contextutils.ErrorCodeSessionExpired,
		contextutils.ErrorCodeInvalidCredentials:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden

	case contextutils.ErrorCodeRecordNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeRecordExists, contextutils.ErrorCodeInvalidState:
		return http.StatusConflict

	case contextutils.ErrorCodeServiceUnavailable, contextutils.ErrorCodeDatabaseConnection:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeTimeout:
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
