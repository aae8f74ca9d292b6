package handlers

import (
	"errors"
	"fmt"
	"strings"

	"learnapp/internal/middleware"
	contextutils "learnapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// HandleAppError sends err as a structured error response with the mapped HTTP status.
func HandleAppError(c *gin.Context, err error) {
	middleware.HandleAppError(c, err)
}

// HandleValidationError handles input validation errors consistently
func HandleValidationError(c *gin.Context, field string, value interface{}, reason string) {
	HandleAppError(c, contextutils.NewAppError(
		contextutils.ErrorCodeValidationFailed,
		contextutils.SeverityInfo,
		fmt.Sprintf("Invalid %s", field),
		fmt.Sprintf("Value '%v' is invalid: %s", value, reason),
	))
}

// handleBindError reports a failed ShouldBind call. Field-level failures become
// VALIDATION_FAILED; anything else is treated as a malformed body.
func handleBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, describeFieldError(fe))
		}
		HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeValidationFailed,
			contextutils.SeverityInfo, "request validation failed", strings.Join(details, "; ")))
		return
	}

	HandleAppError(c, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityInfo, "invalid request", err.Error(), err))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s: failed %s", field, fe.Tag())
}
