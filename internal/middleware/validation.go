package middleware

import (
	"bytes"
	"io"

	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const maxValidatedBodyBytes = 1 << 20

// RequestValidation returns a middleware that validates the JSON request body
// against the named schema before the handler binds it.
func RequestValidation(loader *SchemaLoader, schemaName string, logger *observability.Logger) gin.HandlerFunc {
	return requestValidation(loader, schemaName, false, logger)
}

// OptionalRequestValidation is RequestValidation for endpoints whose body may be omitted.
func OptionalRequestValidation(loader *SchemaLoader, schemaName string, logger *observability.Logger) gin.HandlerFunc {
	return requestValidation(loader, schemaName, true, logger)
}

func requestValidation(loader *SchemaLoader, schemaName string, optional bool, logger *observability.Logger) gin.HandlerFunc {
	if !loader.Has(schemaName) {
		panic("unknown request schema: " + schemaName)
	}

	return func(c *gin.Context) {
		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "request_validation",
			attribute.String("schema.name", schemaName))
		defer span.End()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxValidatedBodyBytes+1))
		if err != nil {
			HandleAppError(c, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInvalidInput,
				contextutils.SeverityWarn, "failed to read request body", "", err))
			c.Abort()
			return
		}
		if len(body) > maxValidatedBodyBytes {
			HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput,
				contextutils.SeverityWarn, "request body too large", ""))
			c.Abort()
			return
		}
		if len(bytes.TrimSpace(body)) == 0 {
			if optional {
				c.Request.Body = io.NopCloser(bytes.NewReader(nil))
				c.Next()
				return
			}
			HandleAppError(c, contextutils.NewAppError(contextutils.ErrorCodeMissingRequired,
				contextutils.SeverityInfo, "request body is required", ""))
			c.Abort()
			return
		}

		if err := loader.ValidateJSON(body, schemaName); err != nil {
			logger.Warn(ctx, "Request validation failed", map[string]interface{}{
				"method":      c.Request.Method,
				"path":        c.FullPath(),
				"schema_name": schemaName,
				"error":       err.Error(),
			})
			span.SetAttributes(attribute.Bool("validation.failed", true))
			HandleAppError(c, err)
			c.Abort()
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
