package observability

import (
	"errors"

	contextutils "learnapp/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FinishSpan ends a span and records any error pointed to by errPtr.
// Use with a named error return: `defer observability.FinishSpan(span, &err)`
//
// Domain rejections (not found, invalid state, validation) are tagged with their
// error code but leave the span status unset; only error and fatal severities mark
// the span as failed.
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	defer span.End()

	if errPtr == nil || *errPtr == nil {
		return
	}
	err := *errPtr

	var appErr *contextutils.AppError
	if errors.As(err, &appErr) {
		span.SetAttributes(
			attribute.String("app.error.code", string(appErr.Code)),
			attribute.String("app.error.severity", string(appErr.Severity)),
		)
		if appErr.Severity != contextutils.SeverityError && appErr.Severity != contextutils.SeverityFatal {
			return
		}
	}

	span.RecordError(err, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, err.Error())
}
