package services

import (
	"context"
	"errors"
	"time"

	contextutils "learnapp/internal/utils"

	"gorm.io/gorm"
)

// Paging limits shared by list operations
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page is a limit/offset window over an ordered listing.
type Page struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

// Normalize clamps the page into [1, maxLimit] with a non-negative offset.
func (p Page) Normalize(maxLimit int) Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	return db.Limit(p.Limit).Offset(p.Offset)
}

// notFound is returned both for absent records and for records owned by someone else.
func notFound(what string) error {
	return contextutils.NewAppError(contextutils.ErrorCodeRecordNotFound, contextutils.SeverityInfo,
		what+" not found", "")
}

func invalidState(message string) error {
	return contextutils.NewAppError(contextutils.ErrorCodeInvalidState, contextutils.SeverityWarn, message, "")
}

func validationFailed(message string) error {
	return contextutils.NewAppError(contextutils.ErrorCodeValidationFailed, contextutils.SeverityWarn, message, "")
}

// translateError maps gorm errors onto the application error taxonomy.
func translateError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeRecordExists, contextutils.SeverityInfo,
			what+" already exists", "", err)
	case errors.Is(err, context.DeadlineExceeded):
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeTimeout, contextutils.SeverityWarn,
			"timed out accessing "+what, "", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeRecordNotFound, contextutils.SeverityInfo,
			"referenced record not found", "", err)
	default:
		var appErr *contextutils.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseQuery, contextutils.SeverityError,
			"failed to access "+what, err.Error(), err)
	}
}

// windowStart returns the start of a lookback window of days ending at now.
func windowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
