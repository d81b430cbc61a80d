// Package dbutil holds the error classification and statement deadlines shared
// by the gorm repositories.
package dbutil

import (
	"context"
	"errors"
	"time"

	"robodelivery/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DefaultTimeout bounds a statement when no timeout is configured.
const DefaultTimeout = 3 * time.Second

const uniqueViolation = pq.ErrorCode("23505")

// Bound gives a single statement its deadline. A non-positive timeout uses DefaultTimeout.
func Bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Translate maps driver and gorm errors onto the errs vocabulary:
// a missing row is NOT_FOUND, a unique violation is CONFLICT and an expired
// deadline is UNAVAILABLE. Anything else is returned as is.
func Translate(err error, entity string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NewObjectNotFoundError(entity, id)
	case errors.Is(err, context.DeadlineExceeded):
		return errs.NewUnavailableError("postgres", err)
	case IsUniqueViolation(err):
		return errs.NewConflictErrorWithCause(entity, id, err)
	default:
		return err
	}
}

// IsUniqueViolation recognizes both gorm's translated error and a raw pq 23505.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
