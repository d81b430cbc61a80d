package ports

import (
	"context"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
)

// OTPRepository stores hashed one-time codes. At most one code per subject
// and purpose is active at a time.
type OTPRepository interface {
	Add(ctx context.Context, code *otp.Code) error

	// InvalidateActive consumes every unused code for the pair.
	InvalidateActive(ctx context.Context, subjectID string, purpose otp.Purpose) error

	// GetActive returns the newest unused code that has not expired at now,
	// or errs.ErrObjectNotFound.
	GetActive(ctx context.Context, subjectID string, purpose otp.Purpose, now time.Time) (*otp.Code, error)

	// MarkUsed flips used from false to true. It reports false when the code was
	// already used, so a code can be redeemed at most once.
	MarkUsed(ctx context.Context, id kernel.UUID) (bool, error)
}
