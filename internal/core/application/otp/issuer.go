// Package otp issues and verifies one-time delivery confirmation codes.
//
// Issue and Verify take the repository to write through, so callers can run them
// inside the same unit of work as the order transition they guard.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// DefaultDigits is the length of a delivery code.
const DefaultDigits = 6

// Issued is the result handed to the caller exactly once.
type Issued struct {
	Code      string
	ExpiresAt time.Time
}

type verificationRecorder interface {
	OTPVerification(ctx context.Context, ok bool)
}

type noopRecorder struct{}

func (noopRecorder) OTPVerification(context.Context, bool) {}

// Issuer creates and verifies one-time codes. Only the hash is stored; the
// plaintext leaves through Issued and is never logged.
//
// Example:
//
//	issuer, _ := otp.NewIssuer(otp.NewBcryptHasher(bcrypt.DefaultCost), otp.DefaultDigits, logger)
//	issued, err := issuer.Issue(ctx, uow.OTPRepository(), orderID, otp.PurposeDeliveryConfirmation, 30*time.Minute)
type Issuer struct {
	hasher  Hasher
	digits  int
	random  io.Reader
	now     func() time.Time
	logger  *slog.Logger
	metrics verificationRecorder

	// dummyHash is compared against when no code exists so a miss costs the
	// same as a mismatch.
	dummyHash []byte
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithRandom replaces crypto/rand as the digit source, for deterministic tests.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) { i.random = r }
}

// WithMetrics records verification outcomes.
func WithMetrics(m verificationRecorder) Option {
	return func(i *Issuer) { i.metrics = m }
}

// NewIssuer creates an issuer for codes of 4 to 10 digits.
func NewIssuer(hasher Hasher, digits int, logger *slog.Logger, opts ...Option) (*Issuer, error) {
	if digits < 4 || digits > 10 {
		return nil, errs.NewValueIsOutOfRangeError("digits", digits, 4, 10)
	}

	i := &Issuer{
		hasher:  hasher,
		digits:  digits,
		random:  rand.Reader,
		now:     time.Now,
		logger:  logger.With("component", "otp_issuer"),
		metrics: noopRecorder{},
	}
	for _, opt := range opts {
		opt(i)
	}

	dummy, err := hasher.Hash(strings.Repeat("0", digits))
	if err != nil {
		return nil, fmt.Errorf("prepare otp hasher: %w", err)
	}
	i.dummyHash = dummy

	return i, nil
}

// Issue invalidates any outstanding code for (subjectID, purpose), stores the
// hash of a fresh uniformly random code and returns the plaintext.
func (i *Issuer) Issue(
	ctx context.Context,
	repo ports.OTPRepository,
	subjectID string,
	purpose otp.Purpose,
	ttl time.Duration,
) (Issued, error) {
	if ttl <= 0 {
		return Issued{}, errs.NewValueIsOutOfRangeError("ttl", ttl, "exclusive 0", "unbounded")
	}

	plaintext, err := i.generate()
	if err != nil {
		return Issued{}, fmt.Errorf("generate otp: %w", err)
	}
	hash, err := i.hasher.Hash(plaintext)
	if err != nil {
		return Issued{}, fmt.Errorf("hash otp: %w", err)
	}

	now := i.now()
	code, err := otp.NewCode(kernel.NewUUID(), subjectID, purpose, hash, now.Add(ttl), now)
	if err != nil {
		return Issued{}, err
	}

	if err = repo.InvalidateActive(ctx, subjectID, purpose); err != nil {
		return Issued{}, err
	}
	if err = repo.Add(ctx, code); err != nil {
		return Issued{}, err
	}

	return Issued{Code: plaintext, ExpiresAt: code.ExpiresAt()}, nil
}

// Verify consumes the outstanding code for (subjectID, purpose) if candidate matches.
// It returns false for any failure reason; reasons are only logged.
func (i *Issuer) Verify(
	ctx context.Context,
	repo ports.OTPRepository,
	subjectID string,
	purpose otp.Purpose,
	candidate string,
) (bool, error) {
	ok, reason, err := i.verify(ctx, repo, subjectID, purpose, candidate)
	if err != nil {
		return false, err
	}

	i.metrics.OTPVerification(ctx, ok)
	if !ok {
		i.logger.InfoContext(ctx, "otp verification failed",
			"subject_id", subjectID, "purpose", string(purpose), "reason", reason)
	}
	return ok, nil
}

func (i *Issuer) verify(
	ctx context.Context,
	repo ports.OTPRepository,
	subjectID string,
	purpose otp.Purpose,
	candidate string,
) (bool, string, error) {
	if !i.wellFormed(candidate) {
		return false, "malformed", nil
	}

	code, err := repo.GetActive(ctx, subjectID, purpose, i.now())
	if errors.Is(err, errs.ErrObjectNotFound) {
		i.hasher.Matches(i.dummyHash, candidate)
		return false, "missing_or_expired", nil
	}
	if err != nil {
		return false, "", err
	}

	if !i.hasher.Matches(code.Hash(), candidate) {
		return false, "mismatch", nil
	}

	consumed, err := repo.MarkUsed(ctx, code.ID())
	if err != nil {
		return false, "", err
	}
	if !consumed {
		return false, "already_used", nil
	}

	return true, "", nil
}

func (i *Issuer) generate() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(i.digits)), nil)
	n, err := rand.Int(i.random, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", i.digits, n), nil
}

func (i *Issuer) wellFormed(candidate string) bool {
	if len(candidate) != i.digits {
		return false
	}
	for _, r := range candidate {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
