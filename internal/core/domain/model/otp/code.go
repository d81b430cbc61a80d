// Package otp models one-time confirmation codes. Only a hash of the code and its
// expiry are kept; the plaintext leaves the process exactly once, at issuance.
package otp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// Purpose scopes a code. Issuing a new code for a (subject, purpose) pair
// invalidates the previous one.
type Purpose string

const (
	PurposeDeliveryConfirmation Purpose = "delivery_confirmation"
)

// Validate rejects unknown purposes.
func (p Purpose) Validate() error {
	if p != PurposeDeliveryConfirmation {
		return errs.NewValueIsInvalidErrorWithCause("purpose", fmt.Errorf("%q is not a known purpose", string(p)))
	}
	return nil
}

// ErrCodeIsNotConstructed is returned when a Code did not come from NewCode or RestoreCode.
var ErrCodeIsNotConstructed = errors.New("Code must be created via NewCode constructor")

// Code is the stored record of an issued one-time code.
type Code struct {
	id        kernel.UUID
	subjectID string
	purpose   Purpose
	codeHash  []byte
	expiresAt time.Time
	used      bool
	createdAt time.Time
	guard     guard.ConstructorGuard
}

// NewCode records a freshly issued code by its hash.
func NewCode(id kernel.UUID, subjectID string, purpose Purpose, codeHash []byte, expiresAt, now time.Time) (*Code, error) {
	return build(id, subjectID, purpose, codeHash, expiresAt, false, now, true)
}

// RestoreCode rebuilds a stored record. Expired records are accepted.
func RestoreCode(
	id kernel.UUID,
	subjectID string,
	purpose Purpose,
	codeHash []byte,
	expiresAt time.Time,
	used bool,
	createdAt time.Time,
) (*Code, error) {
	return build(id, subjectID, purpose, codeHash, expiresAt, used, createdAt, false)
}

func build(
	id kernel.UUID,
	subjectID string,
	purpose Purpose,
	codeHash []byte,
	expiresAt time.Time,
	used bool,
	createdAt time.Time,
	fresh bool,
) (*Code, error) {
	var errList []error
	if err := id.Validate(); err != nil {
		errList = append(errList, err)
	}
	if strings.TrimSpace(subjectID) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("subjectID"))
	}
	if err := purpose.Validate(); err != nil {
		errList = append(errList, err)
	}
	if len(codeHash) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("codeHash"))
	}
	if fresh && !expiresAt.After(createdAt) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("expiresAt",
			fmt.Errorf("%s is not after %s", expiresAt, createdAt)))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	hash := make([]byte, len(codeHash))
	copy(hash, codeHash)

	return &Code{
		id:        id,
		subjectID: subjectID,
		purpose:   purpose,
		codeHash:  hash,
		expiresAt: expiresAt,
		used:      used,
		createdAt: createdAt,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the code was created through NewCode or RestoreCode.
func (c *Code) Validate() error {
	if c == nil {
		return ErrCodeIsNotConstructed
	}
	return c.guard.Validate(ErrCodeIsNotConstructed)
}

// Field accessors. ExpiresAt is the instant after which the code no longer
// verifies.
func (c *Code) ID() kernel.UUID      { return c.id }
func (c *Code) SubjectID() string    { return c.subjectID }
func (c *Code) Purpose() Purpose     { return c.purpose }
func (c *Code) ExpiresAt() time.Time { return c.expiresAt }
func (c *Code) IsUsed() bool         { return c.used }
func (c *Code) CreatedAt() time.Time { return c.createdAt }

// Hash returns a copy of the stored hash.
func (c *Code) Hash() []byte {
	hash := make([]byte, len(c.codeHash))
	copy(hash, c.codeHash)
	return hash
}

// IsActive reports whether the code can still be redeemed at now.
// A code is dead at exactly its expiry instant.
func (c *Code) IsActive(now time.Time) bool {
	return !c.used && now.Before(c.expiresAt)
}

// MarkUsed consumes the code. A used code cannot be consumed again.
func (c *Code) MarkUsed() error {
	if c.used {
		return errs.NewConflictError("otp", c.id.String())
	}
	c.used = true
	return nil
}
