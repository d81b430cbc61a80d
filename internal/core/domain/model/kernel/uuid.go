package kernel

import (
	"bytes"
	"fmt"

	"robodelivery/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed is returned by Validate for the zero UUID.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID must be created via NewUUID, UUIDFromString, or UUIDFromBytes")

// UUID identifies orders, robots, OTP records and notifications.
// The nil UUID is never valid.
type UUID struct {
	id uuid.UUID
}

// NewUUID returns a random version 4 UUID.
func NewUUID() UUID {
	return UUID{id: uuid.New()}
}

// UUIDFromString parses the canonical textual form.
func UUIDFromString(s string) (UUID, error) {
	return wrapUUID(uuid.Parse(s))
}

// UUIDFromBytes reads the 16-byte form stored in the database.
func UUIDFromBytes(b []byte) (UUID, error) {
	return wrapUUID(uuid.FromBytes(b))
}

func wrapUUID(id uuid.UUID, parseErr error) (UUID, error) {
	if parseErr != nil {
		return UUID{}, errs.NewValueIsInvalidErrorWithCause("uuid", fmt.Errorf("malformed id: %w", parseErr))
	}
	u := UUID{id: id}
	return u, u.Validate()
}

// MustUUIDFromString is UUIDFromString for fixtures and constants.
func MustUUIDFromString(s string) UUID {
	id, err := UUIDFromString(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical textual form.
func (u UUID) String() string { return u.id.String() }

// Bytes exposes the raw value for storage adapters.
func (u UUID) Bytes() uuid.UUID { return u.id }

// IsEqual reports whether both UUIDs hold the same value.
func (u UUID) IsEqual(other UUID) bool { return u.id == other.id }

// Compare orders identifiers bytewise; used as the deterministic tie-breaker
// when two candidates are otherwise equal.
func (u UUID) Compare(other UUID) int {
	return bytes.Compare(u.id[:], other.id[:])
}

// Validate rejects the zero and nil UUIDs.
func (u UUID) Validate() error {
	if u.id == uuid.Nil {
		return ErrUUIDIsNotConstructed
	}
	return nil
}
