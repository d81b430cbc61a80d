// Package errs provides the typed errors shared by every layer of the delivery
// orchestration core.
//
// Validation errors:
//   - ValueIsRequiredError: a required value is missing
//   - ValueIsInvalidError: a value is malformed
//   - ValueIsOutOfRangeError: a value is outside its allowed bounds
//   - ObjectNotFoundError: a referenced record does not exist
//   - VersionIsInvalidError: an aggregate version is stale
//
// Operation outcome errors:
//   - TransitionError: the action is not allowed from the current state
//   - NotAuthorizedError: the principal may not perform the action
//   - ConflictError: a conditional write lost against a concurrent writer
//   - UnavailableError: a store or transport call timed out
//   - ErrNoRobotAvailable and ErrOTPInvalid sentinels
//
// Each error type has a sentinel variable, constructors with and without cause,
// and an Unwrap method so callers can match with errors.Is.
//
// CodeOf maps any error to the stable Code reported to callers
// (OK, INVALID_TRANSITION, NOT_AUTHORIZED, NO_ROBOT_AVAILABLE, OTP_INVALID,
// NOT_FOUND, CONFLICT, ...).
package errs
