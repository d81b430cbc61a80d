// Package kernel provides the value objects shared by the order, robot, OTP and
// notification aggregates.
//
// The package includes:
//   - UUID: identifier for orders, robots, notifications and OTP records
//   - Location: a WGS84 latitude/longitude pair with great-circle distance
//   - Address: a postal address pinned to a Location
//   - Money: an amount in integer minor units (cents)
//   - Principal: the authenticated caller and its Role
//
// All value objects are immutable and carry a ConstructorGuard so zero values
// are rejected by Validate.
package kernel
