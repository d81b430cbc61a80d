// Package services provides domain services that span aggregates.
//
// The package includes:
//   - RobotDispatcher: picks the nearest available robot for a pickup point
package services
