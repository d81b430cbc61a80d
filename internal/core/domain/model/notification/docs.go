// Package notification models messages addressed to a single principal about
// an order or delivery. The typed payload is a tagged union keyed by Type.
package notification
