package kernel

import (
	"fmt"

	"robodelivery/internal/pkg/errs"
)

// Money is an amount in integer minor units (cents).
// Totals are summed in cents so 12.99 + 8.99 is exactly 21.98.
type Money int64

// NewMoney creates an amount in cents. Negative amounts are rejected.
func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return 0, errs.NewValueIsOutOfRangeError("amount", cents, 0, "unbounded")
	}
	return Money(cents), nil
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 {
	return int64(m)
}

// Multiply returns m times quantity.
func (m Money) Multiply(quantity int) Money {
	return m * Money(quantity)
}

// Add returns the sum of both amounts.
func (m Money) Add(other Money) Money {
	return m + other
}

// String formats the amount with two decimals, e.g. "21.98".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}
