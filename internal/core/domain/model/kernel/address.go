package kernel

import (
	"errors"
	"fmt"
	"strings"

	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when an Address did not come from NewAddress.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError(
	"address must be created via NewAddress constructor")

// Address is a postal address with its geocoded Location.
type Address struct {
	street   string
	city     string
	state    string
	zip      string
	location Location
	guard    guard.ConstructorGuard
}

// NewAddress builds a street address with its geocoded location. Every text
// field is required.
//
// Example:
//
//	loc, _ := kernel.NewLocation(40.7484, -73.9857)
//	addr, err := kernel.NewAddress("350 5th Ave", "New York", "NY", "10118", loc)
func NewAddress(street, city, state, zip string, location Location) (Address, error) {
	a := Address{
		street: strings.TrimSpace(street),
		city:   strings.TrimSpace(city),
		state:  strings.TrimSpace(state),
		zip:    strings.TrimSpace(zip),
		guard:  guard.NewConstructorGuard(),
	}

	var errList []error
	if a.street == "" {
		errList = append(errList, errs.NewValueIsRequiredError("street"))
	}
	if a.city == "" {
		errList = append(errList, errs.NewValueIsRequiredError("city"))
	}
	if err := location.Validate(); err != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("location", err))
	}
	if err := errors.Join(errList...); err != nil {
		return Address{}, err
	}

	a.location = location
	return a, nil
}

// Validate ensures the address was created through NewAddress.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

// Field accessors.
func (a Address) Street() string     { return a.street }
func (a Address) City() string       { return a.city }
func (a Address) State() string      { return a.state }
func (a Address) Zip() string        { return a.zip }
func (a Address) Location() Location { return a.location }

// String formats the postal part of the address on one line.
func (a Address) String() string {
	return fmt.Sprintf("%s, %s %s %s", a.street, a.city, a.state, a.zip)
}
