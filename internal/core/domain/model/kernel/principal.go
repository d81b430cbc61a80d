package kernel

import (
	"fmt"

	"robodelivery/internal/pkg/errs"
)

// Role is the capability class of an authenticated caller.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleVendor     Role = "vendor"
	RoleFleetAdmin Role = "fleet_admin"
)

// Validate rejects roles other than customer, vendor and fleet_admin.
func (r Role) Validate() error {
	switch r {
	case RoleCustomer, RoleVendor, RoleFleetAdmin:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role", fmt.Errorf("%q is not a known role", string(r)))
	}
}

// Principal is the caller identity supplied by the identity provider.
// ID is opaque to the core.
type Principal struct {
	ID   string
	Role Role
}

// NewPrincipal requires a non-empty id and a known role.
func NewPrincipal(id string, role Role) (Principal, error) {
	if id == "" {
		return Principal{}, errs.NewValueIsRequiredError("principal id")
	}
	if err := role.Validate(); err != nil {
		return Principal{}, err
	}
	return Principal{ID: id, Role: role}, nil
}

// IsFleetAdmin reports whether the caller may act on any order or robot.
func (p Principal) IsFleetAdmin() bool {
	return p.Role == RoleFleetAdmin
}

// Is reports whether p is the given party acting in the given role.
func (p Principal) Is(role Role, id string) bool {
	return p.Role == role && p.ID == id
}

// SystemPrincipal acts for scheduled jobs. It carries fleet-admin rights.
var SystemPrincipal = Principal{ID: "system", Role: RoleFleetAdmin}
