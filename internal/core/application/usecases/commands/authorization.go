package commands

import (
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
)

func requireRole(p kernel.Principal, action string, roles ...kernel.Role) error {
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return errs.NewNotAuthorizedError(p.ID, action)
}

func requireOwningCustomer(p kernel.Principal, o *order.Order, action string) error {
	if p.Is(kernel.RoleCustomer, o.CustomerID()) {
		return nil
	}
	return errs.NewNotAuthorizedError(p.ID, action)
}

func requireOwningVendor(p kernel.Principal, o *order.Order, action string) error {
	if p.Is(kernel.RoleVendor, o.VendorID()) {
		return nil
	}
	return errs.NewNotAuthorizedError(p.ID, action)
}

func requireOwningVendorOrFleetAdmin(p kernel.Principal, o *order.Order, action string) error {
	if p.IsFleetAdmin() {
		return nil
	}
	return requireOwningVendor(p, o, action)
}
