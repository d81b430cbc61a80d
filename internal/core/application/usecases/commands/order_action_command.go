package commands

import (
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/guard"
)

// orderAction is the part every command addressed at one existing order shares.
type orderAction struct {
	principal kernel.Principal
	orderID   kernel.UUID

	guard guard.ConstructorGuard
}

func newOrderAction(principal kernel.Principal, orderID kernel.UUID) (orderAction, error) {
	if err := orderID.Validate(); err != nil {
		return orderAction{}, err
	}
	if principal.ID == "" {
		return orderAction{}, errPrincipalIsRequired
	}
	if err := principal.Role.Validate(); err != nil {
		return orderAction{}, err
	}

	return orderAction{
		principal: principal,
		orderID:   orderID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Principal returns the caller the command acts for.
func (a orderAction) Principal() kernel.Principal {
	return a.principal
}

// OrderID returns the order the command addresses.
func (a orderAction) OrderID() kernel.UUID {
	return a.orderID
}
