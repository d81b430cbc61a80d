package queries

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrGetOrderQueryIsNotConstructed is returned when the query did not come from NewGetOrderQuery.
var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order on behalf of a principal.
//
// Example:
//
//	query, err := queries.NewGetOrderQuery(principal, orderID)
//	resp, err := handler.Handle(ctx, query)
type GetOrderQuery struct {
	principal kernel.Principal
	orderID   kernel.UUID
	guard     guard.ConstructorGuard
}

// NewGetOrderQuery creates a lookup of orderID on behalf of principal.
func NewGetOrderQuery(principal kernel.Principal, orderID kernel.UUID) (GetOrderQuery, error) {
	if principal.ID == "" {
		return GetOrderQuery{}, errs.NewValueIsRequiredError("principal")
	}
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{principal: principal, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// Field accessors.
func (q GetOrderQuery) Principal() kernel.Principal { return q.principal }
func (q GetOrderQuery) OrderID() kernel.UUID        { return q.orderID }
