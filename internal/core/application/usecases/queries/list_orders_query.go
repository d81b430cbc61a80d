package queries

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrListOrdersQueryIsNotConstructed is returned when the query did not come from NewListOrdersQuery.
var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery lists the orders visible to a principal, newest first.
// Customers see their own orders, vendors the orders placed with them and
// fleet admins every order. An empty statuses slice does not filter.
type ListOrdersQuery struct {
	principal kernel.Principal
	statuses  []order.Status
	limit     int
	guard     guard.ConstructorGuard
}

// NewListOrdersQuery validates every status and clamps limit into the
// allowed page size.
//
// Example:
//
//	q, err := NewListOrdersQuery(vendor, []order.Status{order.Pending}, 20)
func NewListOrdersQuery(principal kernel.Principal, statuses []order.Status, limit int) (ListOrdersQuery, error) {
	if principal.ID == "" {
		return ListOrdersQuery{}, errs.NewValueIsRequiredError("principal")
	}
	if err := principal.Role.Validate(); err != nil {
		return ListOrdersQuery{}, err
	}
	for _, s := range statuses {
		if err := s.Validate(); err != nil {
			return ListOrdersQuery{}, err
		}
	}

	return ListOrdersQuery{
		principal: principal,
		statuses:  append([]order.Status(nil), statuses...),
		limit:     clampLimit(limit),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

// Principal and Limit return the query fields.
func (q ListOrdersQuery) Principal() kernel.Principal { return q.principal }
func (q ListOrdersQuery) Limit() int                  { return q.limit }

// Statuses returns a copy of the status filter.
func (q ListOrdersQuery) Statuses() []order.Status {
	return append([]order.Status(nil), q.statuses...)
}
