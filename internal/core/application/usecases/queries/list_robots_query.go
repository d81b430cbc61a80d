package queries

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrListRobotsQueryIsNotConstructed is returned when the query did not come from NewListRobotsQuery.
var ErrListRobotsQueryIsNotConstructed = errors.New(
	"ListRobotsQuery must be created via NewListRobotsQuery constructor",
)

// ListRobotsQuery returns the whole fleet ordered by robot id. Fleet admins only.
type ListRobotsQuery struct {
	principal kernel.Principal
	guard     guard.ConstructorGuard
}

// NewListRobotsQuery creates a fleet listing for principal.
func NewListRobotsQuery(principal kernel.Principal) (ListRobotsQuery, error) {
	if principal.ID == "" {
		return ListRobotsQuery{}, errs.NewValueIsRequiredError("principal")
	}
	return ListRobotsQuery{principal: principal, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q ListRobotsQuery) Validate() error {
	return q.guard.Validate(ErrListRobotsQueryIsNotConstructed)
}

// Principal returns the caller.
func (q ListRobotsQuery) Principal() kernel.Principal { return q.principal }
