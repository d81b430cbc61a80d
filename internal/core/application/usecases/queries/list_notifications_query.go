package queries

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrListNotificationsQueryIsNotConstructed is returned when the query did not come from NewListNotificationsQuery.
var ErrListNotificationsQueryIsNotConstructed = errors.New(
	"ListNotificationsQuery must be created via NewListNotificationsQuery constructor",
)

// ListNotificationsQuery reads the principal's own inbox, newest first.
type ListNotificationsQuery struct {
	principal  kernel.Principal
	unreadOnly bool
	limit      int
	guard      guard.ConstructorGuard
}

// NewListNotificationsQuery lists the principal's own inbox.
func NewListNotificationsQuery(principal kernel.Principal, unreadOnly bool, limit int) (ListNotificationsQuery, error) {
	if principal.ID == "" {
		return ListNotificationsQuery{}, errs.NewValueIsRequiredError("principal")
	}

	return ListNotificationsQuery{
		principal:  principal,
		unreadOnly: unreadOnly,
		limit:      clampLimit(limit),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q ListNotificationsQuery) Validate() error {
	return q.guard.Validate(ErrListNotificationsQueryIsNotConstructed)
}

// Field accessors.
func (q ListNotificationsQuery) Principal() kernel.Principal { return q.principal }
func (q ListNotificationsQuery) UnreadOnly() bool            { return q.unreadOnly }
func (q ListNotificationsQuery) Limit() int                  { return q.limit }
