package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
)

var errPrincipalIsRequired = errs.NewValueIsRequiredError("principal")

type orderMutation func(uow UoW, o *order.Order) error

// mutateOrder loads the order, authorizes the caller, applies mutate and writes
// the order back inside one unit of work. The conditional write makes a racing
// caller fail with a conflict; the whole step is then rerun from a fresh read.
// Events are drained only from the attempt that committed.
func mutateOrder(
	ctx context.Context,
	factory UoWFactory,
	orderID kernel.UUID,
	authorize func(o *order.Order) error,
	mutate orderMutation,
) (*order.Order, []order.Event, error) {
	var committed *order.Order

	err := retryOnConflict(ctx, func() error {
		return inTx(ctx, factory, func(uow UoW) error {
			orderRepo := uow.OrderRepository()

			o, err := orderRepo.Get(ctx, orderID)
			if err != nil {
				return err
			}
			if err = authorize(o); err != nil {
				return err
			}
			if err = mutate(uow, o); err != nil {
				return err
			}
			if err = orderRepo.Update(ctx, o); err != nil {
				return err
			}

			committed = o
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return committed, committed.PullEvents(), nil
}
