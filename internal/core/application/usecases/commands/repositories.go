// Package commands contains business operations that modify system state.
// Every handler follows the same shape: validate the command, authorize the
// principal, load and mutate aggregates inside one unit of work, commit, and
// only then run side effects (robot registry compensation, notifications).
package commands

import (
	"context"
	"errors"
	"time"

	"robodelivery/internal/core/application/notify"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	RobotRepoFactory interface {
		RobotRepository() ports.RobotRepository
	}

	OTPRepoFactory interface {
		OTPRepository() ports.OTPRepository
	}

	// UoW spans every aggregate a transition may touch.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().Get(ctx, id)
	//   // ... mutate
	//   err = uow.OrderRepository().Update(ctx, o)
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		RobotRepoFactory
		OTPRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)

// Emitter receives committed order changes. Implementations must not block.
type Emitter interface {
	Emit(ctx context.Context, change notify.OrderChange)
}

const maxConflictRetries = 3

func newConflictBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return backoff.WithContext(backoff.WithMaxRetries(b, maxConflictRetries), ctx)
}

// retryOnConflict reruns op from a fresh read while it fails with a conflict.
// Any other error stops immediately.
func retryOnConflict(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, errs.ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, newConflictBackOff(ctx))
}

// inTx runs fn inside a fresh unit of work and commits when it returns nil.
func inTx(ctx context.Context, factory UoWFactory, fn func(uow UoW) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
