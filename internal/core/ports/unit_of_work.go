package ports

import (
	"context"
)

// UnitOfWorkFactory hands out a fresh unit of work per command attempt.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork groups order, robot and OTP writes into one transaction.
// Repositories obtained before Begin run outside the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	Commit(ctx context.Context) error

	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository

	RobotRepository() RobotRepository

	OTPRepository() OTPRepository
}
