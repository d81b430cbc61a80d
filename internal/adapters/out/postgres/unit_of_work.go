// Package postgres provides the GORM-based Unit of Work. One unit of work is
// one database transaction; the order, robot and OTP repositories it hands out
// all run on that transaction once Begin was called.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	o, err := uow.OrderRepository().Get(ctx, id)
//	// ... mutate o
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// Rollback after a successful Commit is a no-op, so the deferred call is safe.
package postgres

import (
	"context"
	"time"

	"robodelivery/internal/adapters/out/postgres/dbutil"
	"robodelivery/internal/adapters/out/postgres/orderrepo"
	"robodelivery/internal/adapters/out/postgres/otprepo"
	"robodelivery/internal/adapters/out/postgres/robotrepo"
	"robodelivery/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormUnitOfWorkFactory creates the factory. timeout bounds every statement
// issued through the unit of work's repositories.
func NewGormUnitOfWorkFactory(db *gorm.DB, timeout time.Duration) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db, timeout: timeout}
}

// Create returns a unit of work with no transaction open.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db, timeout: f.timeout}
}

// GormUnitOfWork is not safe for concurrent use; every operation creates its own.
type GormUnitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	timeout time.Duration
}

// Begin starts the transaction. Calling it twice keeps the first transaction.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return dbutil.Translate(tx.Error, "transaction", "begin")
	}

	uow.tx = tx
	return nil
}

// Commit fails with gorm.ErrInvalidTransaction when Begin was not called.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return dbutil.Translate(err, "transaction", "commit")
}

// Rollback discards the transaction. Without an open transaction it does nothing.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return nil
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// OrderRepository is bound to the open transaction, if any.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow.timeout)
}

func (uow *GormUnitOfWork) RobotRepository() ports.RobotRepository {
	return robotrepo.NewGormRobotRepository(uow.conn(), uow.timeout)
}

func (uow *GormUnitOfWork) OTPRepository() ports.OTPRepository {
	return otprepo.NewGormOTPRepository(uow.conn(), uow.timeout)
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
