package robotrepo

import (
	"context"
	"time"

	"robodelivery/internal/adapters/out/postgres/dbutil"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"

	"gorm.io/gorm"
)

// capacityTolerance matches the float slack kernel.Payload.FitsIn allows.
const capacityTolerance = 1e-9

// GormRobotRepository implements ports.RobotRepository using GORM.
type GormRobotRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormRobotRepository creates a repository whose calls are bounded by timeout.
func NewGormRobotRepository(db *gorm.DB, timeout time.Duration) *GormRobotRepository {
	return &GormRobotRepository{db: db, timeout: timeout}
}

// Add inserts a new robot row. A duplicate id surfaces as a ConflictError.
func (r *GormRobotRepository) Add(ctx context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	dto := fromDomain(aggregate)
	return dbutil.Translate(r.db.WithContext(ctx).Create(&dto).Error, "robot", aggregate.ID().String())
}

// Update is conditional on the stored version like the order repository.
func (r *GormRobotRepository) Update(ctx context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&RobotDTO{}).
		Where("id = ? AND version = ?", dto.ID, dto.Version).
		Updates(mutableColumns(dto))
	if result.Error != nil {
		return dbutil.Translate(result.Error, "robot", aggregate.ID().String())
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&RobotDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return dbutil.Translate(err, "robot", aggregate.ID().String())
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("robot", aggregate.ID().String())
		}
		return errs.NewConflictError("robot", aggregate.ID().String())
	}

	aggregate.IncrementVersion()
	return nil
}

// Get loads one robot or returns an ObjectNotFoundError.
func (r *GormRobotRepository) Get(ctx context.Context, id kernel.UUID) (*robot.Robot, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	var dto RobotDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		return nil, dbutil.Translate(err, "robot", id.String())
	}

	return toDomain(dto)
}

// List returns every robot ordered by id.
func (r *GormRobotRepository) List(ctx context.Context) ([]*robot.Robot, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	var dtos []RobotDTO
	if err := r.db.WithContext(ctx).Order("id").Find(&dtos).Error; err != nil {
		return nil, dbutil.Translate(err, "robot", "list")
	}
	return toDomainList(dtos)
}

// ListIdle returns idle robots ordered by id. Battery and capacity filtering is left to the dispatcher.
func (r *GormRobotRepository) ListIdle(ctx context.Context) ([]*robot.Robot, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	var dtos []RobotDTO
	if err := r.db.WithContext(ctx).Where("status = ?", int(robot.Idle)).Order("id").Find(&dtos).Error; err != nil {
		return nil, dbutil.Translate(err, "robot", "idle")
	}
	return toDomainList(dtos)
}

// claim flips one idle row to assigned and adds load to it. The status
// predicate makes concurrent claims on the same robot mutually exclusive; the
// capacity predicates reject a load that no longer fits.
//
// Returns false, nil when no row matched.
func (r *GormRobotRepository) claim(ctx context.Context, robotID, orderID kernel.UUID, load kernel.Payload, now time.Time) (bool, error) {
	ctx, cancel := dbutil.Bound(ctx, r.timeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&RobotDTO{}).
		Where("id = ? AND status = ?", robotID.Bytes(), int(robot.Idle)).
		Where("capacity_kg - load_kg + ? >= ?", capacityTolerance, load.WeightKg()).
		Where("capacity_l - load_l + ? >= ?", capacityTolerance, load.VolumeL()).
		Updates(map[string]any{
			"status":            int(robot.Assigned),
			"assigned_order_id": orderID.Bytes(),
			"load_kg":           gorm.Expr("load_kg + ?", load.WeightKg()),
			"load_l":            gorm.Expr("load_l + ?", load.VolumeL()),
			"version":           gorm.Expr("version + 1"),
			"updated_at":        now,
		})
	if result.Error != nil {
		return false, dbutil.Translate(result.Error, "robot", robotID.String())
	}
	return result.RowsAffected == 1, nil
}
