// Package robotrepo persists fleet robots with gorm and exposes them as the
// production robot registry.
package robotrepo

import (
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"

	"github.com/google/uuid"
)

// RobotDTO is the gorm row for the robots table. Capacity and load are kept as
// separate weight and volume columns so the claim predicate can compare them in SQL.
type RobotDTO struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name            string      `gorm:"size:128;not null"`
	Status          int         `gorm:"not null;index"`
	Location        LocationDTO `gorm:"embedded;embeddedPrefix:location_"`
	Battery         int         `gorm:"not null"`
	CapacityKg      float64     `gorm:"not null"`
	CapacityL       float64     `gorm:"not null"`
	LoadKg          float64     `gorm:"not null;default:0"`
	LoadL           float64     `gorm:"not null;default:0"`
	SpeedKmh        float64     `gorm:"not null"`
	AssignedOrderID *uuid.UUID  `gorm:"type:uuid;uniqueIndex"`
	Version         int64       `gorm:"not null"`
	UpdatedAt       time.Time   `gorm:"not null"`
}

func (RobotDTO) TableName() string {
	return "robots"
}

type LocationDTO struct {
	Latitude  float64
	Longitude float64
}

func fromDomain(r *robot.Robot) RobotDTO {
	var orderID *uuid.UUID
	if id := r.AssignedOrder(); id != nil {
		raw := id.Bytes()
		orderID = &raw
	}

	return RobotDTO{
		ID:     r.ID().Bytes(),
		Name:   r.Name(),
		Status: int(r.Status()),
		Location: LocationDTO{
			Latitude:  r.Location().Latitude(),
			Longitude: r.Location().Longitude(),
		},
		Battery:         r.Battery(),
		CapacityKg:      r.Capacity().WeightKg(),
		CapacityL:       r.Capacity().VolumeL(),
		LoadKg:          r.Load().WeightKg(),
		LoadL:           r.Load().VolumeL(),
		SpeedKmh:        r.SpeedKmh(),
		AssignedOrderID: orderID,
		Version:         r.Version(),
		UpdatedAt:       r.UpdatedAt(),
	}
}

func mutableColumns(dto RobotDTO) map[string]any {
	return map[string]any{
		"name":               dto.Name,
		"status":             dto.Status,
		"location_latitude":  dto.Location.Latitude,
		"location_longitude": dto.Location.Longitude,
		"battery":            dto.Battery,
		"capacity_kg":        dto.CapacityKg,
		"capacity_l":         dto.CapacityL,
		"load_kg":            dto.LoadKg,
		"load_l":             dto.LoadL,
		"speed_kmh":          dto.SpeedKmh,
		"assigned_order_id":  dto.AssignedOrderID,
		"version":            dto.Version + 1,
		"updated_at":         dto.UpdatedAt,
	}
}

func toDomain(dto RobotDTO) (*robot.Robot, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var orderID *kernel.UUID
	if dto.AssignedOrderID != nil {
		oID, orderErr := kernel.UUIDFromBytes((*dto.AssignedOrderID)[:])
		if orderErr != nil {
			return nil, orderErr
		}
		orderID = &oID
	}

	loc, err := kernel.NewLocation(dto.Location.Latitude, dto.Location.Longitude)
	if err != nil {
		return nil, err
	}

	capacity, err := kernel.NewPayload(dto.CapacityKg, dto.CapacityL)
	if err != nil {
		return nil, err
	}
	load, err := kernel.NewPayload(dto.LoadKg, dto.LoadL)
	if err != nil {
		return nil, err
	}

	return robot.RestoreRobot(robot.Snapshot{
		ID:              id,
		Name:            dto.Name,
		Status:          robot.Status(dto.Status),
		Location:        loc,
		Battery:         dto.Battery,
		Capacity:        capacity,
		Load:            load,
		SpeedKmh:        dto.SpeedKmh,
		AssignedOrderID: orderID,
		Version:         dto.Version,
		UpdatedAt:       dto.UpdatedAt,
	})
}

func toDomainList(dtos []RobotDTO) ([]*robot.Robot, error) {
	robots := make([]*robot.Robot, 0, len(dtos))
	for _, dto := range dtos {
		r, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		robots = append(robots, r)
	}
	return robots, nil
}
