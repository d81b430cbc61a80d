// Package orderrepo persists the order aggregate with gorm. An order is one row
// in orders plus its line items in order_items; the row carries a version
// column that every update is conditioned on.
package orderrepo

import (
	"errors"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the orders row.
type OrderDTO struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey"`
	CustomerID            string        `gorm:"size:128;not null;index"`
	VendorID              string        `gorm:"size:128;not null;index"`
	TotalAmountCents      int64         `gorm:"not null"`
	TotalWeightKg         float64       `gorm:"not null"`
	TotalVolumeL          float64       `gorm:"not null;default:0"`
	VendorAddress         AddressDTO    `gorm:"embedded;embeddedPrefix:vendor_"`
	DeliveryAddress       AddressDTO    `gorm:"embedded;embeddedPrefix:delivery_"`
	Status                int           `gorm:"not null;index"`
	RobotID               *uuid.UUID    `gorm:"type:uuid;index"`
	ConfirmationExpiresAt *time.Time    `gorm:"column:delivery_otp_expires_at"`
	Reason                string        `gorm:"size:500"`
	Version               int64         `gorm:"not null"`
	CreatedAt             time.Time     `gorm:"not null;index"`
	UpdatedAt             time.Time     `gorm:"not null"`
	Items                 []LineItemDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LineItemDTO is an order_items row. Position keeps the customer's ordering.
type LineItemDTO struct {
	OrderID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position       int       `gorm:"primaryKey;autoIncrement:false"`
	ItemID         string    `gorm:"size:128;not null"`
	UnitPriceCents int64     `gorm:"not null"`
	Quantity       int       `gorm:"not null"`
	UnitWeightKg   float64   `gorm:"not null"`
	UnitVolumeL    float64   `gorm:"not null;default:0"`
}

func (LineItemDTO) TableName() string {
	return "order_items"
}

// AddressDTO is embedded twice in OrderDTO, once per address.
type AddressDTO struct {
	Street   string      `gorm:"size:256"`
	City     string      `gorm:"size:128"`
	State    string      `gorm:"size:64"`
	Zip      string      `gorm:"size:32"`
	Location LocationDTO `gorm:"embedded;embeddedPrefix:location_"`
}

type LocationDTO struct {
	Latitude  float64
	Longitude float64
}

func fromDomain(o *order.Order) OrderDTO {
	var robotID *uuid.UUID
	if id := o.Robot(); id != nil {
		raw := id.Bytes()
		robotID = &raw
	}

	id := o.ID().Bytes()
	items := make([]LineItemDTO, 0, len(o.Items()))
	for i, item := range o.Items() {
		items = append(items, LineItemDTO{
			OrderID:        id,
			Position:       i,
			ItemID:         item.ItemID(),
			UnitPriceCents: item.UnitPrice().Cents(),
			Quantity:       item.Quantity(),
			UnitWeightKg:   item.UnitWeightKg(),
			UnitVolumeL:    item.UnitVolumeL(),
		})
	}

	return OrderDTO{
		ID:                    id,
		CustomerID:            o.CustomerID(),
		VendorID:              o.VendorID(),
		TotalAmountCents:      o.Total().Cents(),
		TotalWeightKg:         o.WeightKg(),
		TotalVolumeL:          o.VolumeL(),
		VendorAddress:         addressFromDomain(o.VendorAddress()),
		DeliveryAddress:       addressFromDomain(o.DeliveryAddress()),
		Status:                int(o.Status()),
		RobotID:               robotID,
		ConfirmationExpiresAt: o.ConfirmationExpiresAt(),
		Reason:                o.Reason(),
		Version:               o.Version(),
		CreatedAt:             o.CreatedAt(),
		UpdatedAt:             o.UpdatedAt(),
		Items:                 items,
	}
}

// mutableColumns lists what a transition may change. Line items, parties and
// addresses are fixed at creation. A map is used so NULLs are written too.
func mutableColumns(dto OrderDTO) map[string]any {
	return map[string]any{
		"status":                  dto.Status,
		"robot_id":                dto.RobotID,
		"delivery_otp_expires_at": dto.ConfirmationExpiresAt,
		"reason":                  dto.Reason,
		"version":                 dto.Version + 1,
		"updated_at":              dto.UpdatedAt,
	}
}

func addressFromDomain(a kernel.Address) AddressDTO {
	return AddressDTO{
		Street: a.Street(),
		City:   a.City(),
		State:  a.State(),
		Zip:    a.Zip(),
		Location: LocationDTO{
			Latitude:  a.Location().Latitude(),
			Longitude: a.Location().Longitude(),
		},
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var robotID *kernel.UUID
	if dto.RobotID != nil {
		rID, robotErr := kernel.UUIDFromBytes((*dto.RobotID)[:])
		if robotErr != nil {
			return nil, robotErr
		}
		robotID = &rID
	}

	items := make([]order.LineItem, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		price, priceErr := kernel.NewMoney(itemDTO.UnitPriceCents)
		if priceErr != nil {
			return nil, priceErr
		}
		item, itemErr := order.NewLineItem(itemDTO.ItemID, price, itemDTO.Quantity, itemDTO.UnitWeightKg, itemDTO.UnitVolumeL)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	vendorAddr, vendorErr := addressToDomain(dto.VendorAddress)
	deliveryAddr, deliveryErr := addressToDomain(dto.DeliveryAddress)
	if err = errors.Join(vendorErr, deliveryErr); err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.Snapshot{
		ID:                    id,
		CustomerID:            dto.CustomerID,
		VendorID:              dto.VendorID,
		Items:                 items,
		TotalAmount:           kernel.Money(dto.TotalAmountCents),
		VendorAddress:         vendorAddr,
		DeliveryAddress:       deliveryAddr,
		Status:                order.Status(dto.Status),
		RobotID:               robotID,
		ConfirmationExpiresAt: dto.ConfirmationExpiresAt,
		Reason:                dto.Reason,
		Version:               dto.Version,
		CreatedAt:             dto.CreatedAt,
		UpdatedAt:             dto.UpdatedAt,
	})
}

func addressToDomain(dto AddressDTO) (kernel.Address, error) {
	loc, err := kernel.NewLocation(dto.Location.Latitude, dto.Location.Longitude)
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(dto.Street, dto.City, dto.State, dto.Zip, loc)
}
