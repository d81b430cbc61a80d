package http

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// LocationRequest is a point in degrees.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

func (r LocationRequest) toDomain() (kernel.Location, error) {
	return kernel.NewLocation(*r.Latitude, *r.Longitude)
}

// AddressRequest is a street address with its location.
type AddressRequest struct {
	Street   string          `json:"street" validate:"required,max=256"`
	City     string          `json:"city" validate:"required,max=128"`
	State    string          `json:"state" validate:"max=64"`
	Zip      string          `json:"zip" validate:"max=16"`
	Location LocationRequest `json:"location"`
}

func (r AddressRequest) toDomain() (kernel.Address, error) {
	location, err := r.Location.toDomain()
	if err != nil {
		return kernel.Address{}, err
	}
	return kernel.NewAddress(r.Street, r.City, r.State, r.Zip, location)
}

// LineItemRequest is one ordered item with its unit weight and volume.
type LineItemRequest struct {
	ItemID         string  `json:"item_id" validate:"required,max=128"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"min=0"`
	Quantity       int     `json:"quantity" validate:"required,min=1"`
	UnitWeightKg   float64 `json:"unit_weight_kg" validate:"min=0"`
	UnitVolumeL    float64 `json:"unit_volume_l" validate:"min=0"`
}

// CreateOrderRequest is the body of POST /api/v1/orders.
type CreateOrderRequest struct {
	VendorID        string            `json:"vendor_id" validate:"required,max=128"`
	Items           []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	VendorAddress   AddressRequest    `json:"vendor_address"`
	DeliveryAddress AddressRequest    `json:"delivery_address"`
}

func (r CreateOrderRequest) lineItems() ([]order.LineItem, error) {
	items := make([]order.LineItem, 0, len(r.Items))
	var errList []error
	for _, it := range r.Items {
		price, err := kernel.NewMoney(it.UnitPriceCents)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		li, err := order.NewLineItem(it.ItemID, price, it.Quantity, it.UnitWeightKg, it.UnitVolumeL)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		items = append(items, li)
	}
	return items, errors.Join(errList...)
}

// ReasonRequest carries the reason for a reject or abort.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=512"`
}

// AdvanceRobotRequest names the next robot stage.
type AdvanceRobotRequest struct {
	NextStatus string `json:"next_status" validate:"required"`
}

// ConfirmDeliveryRequest carries the code the customer received.
type ConfirmDeliveryRequest struct {
	Code string `json:"code" validate:"required,max=16"`
}

// RegisterRobotRequest is the body of POST /api/v1/robots.
type RegisterRobotRequest struct {
	ID         string          `json:"id"`
	Name       string          `json:"name" validate:"required,max=128"`
	Location   LocationRequest `json:"location"`
	Battery    int             `json:"battery" validate:"min=0,max=100"`
	CapacityKg float64         `json:"capacity_kg" validate:"gt=0"`
	CapacityL  float64         `json:"capacity_l" validate:"gt=0"`
	SpeedKmh   float64         `json:"speed_kmh" validate:"min=0"`
}

// RobotAvailabilityRequest sets a robot idle, offline or in maintenance.
type RobotAvailabilityRequest struct {
	Status string `json:"status" validate:"required"`
}

// RobotTelemetryRequest reports location, battery or both.
type RobotTelemetryRequest struct {
	Location *LocationRequest `json:"location"`
	Battery  *int             `json:"battery" validate:"omitempty,min=0,max=100"`
}
