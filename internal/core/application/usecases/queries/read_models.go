// Package queries contains read operations for retrieving system state.
// Each query is authorized against the calling principal and returns a read
// model shaped for the inbound API rather than the aggregate itself.
package queries

import (
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// LocationResponse is a point in degrees.
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func newLocationResponse(l kernel.Location) LocationResponse {
	return LocationResponse{Latitude: l.Latitude(), Longitude: l.Longitude()}
}

// AddressResponse is the JSON form of kernel.Address.
type AddressResponse struct {
	Street   string           `json:"street"`
	City     string           `json:"city"`
	State    string           `json:"state"`
	Zip      string           `json:"zip"`
	Location LocationResponse `json:"location"`
}

func newAddressResponse(a kernel.Address) AddressResponse {
	return AddressResponse{
		Street:   a.Street(),
		City:     a.City(),
		State:    a.State(),
		Zip:      a.Zip(),
		Location: newLocationResponse(a.Location()),
	}
}

// LineItemResponse is one order line with its computed total.
type LineItemResponse struct {
	ItemID         string  `json:"item_id"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	Quantity       int     `json:"quantity"`
	UnitWeightKg   float64 `json:"unit_weight_kg"`
	UnitVolumeL    float64 `json:"unit_volume_l"`
	LineTotal      string  `json:"line_total"`
}

// OrderResponse is the order read model. Amounts are rendered with two decimals.
type OrderResponse struct {
	ID                    string             `json:"id"`
	CustomerID            string             `json:"customer_id"`
	VendorID              string             `json:"vendor_id"`
	Items                 []LineItemResponse `json:"items"`
	TotalAmount           string             `json:"total_amount"`
	TotalAmountCents      int64              `json:"total_amount_cents"`
	TotalWeightKg         float64            `json:"total_weight_kg"`
	TotalVolumeL          float64            `json:"total_volume_l"`
	VendorAddress         AddressResponse    `json:"vendor_address"`
	DeliveryAddress       AddressResponse    `json:"delivery_address"`
	Status                string             `json:"status"`
	RobotID               *string            `json:"robot_id,omitempty"`
	ConfirmationExpiresAt *time.Time         `json:"delivery_otp_expires_at,omitempty"`
	Reason                string             `json:"reason,omitempty"`
	Version               int64              `json:"version"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// NewOrderResponse maps an aggregate to its read model. Command endpoints use
// it too so every order payload has one shape.
func NewOrderResponse(o *order.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, LineItemResponse{
			ItemID:         item.ItemID(),
			UnitPriceCents: item.UnitPrice().Cents(),
			Quantity:       item.Quantity(),
			UnitWeightKg:   item.UnitWeightKg(),
			UnitVolumeL:    item.UnitVolumeL(),
			LineTotal:      item.LineTotal().String(),
		})
	}

	resp := OrderResponse{
		ID:                    o.ID().String(),
		CustomerID:            o.CustomerID(),
		VendorID:              o.VendorID(),
		Items:                 items,
		TotalAmount:           o.Total().String(),
		TotalAmountCents:      o.Total().Cents(),
		TotalWeightKg:         o.WeightKg(),
		TotalVolumeL:          o.VolumeL(),
		VendorAddress:         newAddressResponse(o.VendorAddress()),
		DeliveryAddress:       newAddressResponse(o.DeliveryAddress()),
		Status:                o.Status().String(),
		ConfirmationExpiresAt: o.ConfirmationExpiresAt(),
		Reason:                o.Reason(),
		Version:               o.Version(),
		CreatedAt:             o.CreatedAt(),
		UpdatedAt:             o.UpdatedAt(),
	}
	if robotID := o.Robot(); robotID != nil {
		id := robotID.String()
		resp.RobotID = &id
	}
	return resp
}

// RobotResponse is the fleet view of a robot, including its current load.
type RobotResponse struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Status          string           `json:"status"`
	Location        LocationResponse `json:"location"`
	Battery         int              `json:"battery"`
	CapacityKg      float64          `json:"capacity_kg"`
	CapacityL       float64          `json:"capacity_l"`
	LoadKg          float64          `json:"load_kg"`
	LoadL           float64          `json:"load_l"`
	SpeedKmh        float64          `json:"speed_kmh"`
	AssignedOrderID *string          `json:"assigned_order_id,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewRobotResponse maps a robot aggregate.
func NewRobotResponse(r *robot.Robot) RobotResponse {
	resp := RobotResponse{
		ID:         r.ID().String(),
		Name:       r.Name(),
		Status:     r.Status().String(),
		Location:   newLocationResponse(r.Location()),
		Battery:    r.Battery(),
		CapacityKg: r.Capacity().WeightKg(),
		CapacityL:  r.Capacity().VolumeL(),
		LoadKg:     r.Load().WeightKg(),
		LoadL:      r.Load().VolumeL(),
		SpeedKmh:   r.SpeedKmh(),
		UpdatedAt:  r.UpdatedAt(),
	}
	if orderID := r.AssignedOrder(); orderID != nil {
		id := orderID.String()
		resp.AssignedOrderID = &id
	}
	return resp
}

// NotificationResponse is an inbox entry.
type NotificationResponse struct {
	ID        string               `json:"id"`
	Type      notification.Type    `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Data      notification.Payload `json:"data"`
	IsRead    bool                 `json:"is_read"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewNotificationResponse maps a notification aggregate.
func NewNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID().String(),
		Type:      n.Type(),
		Title:     n.Title(),
		Message:   n.Message(),
		Data:      n.Payload(),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
}
