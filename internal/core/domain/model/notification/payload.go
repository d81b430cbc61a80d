package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"robodelivery/internal/pkg/errs"
)

// Type is the payload discriminator.
type Type string

const (
	TypeOrderUpdate    Type = "order_update"
	TypeDeliveryUpdate Type = "delivery_update"
	TypeSystem         Type = "system"
	TypePromotion      Type = "promotion"
	TypeVendorOrder    Type = "vendor_order"
)

// Validate rejects unknown notification types.
func (t Type) Validate() error {
	switch t {
	case TypeOrderUpdate, TypeDeliveryUpdate, TypeSystem, TypePromotion, TypeVendorOrder:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("type", fmt.Errorf("%q is not a notification type", string(t)))
	}
}

// Payload is one variant of the tagged union. Each variant has a fixed schema.
type Payload interface {
	Type() Type
}

// OrderUpdate tells a customer about a vendor decision or cancellation.
type OrderUpdate struct {
	OrderID        string `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
}

func (OrderUpdate) Type() Type { return TypeOrderUpdate }

// DeliveryUpdate tracks the robot leg of an order.
type DeliveryUpdate struct {
	OrderID               string     `json:"order_id"`
	RobotID               string     `json:"robot_id,omitempty"`
	Status                string     `json:"status"`
	ETASeconds            *int64     `json:"eta_seconds,omitempty"`
	ConfirmationExpiresAt *time.Time `json:"confirmation_expires_at,omitempty"`
}

func (DeliveryUpdate) Type() Type { return TypeDeliveryUpdate }

// VendorOrder keeps the vendor informed about one of its orders.
type VendorOrder struct {
	OrderID          string `json:"order_id"`
	CustomerID       string `json:"customer_id"`
	Status           string `json:"status"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	ItemCount        int    `json:"item_count"`
	RobotID          string `json:"robot_id,omitempty"`
}

func (VendorOrder) Type() Type { return TypeVendorOrder }

// System carries operational messages, including transient delivery codes.
type System struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

func (System) Type() Type { return TypeSystem }

// Promotion carries a marketing offer.
type Promotion struct {
	PromoCode string     `json:"promo_code"`
	Headline  string     `json:"headline"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (Promotion) Type() Type { return TypePromotion }

type envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodePayload writes {"type": ..., "data": {...}}.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, errs.NewValueIsRequiredError("payload")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: p.Type(), Data: data})
}

// DecodePayload reads the form written by EncodePayload and returns the concrete variant.
func DecodePayload(raw []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	var (
		p   Payload
		err error
	)
	switch env.Type {
	case TypeOrderUpdate:
		p, err = decodeAs[OrderUpdate](env.Data)
	case TypeDeliveryUpdate:
		p, err = decodeAs[DeliveryUpdate](env.Data)
	case TypeVendorOrder:
		p, err = decodeAs[VendorOrder](env.Data)
	case TypeSystem:
		p, err = decodeAs[System](env.Data)
	case TypePromotion:
		p, err = decodeAs[Promotion](env.Data)
	default:
		return nil, env.Type.Validate()
	}
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}
	return p, nil
}

func decodeAs[T Payload](data json.RawMessage) (Payload, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
