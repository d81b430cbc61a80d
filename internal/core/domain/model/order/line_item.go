package order

import (
	"errors"
	"math"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

const (
	MinQuantity = 1
	MaxQuantity = 100
)

// ErrLineItemIsNotConstructed is returned when a LineItem did not come from NewLineItem.
var ErrLineItemIsNotConstructed = errs.NewValueIsRequiredError(
	"line item must be created via NewLineItem constructor")

// LineItem is one catalog item snapshot inside an order.
// Price, weight and volume are copied at creation and never re-read from the catalog.
type LineItem struct {
	itemID       string
	unitPrice    kernel.Money
	quantity     int
	unitWeightKg float64
	unitVolumeL  float64
	lineTotal    kernel.Money
	guard        guard.ConstructorGuard
}

// NewLineItem validates the snapshot and computes line_total = unit_price * quantity.
//
// Parameters:
//   - itemID: catalog identifier, opaque to the core
//   - unitPrice: price in cents at order time
//   - quantity: between MinQuantity and MaxQuantity
//   - unitWeightKg: non-negative weight of a single unit
//   - unitVolumeL: non-negative volume of a single unit in litres
//
// Example:
//
//	burger, _ := order.NewLineItem("burger", 1299, 2, 0.4, 1.5)
//	// burger.LineTotal() == 2598, burger.Size().WeightKg() == 0.8
func NewLineItem(itemID string, unitPrice kernel.Money, quantity int, unitWeightKg, unitVolumeL float64) (LineItem, error) {
	var errList []error
	if strings.TrimSpace(itemID) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("itemID"))
	}
	if unitPrice < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("unitPrice", unitPrice.Cents(), 0, "unbounded"))
	}
	if quantity < MinQuantity || quantity > MaxQuantity {
		errList = append(errList, errs.NewValueIsOutOfRangeError("quantity", quantity, MinQuantity, MaxQuantity))
	}
	if math.IsNaN(unitWeightKg) || math.IsInf(unitWeightKg, 0) || unitWeightKg < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("unitWeightKg", unitWeightKg, 0, "unbounded"))
	}
	if math.IsNaN(unitVolumeL) || math.IsInf(unitVolumeL, 0) || unitVolumeL < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("unitVolumeL", unitVolumeL, 0, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return LineItem{}, err
	}

	return LineItem{
		itemID:       itemID,
		unitPrice:    unitPrice,
		quantity:     quantity,
		unitWeightKg: unitWeightKg,
		unitVolumeL:  unitVolumeL,
		lineTotal:    unitPrice.Multiply(quantity),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the line item was created through NewLineItem.
func (li LineItem) Validate() error {
	return li.guard.Validate(ErrLineItemIsNotConstructed)
}

// ItemID, UnitPrice, Quantity, UnitWeightKg and UnitVolumeL return the
// fields the line was created with.
func (li LineItem) ItemID() string          { return li.itemID }
func (li LineItem) UnitPrice() kernel.Money { return li.unitPrice }
func (li LineItem) Quantity() int           { return li.quantity }
func (li LineItem) UnitWeightKg() float64   { return li.unitWeightKg }
func (li LineItem) UnitVolumeL() float64    { return li.unitVolumeL }

// LineTotal returns the unit price times quantity.
func (li LineItem) LineTotal() kernel.Money { return li.lineTotal }

// Size is the weight and volume of the whole line.
func (li LineItem) Size() kernel.Payload {
	return kernel.MustNewPayload(li.unitWeightKg, li.unitVolumeL).Scale(li.quantity)
}
