package commands

import (
	"errors"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrCreateOrderCommandIsNotConstructed is returned when the command did not come from NewCreateOrderCommand.
var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand places a new order for the calling customer.
// Items and addresses are catalog snapshots taken by the caller.
//
// Example:
//
//	burger, _ := order.NewLineItem("burger", 1299, 1, 0.4, 1.5)
//	cmd, err := NewCreateOrderCommand(principal, kernel.NewUUID(), "vendor-7",
//	    []order.LineItem{burger}, vendorAddress, deliveryAddress)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	principal       kernel.Principal
	orderID         kernel.UUID
	vendorID        string
	items           []order.LineItem
	vendorAddress   kernel.Address
	deliveryAddress kernel.Address

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates and captures an order placement.
// Every validation failure is returned joined into one error.
//
// Parameters:
//   - principal: the customer placing the order
//   - orderID: client-chosen identifier, lets retries stay idempotent
//   - vendorID: vendor that prepares the order, required
//   - items: at least one line item
//   - vendorAddress: pickup point
//   - deliveryAddress: drop-off point
func NewCreateOrderCommand(
	principal kernel.Principal,
	orderID kernel.UUID,
	vendorID string,
	items []order.LineItem,
	vendorAddress kernel.Address,
	deliveryAddress kernel.Address,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		principal: principal,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setVendorID(vendorID),
		cmd.setItems(items),
		cmd.setAddresses(vendorAddress, deliveryAddress),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// Principal returns the customer placing the order.
func (c CreateOrderCommand) Principal() kernel.Principal {
	return c.principal
}

// OrderID returns the identifier the order will be stored under.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// VendorID returns the vendor that prepares the order.
func (c CreateOrderCommand) VendorID() string {
	return c.vendorID
}

// Items returns a copy of the line items.
func (c CreateOrderCommand) Items() []order.LineItem {
	return append([]order.LineItem(nil), c.items...)
}

// VendorAddress returns the pickup address.
func (c CreateOrderCommand) VendorAddress() kernel.Address {
	return c.vendorAddress
}

// DeliveryAddress returns the drop-off address.
func (c CreateOrderCommand) DeliveryAddress() kernel.Address {
	return c.deliveryAddress
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setVendorID(vendorID string) error {
	if strings.TrimSpace(vendorID) == "" {
		return errs.NewValueIsRequiredError("vendorID")
	}

	c.vendorID = vendorID
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.LineItem) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	c.items = append([]order.LineItem(nil), items...)
	return nil
}

func (c *CreateOrderCommand) setAddresses(vendorAddress, deliveryAddress kernel.Address) error {
	if err := errors.Join(vendorAddress.Validate(), deliveryAddress.Validate()); err != nil {
		return err
	}

	c.vendorAddress = vendorAddress
	c.deliveryAddress = deliveryAddress
	return nil
}
