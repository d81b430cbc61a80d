package notification_test

import (
	"encoding/json"
	"testing"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewNotification(t *testing.T) {
	t.Run("type follows payload", func(t *testing.T) {
		n, err := notification.NewNotification(kernel.NewUUID(), "cust-1", "Order approved", "",
			notification.OrderUpdate{OrderID: "o1", PreviousStatus: "pending", Status: "vendor_approved"}, now)

		require.NoError(t, err)
		assert.Equal(t, notification.TypeOrderUpdate, n.Type())
		assert.False(t, n.IsRead())
		assert.Nil(t, n.PublishedAt())
	})

	t.Run("requires recipient title and payload", func(t *testing.T) {
		_, err := notification.NewNotification(kernel.NewUUID(), "", "", "", nil, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "recipientID")
		assert.Contains(t, err.Error(), "title")
		assert.Contains(t, err.Error(), "payload")
	})
}

func TestNotification_PublishBookkeeping(t *testing.T) {
	n, err := notification.NewNotification(kernel.NewUUID(), "vend-1", "New order", "",
		notification.VendorOrder{OrderID: "o1", CustomerID: "c1", Status: "pending", TotalAmountCents: 2198, ItemCount: 2}, now)
	require.NoError(t, err)

	n.RecordPublishFailure()
	assert.Equal(t, 1, n.PublishAttempts())
	assert.Nil(t, n.PublishedAt())

	n.MarkPublished(now)
	assert.Equal(t, 2, n.PublishAttempts())
	require.NotNil(t, n.PublishedAt())

	n.MarkRead()
	assert.True(t, n.IsRead())
}

func TestPayload_DecodeReturnsConcreteVariant(t *testing.T) {
	eta := int64(420)
	raw, err := notification.EncodePayload(notification.DeliveryUpdate{
		OrderID: "o1", RobotID: "r1", Status: "robot_assigned", ETASeconds: &eta,
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"delivery_update","data":{"order_id":"o1","robot_id":"r1","status":"robot_assigned","eta_seconds":420}}`,
		string(raw))

	decoded, err := notification.DecodePayload(raw)
	require.NoError(t, err)

	update, ok := decoded.(notification.DeliveryUpdate)
	require.True(t, ok)
	require.NotNil(t, update.ETASeconds)
	assert.Equal(t, int64(420), *update.ETASeconds)
}

func TestPayload_DecodeRejectsUnknownType(t *testing.T) {
	_, err := notification.DecodePayload([]byte(`{"type":"chat","data":{}}`))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	_, err = notification.DecodePayload([]byte(`not json`))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNotification_EnvelopeJSON(t *testing.T) {
	n, err := notification.NewNotification(kernel.NewUUID(), "cust-1", "Delivered", "Enjoy",
		notification.System{Code: "delivered", Message: "Enjoy"}, now)
	require.NoError(t, err)

	raw, err := json.Marshal(n.Envelope())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "system", decoded["type"])
	assert.Equal(t, "cust-1", decoded["recipient_id"])
	assert.Equal(t, "delivered", decoded["data"].(map[string]any)["code"])
}
