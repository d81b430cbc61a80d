package otp_test

import (
	"testing"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewCode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c, err := otp.NewCode(kernel.NewUUID(), "order-1", otp.PurposeDeliveryConfirmation,
			[]byte("hash"), now.Add(30*time.Minute), now)

		require.NoError(t, err)
		assert.False(t, c.IsUsed())
		assert.Equal(t, []byte("hash"), c.Hash())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := otp.NewCode(kernel.NewUUID(), "", otp.Purpose("login"), nil, now, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestCode_IsActive(t *testing.T) {
	expires := now.Add(30 * time.Minute)
	c, err := otp.NewCode(kernel.NewUUID(), "order-1", otp.PurposeDeliveryConfirmation, []byte("h"), expires, now)
	require.NoError(t, err)

	assert.True(t, c.IsActive(now))
	assert.True(t, c.IsActive(expires.Add(-time.Nanosecond)))
	assert.False(t, c.IsActive(expires), "dead at the expiry instant")

	require.NoError(t, c.MarkUsed())
	assert.False(t, c.IsActive(now))
	require.ErrorIs(t, c.MarkUsed(), errs.ErrConflict)
}

func TestRestoreCode_AcceptsExpired(t *testing.T) {
	c, err := otp.RestoreCode(kernel.NewUUID(), "order-1", otp.PurposeDeliveryConfirmation,
		[]byte("h"), now.Add(-time.Hour), true, now.Add(-2*time.Hour))

	require.NoError(t, err)
	assert.True(t, c.IsUsed())
	assert.False(t, c.IsActive(now))
}
