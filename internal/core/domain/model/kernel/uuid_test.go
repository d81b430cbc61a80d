package kernel_test

import (
	"testing"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID(t *testing.T) {
	t.Run("new ids are valid and distinct", func(t *testing.T) {
		a := kernel.NewUUID()
		b := kernel.NewUUID()

		require.NoError(t, a.Validate())
		assert.False(t, a.IsEqual(b))
	})

	t.Run("string round trip", func(t *testing.T) {
		id := kernel.NewUUID()

		parsed, err := kernel.UUIDFromString(id.String())

		require.NoError(t, err)
		assert.True(t, id.IsEqual(parsed))
	})

	t.Run("malformed string", func(t *testing.T) {
		_, err := kernel.UUIDFromString("robot-1")

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("nil uuid is rejected", func(t *testing.T) {
		_, err := kernel.UUIDFromString("00000000-0000-0000-0000-000000000000")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var id kernel.UUID

		require.ErrorIs(t, id.Validate(), kernel.ErrUUIDIsNotConstructed)
	})

	t.Run("compare orders bytewise", func(t *testing.T) {
		low := kernel.MustUUIDFromString("00000000-0000-0000-0000-000000000001")
		high := kernel.MustUUIDFromString("00000000-0000-0000-0000-000000000002")

		assert.Negative(t, low.Compare(high))
		assert.Positive(t, high.Compare(low))
		assert.Zero(t, low.Compare(low))
	})
}
