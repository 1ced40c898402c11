package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_ValueScan(t *testing.T) {
	addr := Address{Address1: "1 Market St", City: "Springfield", PostalCode: "12345", CountryCode: "us"}

	v, err := addr.Value()
	require.NoError(t, err)

	var out Address
	require.NoError(t, out.Scan(v))
	assert.Equal(t, addr, out)
	assert.Equal(t, "1 Market St, Springfield, 12345, US", out.String())

	t.Run("empty address stores null", func(t *testing.T) {
		v, err := Address{}.Value()
		require.NoError(t, err)
		assert.Nil(t, v)

		var a Address
		require.NoError(t, a.Scan(nil))
		assert.True(t, a.IsEmpty())
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		var a Address
		assert.Error(t, a.Scan(42))
	})
}
