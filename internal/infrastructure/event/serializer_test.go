package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_RegisterCheckoutEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterCheckoutEvents(serializer)

	assert.Equal(t, []string{"order.placed", "order_set.placed"}, serializer.RegisteredTypes())
	assert.False(t, serializer.IsRegistered("UnknownEvent"))
}

func TestEventSerializer_OrderPlacedRoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterCheckoutEvents(serializer)

	o, err := order.NewOrder(order.Header{CurrencyCode: valueobject.USD})
	require.NoError(t, err)
	o.Total = decimal.RequireFromString("99.50")
	original := order.NewOrderPlacedEvent(o, uuid.New(), uuid.New())

	data, err := serializer.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"order.placed"`)

	restored, err := serializer.Deserialize(order.EventTypeOrderPlaced, data)
	require.NoError(t, err)

	event, ok := restored.(*order.OrderPlacedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), event.EventID())
	assert.Equal(t, original.AggregateID(), event.AggregateID())
	assert.Equal(t, original.OrderSetID, event.OrderSetID)
	assert.Equal(t, original.SellerID, event.SellerID)
	assert.Equal(t, valueobject.USD, event.CurrencyCode)
	assert.True(t, original.Total.Equal(event.Total))
}

func TestEventSerializer_Deserialize_Errors(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterCheckoutEvents(serializer)

	_, err := serializer.Deserialize("UnknownEvent", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, err = serializer.Deserialize(order.EventTypeOrderSetPlaced, []byte(`invalid json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal order_set.placed")

	_, err = serializer.Deserialize(order.EventTypeOrderSetPlaced, []byte(`{"type":"order.placed"}`))
	assert.ErrorIs(t, err, ErrEventTypeMismatch)
}

func TestEventSerializer_SchemaVersion(t *testing.T) {
	serializer := NewEventSerializer()
	Register[testEvent](serializer, "order.placed", 2)

	for version, wantErr := range map[int]bool{0: false, 1: false, 2: false, 3: true} {
		evt := newTestEvent("order.placed")
		evt.Schema = version
		data, err := serializer.Serialize(evt)
		require.NoError(t, err)

		restored, err := serializer.Deserialize("order.placed", data)
		if wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedSchema, "version %d", version)
			continue
		}
		require.NoError(t, err, "version %d", version)
		assert.Equal(t, "test data", restored.(*testEvent).Data)
	}
}
