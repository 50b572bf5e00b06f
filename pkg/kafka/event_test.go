package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("catalog.product.created", "p1", "product", "catalogsync", testPayload{ID: "p1", Title: "Red Hoodie"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "catalog.product.created", ev.EventType)
	assert.Equal(t, "p1", ev.AggregateID)
	assert.Equal(t, 1, ev.Version)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	ev, err := NewEvent("catalog.product.deleted", "p2", "product", "catalogsync", testPayload{ID: "p2"})
	require.NoError(t, err)
	ev.WithCorrelationID("corr-1")

	raw, err := ev.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, "corr-1", decoded.CorrelationID)

	var payload testPayload
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, "p2", payload.ID)
}
