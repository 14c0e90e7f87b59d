package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_PopulatesEnvelope(t *testing.T) {
	e, err := NewEvent("compmarket.product.created", "prod-1", "product", "catalog", map[string]string{"name": "Laptop"})

	require.NoError(t, err)
	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, "compmarket.product.created", e.EventType)
	assert.Equal(t, "prod-1", e.AggregateID)
	assert.Equal(t, "product", e.AggregateType)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "catalog", e.Source)
	assert.False(t, e.Timestamp.IsZero())

	var data map[string]string
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, "Laptop", data["name"])
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	e, err := NewEvent("compmarket.product.deleted", "prod-2", "product", "catalog", map[string]string{"id": "prod-2"})
	require.NoError(t, err)

	raw, err := e.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, decoded.EventID)
	assert.Equal(t, e.EventType, decoded.EventType)
	assert.Equal(t, e.AggregateID, decoded.AggregateID)
}

func TestUnmarshalEvent_InvalidJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "compmarket.product.updated", Topic("product", "updated"))
}
