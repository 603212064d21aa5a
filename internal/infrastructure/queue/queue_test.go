package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTripsEnvelope(t *testing.T) {
	payload, err := json.Marshal(map[string]string{"cardName": "Dark Magician"})
	require.NoError(t, err)

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	env := Envelope{Type: TypeCardCreated, Payload: payload, Timestamp: at.UnixMilli()}
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, ok, err := decode(string(raw))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TypeCardCreated, decoded.Type)
	assert.Equal(t, at.UnixMilli(), decoded.Timestamp)
	assert.JSONEq(t, string(payload), string(decoded.Payload))
}

func TestDecodeRejectsMalformedEnvelope(t *testing.T) {
	_, ok, err := decode("not json")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestKeyForAppliesNamespacePrefix(t *testing.T) {
	assert.Equal(t, "yugioh:queue:card-operations", keyFor(QueueCardOperations))
}
