package tenant

import (
	"encoding/json"
	"testing"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsRateLimitAndActiveStatus(t *testing.T) {
	got := New("acme")

	assert.Equal(t, "acme", got.Name)
	assert.Equal(t, 600, got.RateLimit.RequestsPerMinute)
	assert.Equal(t, 60, got.RateLimit.Burst)
	assert.Equal(t, types.StatusActive, got.Status)
	assert.NotEmpty(t, got.ID)
	assert.Empty(t, got.Settings)
}

func TestRateLimit_ValueThenScanRoundTrips(t *testing.T) {
	rl := RateLimit{RequestsPerMinute: 1200, Burst: 100}

	raw, err := rl.Value()
	require.NoError(t, err)
	bytes, ok := raw.([]byte)
	require.True(t, ok)

	var got RateLimit
	require.NoError(t, got.Scan(bytes))
	assert.Equal(t, rl, got)
}

func TestScanJSON_NilValueLeavesDestUnchanged(t *testing.T) {
	got := RateLimit{RequestsPerMinute: 1, Burst: 1}
	require.NoError(t, got.Scan(nil))
	assert.Equal(t, RateLimit{RequestsPerMinute: 1, Burst: 1}, got)
}

func TestScanJSON_RejectsNonByteValue(t *testing.T) {
	var got RateLimit
	err := got.Scan(42)
	require.Error(t, err)
}

func TestBillingContact_ValueOmitsEmptyFields(t *testing.T) {
	bc := BillingContact{}
	raw, err := bc.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(mustBytes(t, raw)))
}

func mustBytes(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, ok := v.([]byte)
	require.True(t, ok)
	var roundTrip map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &roundTrip))
	return b
}
