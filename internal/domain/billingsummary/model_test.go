package billingsummary

import (
	"testing"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNew_ZeroesTotalsAndMaps(t *testing.T) {
	got := New("tenant-1", 2026, 1)

	assert.Equal(t, "tenant-1", got.TenantID)
	assert.Equal(t, 2026, got.BillingYear)
	assert.Equal(t, 1, got.BillingMonth)
	assert.True(t, got.TotalCost.IsZero())
	assert.Empty(t, got.CostByService)
	assert.Empty(t, got.CostByUser)
	assert.False(t, got.IsFinalized)
	assert.Nil(t, got.FinalizedAt)
	assert.Equal(t, types.StatusActive, got.Status)
}

func TestFinalize_SetsFlagAndTimestamp(t *testing.T) {
	got := New("tenant-1", 2026, 1)
	assert.Nil(t, got.FinalizedAt)

	got.Finalize()

	assert.True(t, got.IsFinalized)
	assert.NotNil(t, got.FinalizedAt)
}
