package registry

import (
	"testing"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsToActiveVersionOne(t *testing.T) {
	got := New(types.ServiceTypeLLM)

	assert.Equal(t, types.ServiceTypeLLM, got.ServiceType)
	assert.True(t, got.IsActive)
	assert.Equal(t, 1, got.Version)
	assert.NotEmpty(t, got.ID)
}
