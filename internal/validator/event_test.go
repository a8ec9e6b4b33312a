package validator

import (
	"testing"
	"time"

	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEvent_LLMValid(t *testing.T) {
	raw := RawEvent{
		UserID:          "user-1",
		ServiceType:     string(types.ServiceTypeLLM),
		ServiceProvider: "openai",
		EventType:       "completion",
		Metadata:        types.JSONMap{"model": "gpt-4"},
		Metrics:         types.JSONMap{"input_tokens": float64(100), "output_tokens": float64(50)},
	}

	normalized, err := ValidateEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, types.ServiceTypeLLM, normalized.ServiceType)
	assert.Equal(t, float64(150), normalized.Metrics["total_tokens"])
}

func TestValidateEvent_LLMMissingRequiredFields(t *testing.T) {
	raw := RawEvent{
		UserID:      "user-1",
		ServiceType: string(types.ServiceTypeLLM),
	}

	_, err := ValidateEvent(raw)
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrValidation))
}

func TestValidateEvent_LLMNegativeInputTokensRejected(t *testing.T) {
	raw := RawEvent{
		UserID:          "user-1",
		ServiceType:     string(types.ServiceTypeLLM),
		ServiceProvider: "openai",
		Metadata:        types.JSONMap{"model": "gpt-4"},
		Metrics:         types.JSONMap{"input_tokens": float64(-1), "output_tokens": float64(10)},
	}

	_, err := ValidateEvent(raw)
	require.Error(t, err)
}

func TestValidateEvent_LLMFractionalInputTokensRejected(t *testing.T) {
	raw := RawEvent{
		UserID:          "user-1",
		ServiceType:     string(types.ServiceTypeLLM),
		ServiceProvider: "openai",
		Metadata:        types.JSONMap{"model": "gpt-4"},
		Metrics:         types.JSONMap{"input_tokens": float64(10.5), "output_tokens": float64(10)},
	}

	_, err := ValidateEvent(raw)
	require.Error(t, err)
}

func TestValidateEvent_DocumentProcessorRequiresPositivePages(t *testing.T) {
	raw := RawEvent{
		UserID:          "user-1",
		ServiceType:     string(types.ServiceTypeDocumentProcessor),
		ServiceProvider: "textract",
		Metadata:        types.JSONMap{"document_type": "invoice", "processing_type": "ocr"},
		Metrics:         types.JSONMap{"pages_processed": float64(0)},
	}

	_, err := ValidateEvent(raw)
	require.Error(t, err)
}

func TestValidateEvent_APIServiceDefaultsRequestCount(t *testing.T) {
	raw := RawEvent{
		UserID:          "user-1",
		ServiceType:     string(types.ServiceTypeAPI),
		ServiceProvider: "internal",
		Metadata:        types.JSONMap{"endpoint": "/v1/things", "method": "get"},
		Metrics:         types.JSONMap{},
	}

	normalized, err := ValidateEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, float64(1), normalized.Metrics["request_count"])
	assert.Equal(t, "GET", normalized.Metadata["method"])
}

func TestValidateEvent_UnknownServiceTypeRejected(t *testing.T) {
	raw := RawEvent{UserID: "user-1", ServiceType: "not_a_real_service"}

	_, err := ValidateEvent(raw)
	require.Error(t, err)
}

func TestValidateEvent_StampsEventIDAndTimestampWhenAbsent(t *testing.T) {
	raw := RawEvent{
		UserID:          "user-1",
		ServiceType:     string(types.ServiceTypeCustom),
		ServiceProvider: "acme",
		EventType:       "ping",
	}

	normalized, err := ValidateEvent(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, normalized.EventID)
	assert.WithinDuration(t, time.Now().UTC(), normalized.Timestamp, 5*time.Second)
}
