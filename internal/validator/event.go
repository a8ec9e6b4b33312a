package validator

import (
	"math"
	"strings"
	"time"

	"github.com/flexprice/flexprice/internal/domain/event"
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/types"
)

// RawEvent is the shape an ingest request body is decoded into before
// per-service_type validation (§4.1).
type RawEvent struct {
	EventID         string         `json:"event_id"`
	Timestamp       *time.Time     `json:"timestamp"`
	UserID          string         `json:"user_id"`
	ServiceType     string         `json:"service_type"`
	ServiceProvider string         `json:"service_provider"`
	EventType       string         `json:"event_type"`
	Metrics         types.JSONMap  `json:"metrics"`
	Metadata        types.JSONMap  `json:"metadata"`
	Tags            []string       `json:"tags"`
	SessionID       string         `json:"session_id"`
	RequestID       string         `json:"request_id"`
}

// ValidateEvent is the validator's public contract: Validate(raw) →
// (normalized, error). Pure — no I/O, no clock reads beyond stamping
// a missing timestamp/event_id.
func ValidateEvent(raw RawEvent) (*event.NormalizedEvent, error) {
	fieldErrors := map[string]any{}

	serviceType := types.ServiceType(raw.ServiceType)
	if err := serviceType.Validate(); err != nil {
		fieldErrors["service_type"] = "must be one of: llm_service, document_processor, api_service, custom"
	}
	if raw.UserID == "" {
		fieldErrors["user_id"] = "required"
	}

	if raw.Metrics == nil {
		raw.Metrics = types.JSONMap{}
	}
	if raw.Metadata == nil {
		raw.Metadata = types.JSONMap{}
	}

	switch serviceType {
	case types.ServiceTypeLLM:
		validateLLM(raw, fieldErrors)
	case types.ServiceTypeDocumentProcessor:
		validateDocumentProcessor(raw, fieldErrors)
	case types.ServiceTypeAPI:
		validateAPIService(raw, fieldErrors)
	case types.ServiceTypeCustom:
		validateCustom(raw, fieldErrors)
	}

	if len(fieldErrors) > 0 {
		return nil, ierr.NewError("event validation failed").
			WithHint("one or more fields failed validation").
			WithReportableDetails(map[string]any{"field_errors": fieldErrors}).
			Mark(ierr.ErrValidation)
	}

	eventID := raw.EventID
	if eventID == "" {
		eventID = types.GenerateUUID()
	}
	timestamp := time.Now().UTC()
	if raw.Timestamp != nil {
		timestamp = *raw.Timestamp
	}

	return &event.NormalizedEvent{
		EventID:         eventID,
		Timestamp:       timestamp,
		UserID:          raw.UserID,
		ServiceType:     serviceType,
		ServiceProvider: raw.ServiceProvider,
		EventType:       raw.EventType,
		Metrics:         raw.Metrics,
		Metadata:        raw.Metadata,
		Tags:            types.StringSet(raw.Tags),
		SessionID:       raw.SessionID,
		RequestID:       raw.RequestID,
	}, nil
}

// validateLLM enforces §4.1's llm_service rules: required user_id
// (checked above), model, input_tokens, output_tokens (>= 0 per the
// resolved Open Question), temperature in [0,2] if present, and
// derives total_tokens when absent.
func validateLLM(raw RawEvent, fieldErrors map[string]any) {
	if asString(raw.Metadata["model"]) == "" {
		fieldErrors["model"] = "required"
	}

	inputTokens, hasInput := asNumber(raw.Metrics["input_tokens"])
	if !hasInput {
		fieldErrors["input_tokens"] = "required"
	} else if inputTokens < 0 {
		fieldErrors["input_tokens"] = "must be >= 0"
	} else if !isWholeNumber(inputTokens) {
		fieldErrors["input_tokens"] = "must be an integer"
	}

	outputTokens, hasOutput := asNumber(raw.Metrics["output_tokens"])
	if !hasOutput {
		fieldErrors["output_tokens"] = "required"
	} else if outputTokens < 0 {
		fieldErrors["output_tokens"] = "must be >= 0"
	} else if !isWholeNumber(outputTokens) {
		fieldErrors["output_tokens"] = "must be an integer"
	}

	if temp, ok := asNumber(raw.Metrics["temperature"]); ok && (temp < 0 || temp > 2) {
		fieldErrors["temperature"] = "must be between 0 and 2"
	}

	if hasInput && hasOutput {
		if _, ok := raw.Metrics["total_tokens"]; !ok {
			raw.Metrics["total_tokens"] = inputTokens + outputTokens
		}
	}
}

// validateDocumentProcessor enforces document_processor's rules:
// service_provider, document_type, processing_type, pages_processed >= 1.
func validateDocumentProcessor(raw RawEvent, fieldErrors map[string]any) {
	if raw.ServiceProvider == "" {
		fieldErrors["service_provider"] = "required"
	}
	if asString(raw.Metadata["document_type"]) == "" {
		fieldErrors["document_type"] = "required"
	}
	if asString(raw.Metadata["processing_type"]) == "" {
		fieldErrors["processing_type"] = "required"
	}
	pages, ok := asNumber(raw.Metrics["pages_processed"])
	if !ok || pages < 1 {
		fieldErrors["pages_processed"] = "required, must be >= 1"
	}
}

// validateAPIService enforces api_service's rules: service_provider,
// endpoint, method upper-cased, status_code in [100,599] if present,
// request_count >= 1 (default 1).
func validateAPIService(raw RawEvent, fieldErrors map[string]any) {
	if raw.ServiceProvider == "" {
		fieldErrors["service_provider"] = "required"
	}
	if asString(raw.Metadata["endpoint"]) == "" {
		fieldErrors["endpoint"] = "required"
	}
	if method := asString(raw.Metadata["method"]); method != "" {
		raw.Metadata["method"] = strings.ToUpper(method)
	}
	if code, ok := asNumber(raw.Metrics["status_code"]); ok && (code < 100 || code > 599) {
		fieldErrors["status_code"] = "must be between 100 and 599"
	}
	if count, ok := asNumber(raw.Metrics["request_count"]); ok {
		if count < 1 {
			fieldErrors["request_count"] = "must be >= 1"
		}
	} else {
		raw.Metrics["request_count"] = float64(1)
	}
}

// validateCustom passes metrics/metadata through once the common
// required fields (user_id, service_type, service_provider, event_type)
// are present.
func validateCustom(raw RawEvent, fieldErrors map[string]any) {
	if raw.ServiceProvider == "" {
		fieldErrors["service_provider"] = "required"
	}
	if raw.EventType == "" {
		fieldErrors["event_type"] = "required"
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func isWholeNumber(v float64) bool {
	return v == math.Trunc(v)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
