package types

import (
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/samber/lo"
)

// ServiceType is the taxonomy of usage services the pipeline understands.
type ServiceType string

const (
	ServiceTypeLLM              ServiceType = "llm_service"
	ServiceTypeDocumentProcessor ServiceType = "document_processor"
	ServiceTypeAPI              ServiceType = "api_service"
	ServiceTypeCustom           ServiceType = "custom"
)

var validServiceTypes = []ServiceType{ServiceTypeLLM, ServiceTypeDocumentProcessor, ServiceTypeAPI, ServiceTypeCustom}

func (s ServiceType) Validate() error {
	if lo.Contains(validServiceTypes, s) {
		return nil
	}
	return ierr.NewError("invalid service_type").
		WithHint("service_type must be one of: llm_service, document_processor, api_service, custom").
		Mark(ierr.ErrValidation)
}

func (s ServiceType) String() string { return string(s) }

// EventStatus is the processing state machine for a UsageEvent.
type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusProcessing EventStatus = "processing"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusFailed     EventStatus = "failed"
	EventStatusRetrying   EventStatus = "retrying"
	EventStatusDeadLetter EventStatus = "dead_letter"
)

// BillingUnit is the dimension along which cost accrues for a BillingRule.
type BillingUnit string

const (
	BillingUnitTokens   BillingUnit = "tokens"
	BillingUnitRequests BillingUnit = "requests"
	BillingUnitPages    BillingUnit = "pages"
	BillingUnitBytes    BillingUnit = "bytes"
	BillingUnitMinutes  BillingUnit = "minutes"
	BillingUnitCustom   BillingUnit = "custom"
	BillingUnitUnknown  BillingUnit = "unknown"
)

// CalculationMethod is how a BillingRule turns a unit count into a cost.
type CalculationMethod string

const (
	CalculationMethodMultiply CalculationMethod = "multiply"
	CalculationMethodSum      CalculationMethod = "sum"
	CalculationMethodCustom   CalculationMethod = "custom"
)

// PeriodType is the granularity of a UsageAggregate rollup.
type PeriodType string

const (
	PeriodHour  PeriodType = "hour"
	PeriodDay   PeriodType = "day"
	PeriodWeek  PeriodType = "week"
	PeriodMonth PeriodType = "month"
)

var validPeriodTypes = []PeriodType{PeriodHour, PeriodDay, PeriodWeek, PeriodMonth}

func (p PeriodType) Validate() error {
	if lo.Contains(validPeriodTypes, p) {
		return nil
	}
	return ierr.NewError("invalid period").
		WithHint("period must be one of: hour, day, week, month").
		Mark(ierr.ErrValidation)
}
