// Package processor implements the event processor loop (§4.5):
// blocking-pop a batch off usage_events, validate/enrich/price each
// event, upsert successes as one logical unit, and split failures
// between retry and dead_letter_events. Grounded on
// original_source/services/event_processor/main.py's EventProcessor
// for the algorithm, and on the teacher's cmd/server.go
// startConsumer/consumeMessages fx.Lifecycle shape for Go wiring.
package processor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/domain/billingrule"
	"github.com/flexprice/flexprice/internal/domain/event"
	"github.com/flexprice/flexprice/internal/domain/registry"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/pricing"
	"github.com/flexprice/flexprice/internal/queue"
	"github.com/flexprice/flexprice/internal/types"
)

const maxRetries = 3

// Processor is one logical consumer; queue semantics handle
// distribution across N replicas (§4.5).
type Processor struct {
	queue     queue.Queue
	events    event.Repository
	rules     billingrule.Repository
	registry  registry.Repository
	log       *logger.Logger
	batchSize int
	popTimeout time.Duration
}

func New(q queue.Queue, events event.Repository, rules billingrule.Repository, reg registry.Repository, cfg *config.Configuration, log *logger.Logger) *Processor {
	return &Processor{
		queue:      q,
		events:     events,
		rules:      rules,
		registry:   reg,
		log:        log,
		batchSize:  cfg.Batch.Size,
		popTimeout: time.Duration(cfg.Batch.TimeoutSeconds) * time.Second,
	}
}

// Run blocks until ctx is cancelled, finishing the current batch
// before returning (§5's "loop finishes current batch and exits").
func (p *Processor) Run(ctx context.Context) {
	p.log.Info("event processor started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info("event processor stopping")
			return
		default:
		}

		payloads, err := p.getBatch(ctx)
		if err != nil {
			p.log.Errorw("failed to get event batch", "error", err.Error())
			sleepOrDone(ctx, 5*time.Second)
			continue
		}
		if len(payloads) == 0 {
			continue
		}

		p.processBatch(ctx, payloads)
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// getBatch blocks up to popTimeout for one message, then drains up to
// batchSize-1 more non-blocking (§4.3's drain behavior).
func (p *Processor) getBatch(ctx context.Context) ([][]byte, error) {
	_, first, ok, err := p.queue.PopBlocking(ctx, []string{queue.UsageEventsQueue}, p.popTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	payloads := [][]byte{first}
	for i := 0; i < p.batchSize-1; i++ {
		next, ok, err := p.queue.PopNoWait(ctx, queue.UsageEventsQueue)
		if err != nil || !ok {
			break
		}
		payloads = append(payloads, next)
	}
	p.log.Infow("retrieved event batch", "batch_size", len(payloads))
	return payloads, nil
}

func (p *Processor) processBatch(ctx context.Context, payloads [][]byte) {
	var successes []*event.UsageEvent
	var failed []*event.UsageEvent

	for _, raw := range payloads {
		var e event.UsageEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			p.log.Errorw("failed to deserialize event, dropping", "error", err.Error())
			continue
		}

		if err := requireFields(&e); err != nil {
			e.Status = types.EventStatusFailed
			e.ErrorMessage = err.Error()
			e.RetryCount++
			failed = append(failed, &e)
			continue
		}

		p.enrich(ctx, &e)
		p.price(ctx, &e)
		e.Status = types.EventStatusCompleted
		e.ErrorMessage = ""
		e.UpdatedAt = time.Now().UTC()
		successes = append(successes, &e)
	}

	if len(successes) > 0 {
		if err := p.events.BulkInsert(ctx, successes); err != nil {
			p.log.Errorw("failed to store event batch, re-enqueueing whole batch", "error", err.Error(), "count", len(payloads))
			p.requeueAll(ctx, payloads)
			return
		}
	}

	if len(failed) > 0 {
		p.handleFailed(ctx, failed)
	}

	p.log.Infow("processed event batch", "successful", len(successes), "failed", len(failed))
}

func requireFields(e *event.UsageEvent) error {
	if e.EventID == "" {
		return errMissingField("event_id")
	}
	if e.TenantID == "" {
		return errMissingField("tenant_id")
	}
	if e.UserID == "" {
		return errMissingField("user_id")
	}
	if e.ServiceType == "" {
		return errMissingField("service_type")
	}
	if e.ServiceProvider == "" {
		return errMissingField("service_provider")
	}
	if e.EventType == "" {
		return errMissingField("event_type")
	}
	return nil
}

type missingFieldError string

func (m missingFieldError) Error() string { return "missing required field: " + string(m) }

func errMissingField(field string) error { return missingFieldError(field) }

// requeueAll re-pushes the batch's raw payloads to the tail of
// usage_events, preserving event_id so eventual upsert stays
// idempotent (§7's propagation policy).
func (p *Processor) requeueAll(ctx context.Context, payloads [][]byte) {
	if err := p.queue.Pipeline(ctx, queue.UsageEventsQueue, payloads); err != nil {
		p.log.Errorw("failed to requeue batch after store failure", "error", err.Error())
	}
}

// handleFailed splits failed events by retry_count: below the budget
// they go back to usage_events; at the budget they terminate in
// dead_letter_events with status=dead_letter (§4.5's state machine).
func (p *Processor) handleFailed(ctx context.Context, failed []*event.UsageEvent) {
	var retry, deadLetter [][]byte

	for _, e := range failed {
		if e.RetryCount < maxRetries {
			payload, err := json.Marshal(e)
			if err != nil {
				p.log.Errorw("failed to marshal event for retry", "error", err.Error(), "event_id", e.EventID)
				continue
			}
			retry = append(retry, payload)
			continue
		}

		e.Status = types.EventStatusDeadLetter
		if e.Metadata == nil {
			e.Metadata = types.JSONMap{}
		}
		e.Metadata["dead_letter_at"] = time.Now().UTC().Format(time.RFC3339)
		payload, err := json.Marshal(e)
		if err != nil {
			p.log.Errorw("failed to marshal event for dead-letter", "error", err.Error(), "event_id", e.EventID)
			continue
		}
		deadLetter = append(deadLetter, payload)
	}

	if len(retry) > 0 {
		if err := p.queue.Pipeline(ctx, queue.UsageEventsQueue, retry); err != nil {
			p.log.Errorw("failed to requeue failed events", "error", err.Error(), "count", len(retry))
		}
	}
	if len(deadLetter) > 0 {
		if err := p.queue.Pipeline(ctx, queue.DeadLetterEventsQueue, deadLetter); err != nil {
			p.log.Errorw("failed to push events to dead letter queue", "error", err.Error(), "count", len(deadLetter))
		} else {
			p.log.Warnw("sent events to dead letter queue", "count", len(deadLetter))
		}
	}
}

// enrich stamps processed_at, derives total_tokens and
// session_duration_ms, and applies any registry-declared enrichment
// rules (§4.5's Enrichment section).
func (p *Processor) enrich(ctx context.Context, e *event.UsageEvent) {
	if e.Metadata == nil {
		e.Metadata = types.JSONMap{}
	}
	e.Metadata["processed_at"] = time.Now().UTC().Format(time.RFC3339)

	if e.ServiceType == types.ServiceTypeLLM {
		input, hasInput := numericMetric(e.Metrics, "input_tokens")
		output, hasOutput := numericMetric(e.Metrics, "output_tokens")
		if hasInput && hasOutput {
			e.Metrics["total_tokens"] = input + output
		}
	}

	if startRaw, ok := e.Metrics["session_start"]; ok {
		if endRaw, ok := e.Metrics["session_end"]; ok {
			start, errStart := time.Parse(time.RFC3339, asStr(startRaw))
			end, errEnd := time.Parse(time.RFC3339, asStr(endRaw))
			if errStart == nil && errEnd == nil {
				e.Metrics["session_duration_ms"] = end.Sub(start).Milliseconds()
			}
		}
	}

	cfg, err := p.registry.Get(ctx, e.ServiceType)
	if err != nil || cfg == nil {
		return
	}
	enrichment, _ := cfg.AggregationRules["enrichment"].(map[string]any)
	for field, ruleRaw := range enrichment {
		rule, ok := ruleRaw.(map[string]any)
		if !ok {
			continue
		}
		calc, _ := rule["calculate"].(string)
		if value, ok := applyCalculationRule(e, calc); ok {
			e.Metadata[field] = value
		}
	}
}

// applyCalculationRule implements the two derivations the original
// supports: total_tokens and cost_per_token.
func applyCalculationRule(e *event.UsageEvent, calc string) (any, bool) {
	switch calc {
	case "total_tokens":
		input, _ := numericMetric(e.Metrics, "input_tokens")
		output, _ := numericMetric(e.Metrics, "output_tokens")
		return input + output, true
	case "cost_per_token":
		totalTokens, ok := numericMetric(e.Metrics, "total_tokens")
		if !ok || totalTokens == 0 {
			return 0, true
		}
		totalCost, _ := e.TotalCost.Float64()
		return totalCost / totalTokens, true
	default:
		return nil, false
	}
}

func numericMetric(m types.JSONMap, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asStr(v any) string {
	s, _ := v.(string)
	return s
}

// price selects the most specific applicable billing rule and prices
// the event against it (§4.2).
func (p *Processor) price(ctx context.Context, e *event.UsageEvent) {
	var modelOrTier *string
	if model, ok := e.Metadata["model"].(string); ok && model != "" {
		modelOrTier = &model
	}

	candidates, err := p.rules.FindApplicable(ctx, e.TenantID, e.ServiceType, e.ServiceProvider, modelOrTier, e.Timestamp)
	if err != nil {
		p.log.Errorw("failed to look up billing rules", "error", err.Error(), "event_id", e.EventID)
		candidates = nil
	}

	rule := pricing.SelectRule(candidates)
	result := pricing.Calculate(e.ServiceType, e.Metrics, rule)

	e.TotalCost = result.TotalCost
	e.BillingInfo = types.JSONMap{
		"total_cost":         result.TotalCost,
		"base_cost":          result.BaseCost,
		"billing_unit":       string(result.BillingUnit),
		"unit_count":         result.UnitCount,
		"rate_per_unit":      result.RatePerUnit,
		"calculation_method": string(result.CalculationMethod),
	}
}
