// Package aggregator implements the aggregation engine (§4.6): on a
// fixed interval it replays a set of lookback windows per period type,
// tiles each into period-sized buckets, rolls completed events up into
// UsageAggregates along the overall/service_type/service_provider/
// top-user dimensions, and regenerates the current and previous
// month's BillingSummary. Grounded on
// original_source/services/aggregation_service/main.py's
// AggregationService, and on the teacher's cmd/server.go
// fx.Lifecycle ticker-loop shape for Go wiring.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/domain/aggregate"
	"github.com/flexprice/flexprice/internal/domain/billingsummary"
	"github.com/flexprice/flexprice/internal/domain/event"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
)

const topUserLimit = 100
const topBillingUserLimit = 50

// window is one fixed replay range for a period type (§4.6): how far
// back to look, tiled into PeriodType-sized buckets.
type window struct {
	periodType types.PeriodType
	lookback   time.Duration
}

var windows = []window{
	{types.PeriodHour, 25 * time.Hour},
	{types.PeriodDay, 8 * 24 * time.Hour},
	{types.PeriodWeek, 5 * 7 * 24 * time.Hour},
	{types.PeriodMonth, 13 * 30 * 24 * time.Hour}, // bucketing re-aligns to real month boundaries
}

type Aggregator struct {
	events     event.Repository
	aggregates aggregate.Repository
	summaries  billingsummary.Repository
	log        *logger.Logger
	interval   time.Duration
}

func New(events event.Repository, aggregates aggregate.Repository, summaries billingsummary.Repository, cfg *config.Configuration, log *logger.Logger) *Aggregator {
	return &Aggregator{
		events:     events,
		aggregates: aggregates,
		summaries:  summaries,
		log:        log,
		interval:   time.Duration(cfg.Aggregation.IntervalSeconds) * time.Second,
	}
}

// Run ticks immediately, then on every interval until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) {
	a.log.Info("aggregation engine started")
	a.runCycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("aggregation engine stopping")
			return
		case <-ticker.C:
			a.runCycle(ctx)
		}
	}
}

func (a *Aggregator) runCycle(ctx context.Context) {
	now := time.Now().UTC()
	for _, w := range windows {
		start := alignToPeriod(now.Add(-w.lookback), w.periodType)
		if err := a.aggregateWindow(ctx, w.periodType, start, now); err != nil {
			a.log.Errorw("aggregation window failed", "period_type", w.periodType, "error", err.Error())
		}
	}
	if err := a.generateBillingSummaries(ctx, now); err != nil {
		a.log.Errorw("billing summary generation failed", "error", err.Error())
	}
}

// aggregateWindow tiles [start, end) into periodType-sized buckets and
// rolls up every tenant with completed events in each bucket.
func (a *Aggregator) aggregateWindow(ctx context.Context, periodType types.PeriodType, start, end time.Time) error {
	for _, bucket := range periodBoundaries(periodType, start, end) {
		tenants, err := a.events.DistinctTenants(ctx, bucket.start, bucket.end)
		if err != nil {
			return fmt.Errorf("list distinct tenants: %w", err)
		}
		for _, tenantID := range tenants {
			if err := a.aggregateTenantPeriod(ctx, tenantID, periodType, bucket.start, bucket.end); err != nil {
				a.log.Errorw("tenant period aggregation failed", "tenant_id", tenantID, "period_type", periodType, "error", err.Error())
			}
		}
	}
	return nil
}

type periodBounds struct{ start, end time.Time }

// periodBoundaries tiles [start, end) into periodType-sized buckets,
// clamping the final bucket to end (§4.6's tiling rule).
func periodBoundaries(periodType types.PeriodType, start, end time.Time) []periodBounds {
	var bounds []periodBounds
	cur := start
	for cur.Before(end) {
		next := nextBoundary(cur, periodType)
		if next.After(end) {
			next = end
		}
		bounds = append(bounds, periodBounds{start: cur, end: next})
		cur = next
	}
	return bounds
}

func alignToPeriod(t time.Time, periodType types.PeriodType) time.Time {
	t = t.UTC()
	switch periodType {
	case types.PeriodHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case types.PeriodDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case types.PeriodWeek:
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		daysSinceMonday := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -daysSinceMonday)
	case types.PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

func nextBoundary(t time.Time, periodType types.PeriodType) time.Time {
	switch periodType {
	case types.PeriodHour:
		return t.Add(time.Hour)
	case types.PeriodDay:
		return t.AddDate(0, 0, 1)
	case types.PeriodWeek:
		return t.AddDate(0, 0, 7)
	case types.PeriodMonth:
		return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// aggregateTenantPeriod builds the overall, per-service_type,
// per-(service_type, service_provider), and top-N-user aggregates for
// one tenant/bucket, the dimensional fan-out §4.6 names.
func (a *Aggregator) aggregateTenantPeriod(ctx context.Context, tenantID string, periodType types.PeriodType, periodStart, periodEnd time.Time) error {
	completed := types.EventStatusCompleted
	events, err := a.events.List(ctx, event.ListFilter{
		TenantID: tenantID,
		From:     periodStart,
		To:       periodEnd,
		Status:   &completed,
	})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	if err := a.upsertAggregate(ctx, tenantID, aggregate.Key{
		TenantID: tenantID, PeriodStart: periodStart, PeriodType: periodType,
	}, periodEnd, events); err != nil {
		return err
	}

	byServiceType := map[string][]*event.UsageEvent{}
	byServiceProvider := map[[2]string][]*event.UsageEvent{}
	byUser := map[string][]*event.UsageEvent{}
	for _, e := range events {
		st := string(e.ServiceType)
		byServiceType[st] = append(byServiceType[st], e)
		byServiceProvider[[2]string{st, e.ServiceProvider}] = append(byServiceProvider[[2]string{st, e.ServiceProvider}], e)
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	for st, subset := range byServiceType {
		st := st
		if err := a.upsertAggregate(ctx, tenantID, aggregate.Key{
			TenantID: tenantID, PeriodStart: periodStart, PeriodType: periodType, ServiceType: &st,
		}, periodEnd, subset); err != nil {
			return err
		}
	}

	for key, subset := range byServiceProvider {
		st, provider := key[0], key[1]
		if err := a.upsertAggregate(ctx, tenantID, aggregate.Key{
			TenantID: tenantID, PeriodStart: periodStart, PeriodType: periodType,
			ServiceType: &st, ServiceProvider: &provider,
		}, periodEnd, subset); err != nil {
			return err
		}
	}

	for _, userID := range topUsersByEventCount(byUser, topUserLimit) {
		userID := userID
		if err := a.upsertAggregate(ctx, tenantID, aggregate.Key{
			TenantID: tenantID, PeriodStart: periodStart, PeriodType: periodType, UserID: &userID,
		}, periodEnd, byUser[userID]); err != nil {
			return err
		}
	}

	return nil
}

func topUsersByEventCount(byUser map[string][]*event.UsageEvent, limit int) []string {
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if len(byUser[users[i]]) != len(byUser[users[j]]) {
			return len(byUser[users[i]]) > len(byUser[users[j]])
		}
		return users[i] < users[j]
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users
}

func (a *Aggregator) upsertAggregate(ctx context.Context, tenantID string, key aggregate.Key, periodEnd time.Time, events []*event.UsageEvent) error {
	agg := aggregate.New(tenantID, key, periodEnd)
	populateAggregate(agg, events)
	return a.aggregates.Upsert(ctx, agg)
}

// populateAggregate fills counts, cost, latency stats, and the
// service_type-specific aggregated_metrics (§4.6's per-service rollup
// table), mirroring _create_aggregate/_calculate_service_metrics.
func populateAggregate(agg *aggregate.UsageAggregate, events []*event.UsageEvent) {
	agg.EventCount = int64(len(events))

	uniqueUsers := map[string]struct{}{}
	var totalCost decimal.Decimal
	var latencies []float64
	for _, e := range events {
		uniqueUsers[e.UserID] = struct{}{}
		totalCost = totalCost.Add(e.TotalCost)
		if v, ok := numeric(e.Metrics, "latency_ms"); ok {
			latencies = append(latencies, v)
		}
	}
	agg.UniqueUsers = int64(len(uniqueUsers))
	agg.TotalCost = totalCost
	// Only completed events ever reach the aggregator (§4.5's
	// insert-only invariant), so this window has no failures to count.
	agg.ErrorCount = 0
	agg.ErrorRate = decimal.Zero

	if len(latencies) > 0 {
		agg.AvgLatencyMs = decimal.NewFromFloat(mean(latencies))
		agg.P95LatencyMs = decimal.NewFromFloat(percentile95(latencies))
	} else {
		agg.AvgLatencyMs = decimal.Zero
		agg.P95LatencyMs = decimal.Zero
	}

	if agg.ServiceType != nil {
		agg.AggregatedMetrics = serviceMetrics(types.ServiceType(*agg.ServiceType), events)
	}
}

func serviceMetrics(serviceType types.ServiceType, events []*event.UsageEvent) types.JSONMap {
	switch serviceType {
	case types.ServiceTypeLLM:
		var inputSum, outputSum, totalSum float64
		for _, e := range events {
			if v, ok := numeric(e.Metrics, "input_tokens"); ok {
				inputSum += v
			}
			if v, ok := numeric(e.Metrics, "output_tokens"); ok {
				outputSum += v
			}
			if v, ok := numeric(e.Metrics, "total_tokens"); ok {
				totalSum += v
			}
		}
		n := float64(len(events))
		return types.JSONMap{
			"total_input_tokens":  inputSum,
			"total_output_tokens": outputSum,
			"total_tokens":        totalSum,
			"avg_input_tokens":    inputSum / n,
			"avg_output_tokens":   outputSum / n,
		}
	case types.ServiceTypeDocumentProcessor:
		var pages, chars, processingMs float64
		for _, e := range events {
			if v, ok := numeric(e.Metrics, "pages_processed"); ok {
				pages += v
			}
			if v, ok := numeric(e.Metrics, "characters_extracted"); ok {
				chars += v
			}
			if v, ok := numeric(e.Metrics, "processing_time_ms"); ok {
				processingMs += v
			}
		}
		return types.JSONMap{
			"total_pages_processed":     pages,
			"total_characters_extracted": chars,
			"avg_processing_time_ms":    processingMs / float64(len(events)),
		}
	case types.ServiceTypeAPI:
		var requests, payload, response, responseMs float64
		for _, e := range events {
			if v, ok := numeric(e.Metrics, "request_count"); ok {
				requests += v
			}
			if v, ok := numeric(e.Metrics, "payload_size_bytes"); ok {
				payload += v
			}
			if v, ok := numeric(e.Metrics, "response_size_bytes"); ok {
				response += v
			}
			if v, ok := numeric(e.Metrics, "response_time_ms"); ok {
				responseMs += v
			}
		}
		return types.JSONMap{
			"total_requests":        requests,
			"total_payload_bytes":   payload,
			"total_response_bytes":  response,
			"avg_response_time_ms":  responseMs / float64(len(events)),
		}
	default:
		return types.JSONMap{}
	}
}

func numeric(m types.JSONMap, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// percentile95 is exact nearest-rank over the retained samples (Open
// Question 3's resolution): sorted ascending, index ceil(0.95n)-1.
func percentile95(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted))*0.95 + 0.9999999)
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}

// generateBillingSummaries regenerates the current and previous
// month's BillingSummary for every tenant with billable events in that
// month, never finalizing (only the close-of-month operator action
// does — §4.6 / §4.7).
func (a *Aggregator) generateBillingSummaries(ctx context.Context, now time.Time) error {
	months := []time.Time{
		time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, monthStart := range months {
		monthEnd := time.Date(monthStart.Year(), monthStart.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		tenants, err := a.events.DistinctTenants(ctx, monthStart, monthEnd)
		if err != nil {
			return fmt.Errorf("list distinct tenants: %w", err)
		}
		for _, tenantID := range tenants {
			if err := a.generateTenantBillingSummary(ctx, tenantID, monthStart, monthEnd); err != nil {
				a.log.Errorw("billing summary generation failed for tenant", "tenant_id", tenantID, "month", monthStart, "error", err.Error())
			}
		}
	}
	return nil
}

func (a *Aggregator) generateTenantBillingSummary(ctx context.Context, tenantID string, monthStart, monthEnd time.Time) error {
	completed := types.EventStatusCompleted
	events, err := a.events.List(ctx, event.ListFilter{
		TenantID: tenantID,
		From:     monthStart,
		To:       monthEnd,
		Status:   &completed,
	})
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	var totalCost decimal.Decimal
	uniqueUsers := map[string]struct{}{}
	costByService := map[string]decimal.Decimal{}
	costByUser := map[string]decimal.Decimal{}
	for _, e := range events {
		if e.TotalCost.IsZero() {
			continue
		}
		totalCost = totalCost.Add(e.TotalCost)
		uniqueUsers[e.UserID] = struct{}{}
		svcKey := fmt.Sprintf("%s:%s", e.ServiceType, e.ServiceProvider)
		costByService[svcKey] = costByService[svcKey].Add(e.TotalCost)
		costByUser[e.UserID] = costByUser[e.UserID].Add(e.TotalCost)
	}

	if totalCost.IsZero() {
		return nil
	}

	existing, err := a.summaries.Get(ctx, tenantID, monthStart.Year(), int(monthStart.Month()))
	if err != nil {
		existing = billingsummary.New(tenantID, monthStart.Year(), int(monthStart.Month()))
	}
	if existing.IsFinalized {
		return nil
	}

	existing.TotalCost = totalCost
	existing.TotalEvents = int64(len(events))
	existing.ActiveUsers = int64(len(uniqueUsers))
	existing.CostByService = costMapToJSON(costByService)
	existing.CostByUser = costMapToJSON(topCosts(costByUser, topBillingUserLimit))
	existing.UpdatedAt = time.Now().UTC()

	return a.summaries.Upsert(ctx, existing)
}

func costMapToJSON(m map[string]decimal.Decimal) types.JSONMap {
	out := make(types.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// topCosts keeps the limit highest-cost entries (§4.6's top-50
// cost_by_user rule).
func topCosts(m map[string]decimal.Decimal, limit int) map[string]decimal.Decimal {
	type kv struct {
		key  string
		cost decimal.Decimal
	}
	entries := make([]kv, 0, len(m))
	for k, v := range m {
		entries = append(entries, kv{k, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].cost.GreaterThan(entries[j].cost) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make(map[string]decimal.Decimal, len(entries))
	for _, e := range entries {
		out[e.key] = e.cost
	}
	return out
}
