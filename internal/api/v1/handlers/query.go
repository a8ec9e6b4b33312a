package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/flexprice/flexprice/internal/cache"
	"github.com/flexprice/flexprice/internal/domain/aggregate"
	"github.com/flexprice/flexprice/internal/domain/event"
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// QueryHandler serves the read side of the pipeline (§4.7): raw usage
// lookups, pre-aggregated rollups, cost breakdowns, and trend analysis.
// Every query must be correct without the cache (§9's "cache is
// advisory") — cache is read-through, never authoritative.
type QueryHandler struct {
	events     event.Repository
	aggregates aggregate.Repository
	cache      cache.Cache
	log        *logger.Logger
}

func NewQueryHandler(events event.Repository, aggregates aggregate.Repository, c cache.Cache, log *logger.Logger) *QueryHandler {
	return &QueryHandler{events: events, aggregates: aggregates, cache: c, log: log}
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	end := now
	start := now.AddDate(0, 0, -30)

	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	return start, end, nil
}

func optionalString(c *gin.Context, name string) *string {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	return &v
}

// GetUsage godoc
// @Summary  List usage events
// @Tags     usage
// @Produce  json
// @Router   /api/v1/usage [get]
func (h *QueryHandler) GetUsage(c *gin.Context) {
	tenantID := types.GetTenantID(c.Request.Context())
	if tenantID == "" {
		c.Error(ierr.NewError("tenant_id is required").Mark(ierr.ErrValidation))
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		c.Error(ierr.NewError("invalid date range").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 10000 {
			c.Error(ierr.NewError("limit must be between 0 and 10000").Mark(ierr.ErrValidation))
			return
		}
		limit = n
	}
	offset := 0
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.Error(ierr.NewError("offset must be >= 0").Mark(ierr.ErrValidation))
			return
		}
		offset = n
	}

	filter := event.ListFilter{
		TenantID:        tenantID,
		From:            start,
		To:              end,
		ServiceProvider: optionalString(c, "service_provider"),
		UserID:          optionalString(c, "user_id"),
		Limit:           limit + 1,
		Offset:          offset,
	}
	if st := c.Query("service_type"); st != "" {
		svcType := types.ServiceType(st)
		filter.ServiceType = &svcType
	}

	events, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to list usage events").Mark(ierr.ErrInternal))
		return
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	includeBilling := c.Query("include_billing") == "true"
	if !includeBilling {
		for _, e := range events {
			e.BillingInfo = nil
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total_count": len(events),
		"has_more":    hasMore,
	})
}

// GetUsageAggregate godoc
// @Summary  Read pre-computed usage aggregates
// @Tags     usage
// @Produce  json
// @Router   /api/v1/usage/aggregate [get]
func (h *QueryHandler) GetUsageAggregate(c *gin.Context) {
	tenantID := types.GetTenantID(c.Request.Context())
	if tenantID == "" {
		c.Error(ierr.NewError("tenant_id is required").Mark(ierr.ErrValidation))
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		c.Error(ierr.NewError("invalid date range").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}
	period := types.PeriodType(c.DefaultQuery("period", string(types.PeriodDay)))

	key := cache.GenerateKey(cache.PrefixUsageAggregate, tenantID, period, start.Unix(), end.Unix(), c.Query("service_type"))
	if cached, ok := h.cache.Get(c.Request.Context(), key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	filter := aggregate.ListFilter{
		TenantID:    tenantID,
		PeriodType:  period,
		From:        start,
		To:          end,
		ServiceType: optionalString(c, "service_type"),
	}
	aggregates, err := h.aggregates.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to list aggregates").Mark(ierr.ErrInternal))
		return
	}

	resp := gin.H{"aggregates": aggregates}
	h.cache.Set(c.Request.Context(), key, resp, 5*time.Minute)
	c.JSON(http.StatusOK, resp)
}

type serviceBreakdown struct {
	ServiceType        string          `json:"service_type"`
	ServiceProvider     string          `json:"service_provider"`
	EventCount          int64           `json:"event_count"`
	PercentageOfTotal   decimal.Decimal `json:"percentage_of_total"`
}

// GetUsageByService godoc
// @Summary  Tenant-period breakdown by (service_type, service_provider)
// @Tags     usage
// @Produce  json
// @Router   /api/v1/usage/by-service [get]
func (h *QueryHandler) GetUsageByService(c *gin.Context) {
	tenantID := types.GetTenantID(c.Request.Context())
	if tenantID == "" {
		c.Error(ierr.NewError("tenant_id is required").Mark(ierr.ErrValidation))
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		c.Error(ierr.NewError("invalid date range").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	key := cache.GenerateKey(cache.PrefixUsageByService, tenantID, start.Unix(), end.Unix())
	if cached, ok := h.cache.Get(c.Request.Context(), key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	aggregates, err := h.aggregates.List(c.Request.Context(), aggregate.ListFilter{
		TenantID:   tenantID,
		PeriodType: types.PeriodDay,
		From:       start,
		To:         end,
	})
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to list aggregates").Mark(ierr.ErrInternal))
		return
	}

	type cell struct {
		serviceType, serviceProvider string
		count                        int64
	}
	byCell := map[string]*cell{}
	var total int64
	for _, a := range aggregates {
		if a.ServiceType == nil || a.ServiceProvider == nil || a.UserID != nil {
			continue
		}
		k := *a.ServiceType + "|" + *a.ServiceProvider
		if byCell[k] == nil {
			byCell[k] = &cell{serviceType: *a.ServiceType, serviceProvider: *a.ServiceProvider}
		}
		byCell[k].count += a.EventCount
		total += a.EventCount
	}

	breakdown := make([]serviceBreakdown, 0, len(byCell))
	for _, cl := range byCell {
		pct := decimal.Zero
		if total > 0 {
			pct = decimal.NewFromInt(cl.count).Div(decimal.NewFromInt(total)).Mul(decimal.NewFromInt(100)).Round(4)
		}
		breakdown = append(breakdown, serviceBreakdown{
			ServiceType:       cl.serviceType,
			ServiceProvider:   cl.serviceProvider,
			EventCount:        cl.count,
			PercentageOfTotal: pct,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].EventCount > breakdown[j].EventCount })

	resp := gin.H{"breakdown": breakdown, "total_events": total}
	h.cache.Set(c.Request.Context(), key, resp, 10*time.Minute)
	c.JSON(http.StatusOK, resp)
}

// GetUsageCosts godoc
// @Summary  Cost breakdown grouped by hour/day/week/month
// @Tags     usage
// @Produce  json
// @Router   /api/v1/usage/costs [get]
func (h *QueryHandler) GetUsageCosts(c *gin.Context) {
	tenantID := types.GetTenantID(c.Request.Context())
	if tenantID == "" {
		c.Error(ierr.NewError("tenant_id is required").Mark(ierr.ErrValidation))
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		c.Error(ierr.NewError("invalid date range").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	groupBy := c.DefaultQuery("group_by", "day")
	periodType, err := groupByToPeriodType(groupBy)
	if err != nil {
		c.Error(ierr.NewError("invalid group_by").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	key := cache.GenerateKey(cache.PrefixUsageCosts, tenantID, groupBy, start.Unix(), end.Unix())
	if cached, ok := h.cache.Get(c.Request.Context(), key); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	aggregates, err := h.aggregates.List(c.Request.Context(), aggregate.ListFilter{
		TenantID:   tenantID,
		PeriodType: periodType,
		From:       start,
		To:         end,
	})
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to list aggregates").Mark(ierr.ErrInternal))
		return
	}

	totalCost := decimal.Zero
	costByService := map[string]decimal.Decimal{}
	costByPeriod := map[string]decimal.Decimal{}
	for _, a := range aggregates {
		if a.UserID != nil {
			continue
		}
		if a.ServiceType == nil && a.ServiceProvider == nil {
			totalCost = totalCost.Add(a.TotalCost)
			costByPeriod[a.PeriodStart.Format(time.RFC3339)] = costByPeriod[a.PeriodStart.Format(time.RFC3339)].Add(a.TotalCost)
		}
		if a.ServiceType != nil && a.ServiceProvider == nil {
			costByService[*a.ServiceType] = costByService[*a.ServiceType].Add(a.TotalCost)
		}
	}

	resp := gin.H{
		"total_cost":      totalCost,
		"cost_by_service": costByService,
		"cost_by_period":  costByPeriod,
	}
	h.cache.Set(c.Request.Context(), key, resp, 10*time.Minute)
	c.JSON(http.StatusOK, resp)
}

func groupByToPeriodType(groupBy string) (types.PeriodType, error) {
	switch groupBy {
	case "hour":
		return types.PeriodHour, nil
	case "day":
		return types.PeriodDay, nil
	case "week":
		return types.PeriodWeek, nil
	case "month":
		return types.PeriodMonth, nil
	default:
		return "", ierr.NewError("group_by must be one of hour, day, week, month")
	}
}

// GetTrends godoc
// @Summary  Trend direction over an aggregate series
// @Tags     analytics
// @Produce  json
// @Router   /api/v1/analytics/trends [get]
func (h *QueryHandler) GetTrends(c *gin.Context) {
	tenantID := types.GetTenantID(c.Request.Context())
	if tenantID == "" {
		c.Error(ierr.NewError("tenant_id is required").Mark(ierr.ErrValidation))
		return
	}

	metric := c.DefaultQuery("metric", "event_count")
	switch metric {
	case "event_count", "total_cost", "unique_users":
	default:
		c.Error(ierr.NewError("metric must be one of event_count, total_cost, unique_users").Mark(ierr.ErrValidation))
		return
	}

	start, end, err := parseDateRange(c)
	if err != nil {
		c.Error(ierr.NewError("invalid date range").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	aggregates, err := h.aggregates.List(c.Request.Context(), aggregate.ListFilter{
		TenantID:   tenantID,
		PeriodType: types.PeriodDay,
		From:       start,
		To:         end,
	})
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to list aggregates").Mark(ierr.ErrInternal))
		return
	}

	sort.Slice(aggregates, func(i, j int) bool { return aggregates[i].PeriodStart.Before(aggregates[j].PeriodStart) })

	series := make([]float64, 0, len(aggregates))
	for _, a := range aggregates {
		if a.ServiceType != nil || a.ServiceProvider != nil || a.UserID != nil {
			continue
		}
		switch metric {
		case "event_count":
			series = append(series, float64(a.EventCount))
		case "unique_users":
			series = append(series, float64(a.UniqueUsers))
		case "total_cost":
			f, _ := a.TotalCost.Float64()
			series = append(series, f)
		}
	}

	direction, pctChange := trendDirection(series)
	c.JSON(http.StatusOK, gin.H{
		"metric":             metric,
		"series":             series,
		"trend_direction":    direction,
		"percentage_change":  pctChange,
	})
}

// trendDirection compares the first-half mean to the second-half mean
// with a ±5% dead band (§4.7).
func trendDirection(series []float64) (string, float64) {
	if len(series) < 2 {
		return "flat", 0
	}

	mid := len(series) / 2
	firstHalf, secondHalf := series[:mid], series[mid:]

	mean := func(xs []float64) float64 {
		if len(xs) == 0 {
			return 0
		}
		sum := 0.0
		for _, x := range xs {
			sum += x
		}
		return sum / float64(len(xs))
	}

	first, second := mean(firstHalf), mean(secondHalf)
	if first == 0 {
		if second == 0 {
			return "flat", 0
		}
		return "up", 0
	}

	pctChange := (second - first) / first * 100
	switch {
	case pctChange > 5:
		return "up", pctChange
	case pctChange < -5:
		return "down", pctChange
	default:
		return "flat", pctChange
	}
}
