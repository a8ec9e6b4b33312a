// Package clickhouse adapts internal/clickhouse's Store into the
// domain repository interfaces, the way the teacher's repository
// package sits between domain models and ent/sqlx.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	chlib "github.com/flexprice/flexprice/internal/clickhouse"
	"github.com/flexprice/flexprice/internal/domain/event"
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/types"
)

const eventsTable = "usage_events"

type EventRepository struct {
	store *chlib.Store
	log   *logger.Logger
}

func NewEventRepository(store *chlib.Store, log *logger.Logger) event.Repository {
	return &EventRepository{store: store, log: log}
}

func (r *EventRepository) Insert(ctx context.Context, e *event.UsageEvent) error {
	query := fmt.Sprintf(`INSERT INTO %s (
		id, event_id, tenant_id, timestamp, user_id, service_type, service_provider,
		event_type, metrics, metadata, tags, billing_info, total_cost, status,
		error_message, retry_count, session_id, request_id, created_at, updated_at
	)`, eventsTable)

	batch, err := r.store.Conn().PrepareBatch(ctx, query)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to prepare clickhouse batch").Mark(ierr.ErrServiceUnavailable)
	}
	if err := appendEvent(batch, e); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	if err := batch.Send(); err != nil {
		return ierr.WithError(err).WithHint("failed to insert usage event").Mark(ierr.ErrServiceUnavailable)
	}
	return nil
}

func (r *EventRepository) BulkInsert(ctx context.Context, events []*event.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}
	query := fmt.Sprintf(`INSERT INTO %s (
		id, event_id, tenant_id, timestamp, user_id, service_type, service_provider,
		event_type, metrics, metadata, tags, billing_info, total_cost, status,
		error_message, retry_count, session_id, request_id, created_at, updated_at
	)`, eventsTable)

	batch, err := r.store.Conn().PrepareBatch(ctx, query)
	if err != nil {
		return ierr.WithError(err).WithHint("failed to prepare clickhouse batch").Mark(ierr.ErrServiceUnavailable)
	}
	for _, e := range events {
		if err := appendEvent(batch, e); err != nil {
			return ierr.WithError(err).Mark(ierr.ErrInternal)
		}
	}
	if err := batch.Send(); err != nil {
		return ierr.WithError(err).WithHint("failed to bulk insert usage events").Mark(ierr.ErrServiceUnavailable)
	}
	return nil
}

func appendEvent(batch driverBatch, e *event.UsageEvent) error {
	return batch.Append(
		e.ID, e.EventID, e.TenantID, e.Timestamp, e.UserID, string(e.ServiceType), e.ServiceProvider,
		e.EventType, e.Metrics, e.Metadata, []string(e.Tags), e.BillingInfo, e.TotalCost, string(e.Status),
		e.ErrorMessage, e.RetryCount, e.SessionID, e.RequestID, e.CreatedAt, e.UpdatedAt,
	)
}

// driverBatch narrows clickhouse's driver.Batch to what appendEvent needs.
type driverBatch interface {
	Append(v ...any) error
}

func (r *EventRepository) GetByEventID(ctx context.Context, tenantID, eventID string) (*event.UsageEvent, error) {
	query := fmt.Sprintf(`SELECT id, event_id, tenant_id, timestamp, user_id, service_type, service_provider,
		event_type, metrics, metadata, tags, billing_info, total_cost, status,
		error_message, retry_count, session_id, request_id, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND event_id = ? ORDER BY updated_at DESC LIMIT 1`, eventsTable)

	var e event.UsageEvent
	var serviceType, status string
	var tags []string
	row := r.store.Conn().QueryRow(ctx, query, tenantID, eventID)
	err := row.Scan(&e.ID, &e.EventID, &e.TenantID, &e.Timestamp, &e.UserID, &serviceType, &e.ServiceProvider,
		&e.EventType, &e.Metrics, &e.Metadata, &tags, &e.BillingInfo, &e.TotalCost, &status,
		&e.ErrorMessage, &e.RetryCount, &e.SessionID, &e.RequestID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("usage event not found").Mark(ierr.ErrNotFound)
	}
	e.ServiceType = types.ServiceType(serviceType)
	e.Status = types.EventStatus(status)
	e.Tags = types.StringSet(tags)
	return &e, nil
}

func (r *EventRepository) DistinctTenants(ctx context.Context, from, to time.Time) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT tenant_id FROM %s WHERE timestamp >= ? AND timestamp < ? AND status = ?`, eventsTable)
	rows, err := r.store.Conn().Query(ctx, query, from, to, string(types.EventStatusCompleted))
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list distinct tenants").Mark(ierr.ErrServiceUnavailable)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
		}
		tenants = append(tenants, tenantID)
	}
	return tenants, nil
}

func (r *EventRepository) List(ctx context.Context, f event.ListFilter) ([]*event.UsageEvent, error) {
	query := fmt.Sprintf(`SELECT id, event_id, tenant_id, timestamp, user_id, service_type, service_provider,
		event_type, metrics, metadata, tags, billing_info, total_cost, status,
		error_message, retry_count, session_id, request_id, created_at, updated_at
		FROM %s WHERE tenant_id = ? AND timestamp >= ? AND timestamp < ?`, eventsTable)
	args := []any{f.TenantID, f.From, f.To}

	if f.ServiceType != nil {
		query += " AND service_type = ?"
		args = append(args, string(*f.ServiceType))
	}
	if f.ServiceProvider != nil {
		query += " AND service_provider = ?"
		args = append(args, *f.ServiceProvider)
	}
	if f.UserID != nil {
		query += " AND user_id = ?"
		args = append(args, *f.UserID)
	}
	if f.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*f.Status))
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	rows, err := r.store.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list usage events").Mark(ierr.ErrServiceUnavailable)
	}
	defer rows.Close()

	var results []*event.UsageEvent
	for rows.Next() {
		var e event.UsageEvent
		var serviceType, status string
		var tags []string
		if err := rows.Scan(&e.ID, &e.EventID, &e.TenantID, &e.Timestamp, &e.UserID, &serviceType, &e.ServiceProvider,
			&e.EventType, &e.Metrics, &e.Metadata, &tags, &e.BillingInfo, &e.TotalCost, &status,
			&e.ErrorMessage, &e.RetryCount, &e.SessionID, &e.RequestID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
		}
		e.ServiceType = types.ServiceType(serviceType)
		e.Status = types.EventStatus(status)
		e.Tags = types.StringSet(tags)
		results = append(results, &e)
	}
	return results, nil
}
