// Package handlers wires HTTP request/response translation to the
// domain layer — ingest, query, health (§4.4, §4.7).
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flexprice/flexprice/internal/config"
	"github.com/flexprice/flexprice/internal/domain/event"
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/queue"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/flexprice/flexprice/internal/validator"
	"github.com/gin-gonic/gin"
)

// EventsHandler ingests raw usage events, the HTTP edge of the event
// processor pipeline (§4.4). It depends on the queue for the hot path
// and the event repository only for the store-failure fallback.
type EventsHandler struct {
	queue    queue.Queue
	events   event.Repository
	cfg      *config.Configuration
	log      *logger.Logger
}

func NewEventsHandler(q queue.Queue, events event.Repository, cfg *config.Configuration, log *logger.Logger) *EventsHandler {
	return &EventsHandler{queue: q, events: events, cfg: cfg, log: log}
}

// enrichedRequestBody carries client IP/user-agent into metadata
// before the validator runs, since those aren't caller-supplied fields.
func (h *EventsHandler) enrich(c *gin.Context, raw *validator.RawEvent) {
	if raw.Metadata == nil {
		raw.Metadata = types.JSONMap{}
	}
	raw.Metadata["client_ip"] = c.ClientIP()
	raw.Metadata["user_agent"] = c.Request.UserAgent()
	if raw.RequestID == "" {
		raw.RequestID = types.GetRequestID(c.Request.Context())
	}
}

// enqueueOrPersist pushes the pending event onto usage_events; if the
// queue itself is unreachable it falls back to a direct, synchronous
// store write so an accepted event is never lost to a queue outage
// alone (§4.4's "Enqueue fallback").
func (h *EventsHandler) enqueueOrPersist(c *gin.Context, tenantID string, norm *event.NormalizedEvent) error {
	pending := event.NewPending(tenantID, norm)
	payload, err := json.Marshal(pending)
	if err != nil {
		return err
	}

	if err := h.queue.Push(c.Request.Context(), queue.UsageEventsQueue, payload); err != nil {
		h.log.Errorw("queue push failed, falling back to direct store write",
			"error", err.Error(), "event_id", pending.EventID, "tenant_id", tenantID)
		return h.events.Insert(c.Request.Context(), pending)
	}
	return nil
}

// IngestEvent godoc
// @Summary      Ingest a usage event
// @Description  Validates and enqueues a single usage event for processing
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        event body validator.RawEvent true "usage event"
// @Success      200 {object} map[string]any
// @Failure      400 {object} map[string]any
// @Router       /api/v1/events [post]
func (h *EventsHandler) IngestEvent(c *gin.Context) {
	var raw validator.RawEvent
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.Error(ierr.NewError("malformed request body").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	h.enrich(c, &raw)

	norm, err := validator.ValidateEvent(raw)
	if err != nil {
		c.Error(err)
		return
	}

	tenantID := types.GetTenantID(c.Request.Context())
	if err := h.enqueueOrPersist(c, tenantID, norm); err != nil {
		c.Error(ierr.NewError("failed to accept event").WithHint(err.Error()).Mark(ierr.ErrInternal))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"event_id": norm.EventID,
		"message":  "event accepted",
	})
}

// failedEvent is one element of the batch response's failed_events list.
type failedEvent struct {
	Index     int    `json:"index"`
	Error     string `json:"error"`
	EventData any    `json:"event_data"`
}

type batchRequest struct {
	Events []validator.RawEvent `json:"events"`
}

// IngestBatch godoc
// @Summary      Ingest a batch of usage events
// @Description  Validates each event independently; partial success is a 200
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        body body batchRequest true "events batch"
// @Success      200 {object} map[string]any
// @Router       /api/v1/events/batch [post]
func (h *EventsHandler) IngestBatch(c *gin.Context) {
	var body batchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(ierr.NewError("malformed request body").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	maxBatch := h.cfg.Batch.MaxBatchSize
	if len(body.Events) > maxBatch {
		c.Error(ierr.NewError("batch too large").
			WithHintf("batch of %d exceeds the configured max of %d", len(body.Events), maxBatch).
			Mark(ierr.ErrValidation))
		return
	}

	tenantID := types.GetTenantID(c.Request.Context())
	var (
		payloads []([]byte)
		failed   []failedEvent
	)

	for i, raw := range body.Events {
		h.enrich(c, &raw)
		norm, err := validator.ValidateEvent(raw)
		if err != nil {
			failed = append(failed, failedEvent{Index: i, Error: err.Error(), EventData: raw})
			continue
		}

		pending := event.NewPending(tenantID, norm)
		payload, err := json.Marshal(pending)
		if err != nil {
			failed = append(failed, failedEvent{Index: i, Error: err.Error(), EventData: raw})
			continue
		}
		payloads = append(payloads, payload)
	}

	if len(payloads) > 0 {
		if err := h.queue.Pipeline(c.Request.Context(), queue.UsageEventsQueue, payloads); err != nil {
			h.log.Errorw("batch pipeline push failed", "error", err.Error(), "tenant_id", tenantID, "count", len(payloads))
			c.Error(ierr.NewError("failed to accept batch").WithHint(err.Error()).Mark(ierr.ErrInternal))
			return
		}
	}

	if failed == nil {
		failed = []failedEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"processed_count": len(payloads),
		"failed_count":    len(failed),
		"failed_events":   failed,
		"message":         "batch processed",
	})
}
