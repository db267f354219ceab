package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
	"github.com/grandmarche/backend/pkg/logger"
	"github.com/grandmarche/backend/pkg/metrics"
	"github.com/grandmarche/backend/pkg/outbox"
	"github.com/grandmarche/backend/pkg/outbox/idempotency"
	"github.com/grandmarche/backend/pkg/outbox/payloads"
)

const notificationsConsumer = "notifications-worker"

// Consumer watches the domain topic and fans every event out to its
// recipients. All six event types land here; anything else is acked away.
type Consumer struct {
	fanout       *Fanout
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	metrics      *metrics.PipelineMetrics
	logg         *logger.Logger
}

// NewConsumer builds the notification fan-out consumer.
func NewConsumer(fanout *Fanout, subscription *pubsub.Subscriber, manager *idempotency.Manager, pipelineMetrics *metrics.PipelineMetrics, logg *logger.Logger) (*Consumer, error) {
	if fanout == nil {
		return nil, fmt.Errorf("fanout required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		fanout:       fanout,
		subscription: subscription,
		idempotency:  manager,
		metrics:      pipelineMetrics,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	started := time.Now()
	defer func() {
		c.metrics.ObserveConsumerDuration(notificationsConsumer, time.Since(started))
	}()

	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.dispatch(ctx, eventType, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification fan-out failed", err)
		_ = c.idempotency.Delete(ctx, notificationsConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) dispatch(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse order_created: %w", err)
		}
		return c.fanout.OrderCreated(ctx, payload)
	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse order_status_changed: %w", err)
		}
		return c.fanout.StatusChanged(ctx, payload)
	case enums.EventDisputeOpened:
		var payload payloads.DisputeOpenedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse dispute_opened: %w", err)
		}
		return c.fanout.DisputeOpened(ctx, payload)
	case enums.EventDisputeResolved:
		var payload payloads.DisputeResolvedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse dispute_resolved: %w", err)
		}
		return c.fanout.DisputeResolved(ctx, payload)
	case enums.EventRefundIssued:
		var payload payloads.RefundIssuedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse refund_issued: %w", err)
		}
		return c.fanout.RefundIssued(ctx, payload)
	case enums.EventLowStock:
		var payload payloads.LowStockEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse low_stock: %w", err)
		}
		return c.fanout.LowStock(ctx, payload)
	default:
		return nil
	}
}
