package purchase

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/entity"
	"github.com/Additional-Code/storefront/internal/messaging"
	purchasesvc "github.com/Additional-Code/storefront/internal/service/purchase"
	"github.com/Additional-Code/storefront/internal/worker"
)

var (
	workerTracer = otel.Tracer("github.com/Additional-Code/storefront/worker/purchase")
	workerMeter  = otel.Meter("github.com/Additional-Code/storefront/worker/purchase")
)

// Module registers purchase event handlers with the worker engine.
var Module = fx.Module("worker_purchase",
	fx.Provide(
		fx.Annotate(
			NewEventHandlers,
			fx.ResultTags(`group:"worker.handlers,flatten"`),
		),
	),
)

// NewEventHandlers returns one registration per purchase event type on the
// configured topic.
func NewEventHandlers(logger *zap.Logger, cfg config.Config) ([]worker.HandlerRegistration, error) {
	processed, err := workerMeter.Int64Counter(
		"storefront.worker.purchase_events",
		metric.WithDescription("Purchase events consumed by type"),
	)
	if err != nil {
		return nil, err
	}

	p := &processor{logger: logger, processed: processed}
	topic := cfg.Messaging.Kafka.Topic

	return []worker.HandlerRegistration{
		{Topic: topic, EventType: purchasesvc.EventCreated, Handler: p.handle(p.created)},
		{Topic: topic, EventType: purchasesvc.EventStatusChanged, Handler: p.handle(p.statusChanged)},
		{Topic: topic, EventType: purchasesvc.EventDeleted, Handler: p.handle(p.deleted)},
	}, nil
}

type processor struct {
	logger    *zap.Logger
	processed metric.Int64Counter
}

func (p *processor) handle(next func(purchasesvc.Event)) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.purchases.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		var event purchasesvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			p.logger.Error("failed to decode purchase event", zap.Error(err), zap.Int64("offset", msg.Offset))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return fmt.Errorf("decode purchase event: %w", err)
		}

		span.SetAttributes(attribute.String("purchase.id", event.PurchaseID.String()), attribute.String("event.type", event.Type))
		next(event)
		p.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("type", event.Type)))
		return nil
	}
}

func (p *processor) created(event purchasesvc.Event) {
	p.logger.Info("purchase created",
		zap.Stringer("purchase_id", event.PurchaseID),
		zap.Stringer("seller_id", event.SellerID),
		zap.Stringer("status", entity.PurchaseStatus(event.Status)),
	)
}

func (p *processor) statusChanged(event purchasesvc.Event) {
	p.logger.Info("purchase status changed",
		zap.Stringer("purchase_id", event.PurchaseID),
		zap.Stringer("from", entity.PurchaseStatus(event.PreviousStatus)),
		zap.Stringer("to", entity.PurchaseStatus(event.Status)),
		zap.Int64("version", event.Version),
	)
}

func (p *processor) deleted(event purchasesvc.Event) {
	p.logger.Info("purchase deleted", zap.Stringer("purchase_id", event.PurchaseID))
}
