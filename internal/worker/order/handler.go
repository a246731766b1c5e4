package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/mercury/internal/config"
	"github.com/Additional-Code/mercury/internal/messaging"
	ordersvc "github.com/Additional-Code/mercury/internal/service/order"
	"github.com/Additional-Code/mercury/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/mercury/worker/order")

// Module registers the order message handler.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderHandler consumes order messages and applies them through the order
// workflow engine. The queue path and the HTTP path run the identical
// resolve/validate/persist procedure.
func NewOrderHandler(svc *ordersvc.Service, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.order.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var payload ordersvc.Message
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("failed to decode order message", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		order, err := svc.ApplyMessage(ctx, payload)
		if err != nil {
			logger.Error("failed to handle order message",
				zap.String("action", payload.Action),
				zap.Error(err),
			)

			span.RecordError(err)
			span.SetStatus(codes.Error, "apply error")
			return err
		}

		logger.Info("processed order message",
			zap.String("action", payload.Action),
			zap.Int64("id", order.ID),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.OrderTopic,
		Handler: handler,
	}
}
