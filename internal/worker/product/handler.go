package product

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
	productsvc "github.com/Additional-Code/mercury/internal/service/product"
	"github.com/Additional-Code/mercury/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/mercury/worker/product")

// Module registers the product message handler.
var Module = fx.Module("worker_product",
	fx.Provide(
		fx.Annotate(
			NewProductHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewProductHandler consumes product messages and applies them through the
// product service. Failures propagate so the message is redelivered.
func NewProductHandler(svc *productsvc.Service, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.product.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var payload productsvc.Message
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("failed to decode product message", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		product, err := svc.ApplyMessage(ctx, payload)
		if err != nil {
			logger.Error("failed to handle product message",
				zap.String("action", payload.Action),
				zap.Error(err),
			)

			span.RecordError(err)
			span.SetStatus(codes.Error, "apply error")
			return err
		}

		logger.Info("processed product message",
			zap.String("action", payload.Action),
			zap.Int64("id", product.ID),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.ProductTopic,
		Handler: handler,
	}
}
