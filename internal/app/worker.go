package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

// NewPublisher connects to RabbitMQ. Without a broker URL, or outside
// production when the broker is unreachable, events are delivered to an
// in-process bus, which logs them in development.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (eventbus.Publisher, error) {
	if cfg.RabbitMQURL == "" && cfg.IsProduction() {
		return nil, errors.New("RABBITMQ_URL is required in production")
	}
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err == nil {
			return publisher, nil
		}
		if cfg.IsProduction() {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		logger.Warn("RabbitMQ not available, using in-process bus", "error", err)
	}

	bus := eventbus.NewInProcessBus(logger)
	if cfg.IsDevelopment() {
		bus.Subscribe("scheduling.#", func(ctx context.Context, routingKey string, payload []byte) error {
			logger.InfoContext(ctx, "session event", "routing_key", routingKey, "payload", string(payload))
			return nil
		})
	}
	return bus, nil
}

// NewOutboxProcessor builds the outbox processor from configuration.
func (c *Container) NewOutboxProcessor(publisher eventbus.Publisher) *outbox.Processor {
	processorCfg := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		processorCfg.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		processorCfg.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		processorCfg.MaxRetries = c.Config.OutboxMaxRetries
	}
	processorCfg.Retention = time.Duration(c.Config.OutboxRetentionDays) * 24 * time.Hour
	processorCfg.CleanupInterval = c.Config.OutboxCleanupInterval

	return outbox.NewProcessor(c.OutboxRepo, publisher, processorCfg, c.Logger).WithMetrics(c.Metrics)
}

// RegisterPublisherHealth adds a broker check when publisher talks to
// RabbitMQ.
func (c *Container) RegisterPublisherHealth(publisher eventbus.Publisher) {
	if rabbit, ok := publisher.(*eventbus.RabbitMQPublisher); ok {
		c.Health.Register("rabbitmq", observability.BrokerHealthChecker(rabbit.Ping))
	}
}
