package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/internal/repository"
	"github.com/jwalitptl/medrecords-api/pkg/logger"
	"github.com/jwalitptl/medrecords-api/pkg/messaging"
	"github.com/jwalitptl/medrecords-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// Channel every event is published on.
	Channel string
}

type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	// Config validation instead of defaults
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}
	if config.Channel == "" {
		config.Channel = "events"
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "channel", p.config.Channel)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch publishes one batch of due events and records the outcome of
// each in the outbox.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (repository.OutboxResult, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	policy := repository.RetryPolicy{
		MaxAttempts: p.config.RetryAttempts,
		Delay:       p.config.RetryDelay,
	}

	res, err := p.repo.ProcessPending(ctx, p.config.BatchSize, policy, p.publish)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("process_pending_events", "error").Inc()
		return res, fmt.Errorf("failed to process pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("process_pending_events", "success").Inc()

	if res.Processed+res.Retried+res.Failed > 0 {
		p.logger.Debug("Outbox batch done",
			"processed", res.Processed,
			"retried", res.Retried,
			"failed", res.Failed)
	}
	return res, nil
}

func (p *OutboxProcessor) publish(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: messaging.RawJSON(event.Payload),
	}

	if err := p.broker.Publish(ctx, p.config.Channel, msg); err != nil {
		if event.RetryCount+1 >= p.config.RetryAttempts {
			p.metrics.OutboxEventsFailed.Inc()
		} else {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		p.logger.Warn("Failed to publish event",
			"event_id", event.ID.String(),
			"event_type", event.EventType,
			"attempt", event.RetryCount+1,
			"error", err.Error())
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	return nil
}
