package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/college-ledger-api/pkg/jobs"
)

// EventDispatcherConfig sizes the background delivery of domain events.
type EventDispatcherConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// EventDispatcher hands committed domain events to a worker pool so the request
// that produced them never waits on the broker. It implements EventPublisher.
type EventDispatcher struct {
	queue     *jobs.Queue
	publisher EventPublisher
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventDispatcher wraps publisher with retrying background delivery.
func NewEventDispatcher(publisher EventPublisher, cfg EventDispatcherConfig, metrics *MetricsService, logger *zap.Logger) *EventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &EventDispatcher{publisher: publisher, metrics: metrics, logger: logger}
	d.queue = jobs.NewQueue("domain-events", d.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		OnDrop:     d.dropped,
		Logger:     logger,
	})
	return d
}

// Start launches the delivery workers.
func (d *EventDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes buffered events until ctx expires.
func (d *EventDispatcher) Stop(ctx context.Context) {
	d.queue.Stop(ctx)
}

// Publish queues an event. An error means the event was not accepted.
func (d *EventDispatcher) Publish(_ context.Context, eventType string, payload interface{}) error {
	return d.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: eventType, Payload: payload})
}

func (d *EventDispatcher) deliver(ctx context.Context, job jobs.Job) error {
	return d.publisher.Publish(ctx, job.Type, job.Payload)
}

func (d *EventDispatcher) dropped(job jobs.Job, err error) {
	d.metrics.RecordEventFailure(job.Type)
	d.logger.Error("domain event dropped", zap.String("event", job.Type), zap.String("event_id", job.ID), zap.Error(err))
}
