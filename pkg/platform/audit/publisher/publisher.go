// Package publisher emits audit events with fail-closed semantics.
//
// Events are written to the audit store synchronously. With the outbox-backed
// store and a transaction in the context, the event commits together with the
// change it describes. If the write fails an error is returned and the calling
// operation must fail.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	audit "grunnlag/pkg/platform/audit"
)

// Publisher writes audit events to a Store.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a publisher. The store should be outbox-backed for
// guaranteed delivery.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var errMissingAction = errors.New("audit event requires Action")

// Emit synchronously writes event. The category is derived from the action
// and the timestamp defaults to now.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()
	if event.Action == "" {
		return errMissingAction
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = start
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures(event.Category)
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit event persistence failed",
				"action", event.Action,
				"aggregate_type", event.AggregateType,
				"aggregate_id", event.AggregateID,
				"error", err,
			)
		}
		return err
	}

	p.metrics.ObservePersistDuration(time.Since(start))
	p.metrics.IncEventsEmitted(event.Category)
	return nil
}
