// Package worker relays audit events from the outbox table to Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	audit "grunnlag/pkg/platform/audit"
)

// OutboxSource hands out unpublished outbox entries. The postgres audit store
// implements it.
type OutboxSource interface {
	RelayBatch(ctx context.Context, limit int, publish func(context.Context, []audit.OutboxEntry) error) (int, error)
}

// Sink receives relayed entries, normally a Kafka topic.
type Sink interface {
	PublishEntries(ctx context.Context, entries []audit.OutboxEntry) error
}

// Relay polls the outbox and forwards entries in creation order.
type Relay struct {
	source    OutboxSource
	sink      Sink
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(source OutboxSource, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		sink:      sink,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Full batches are drained back to back;
// otherwise the relay waits for the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
				break
			}
			if n < r.batchSize {
				break
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce forwards a single batch and returns how many entries it moved.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	return r.source.RelayBatch(ctx, r.batchSize, r.sink.PublishEntries)
}
