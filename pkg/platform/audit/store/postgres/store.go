package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "grunnlag/pkg/platform/audit"
	txcontext "grunnlag/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the
// outbox relay. When the context carries a transaction the event commits
// or rolls back together with the change it describes.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID            string            `json:"id"`
	Category      string            `json:"category"`
	Timestamp     string            `json:"timestamp"`
	Action        string            `json:"action"`
	AggregateType string            `json:"aggregateType"`
	AggregateID   string            `json:"aggregateId"`
	Subject       string            `json:"subject,omitempty"`
	ActorID       string            `json:"actorId,omitempty"`
	RequestID     string            `json:"requestId,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Detail        map[string]string `json:"detail,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Category always follows the action
	category := audit.AuditEvent(event.Action).Category()

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	aggregateType := event.AggregateType
	aggregateID := event.AggregateID
	if aggregateType == "" {
		aggregateType = "audit"
		aggregateID = eventID.String()
	}

	payloadBytes, err := json.Marshal(outboxPayload{
		ID:            eventID.String(),
		Category:      string(category),
		Timestamp:     timestamp.UTC().Format(time.RFC3339Nano),
		Action:        event.Action,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Subject:       event.Subject,
		ActorID:       event.ActorID,
		RequestID:     event.RequestID,
		Reason:        event.Reason,
		Detail:        event.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// RelayBatch claims up to limit unpublished entries, hands them to publish
// and marks them published when publish succeeds. Claimed rows are locked
// with SKIP LOCKED so several relays can run side by side. Returns the
// number of entries relayed.
func (s *Store) RelayBatch(ctx context.Context, limit int, publish func(context.Context, []audit.OutboxEntry) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox relay: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("query outbox: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := publish(ctx, entries); err != nil {
		return 0, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE outbox SET published_at = $2 WHERE id = ANY($1::uuid[])
	`, pq.Array(ids), time.Now()); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox relay: %w", err)
	}
	return len(entries), nil
}

func scanEntries(rows *sql.Rows) ([]audit.OutboxEntry, error) {
	defer rows.Close()
	var entries []audit.OutboxEntry
	for rows.Next() {
		var e audit.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}
