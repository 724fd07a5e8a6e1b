// Package events publishes committed record transitions to Kafka through a
// transactional outbox: the sink writes a row in the same database as the
// record, and a background publisher drains the table.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawcare/partner-api/internal/domain/record"
)

// TopicStatusChanged is the Kafka topic record transitions are published on.
const TopicStatusChanged = "partner.record.status-changed"

// Outbox is a record.EventSink backed by the outbox_event table.
type Outbox struct {
	pool *pgxpool.Pool
}

func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

// RecordStatusChanged enqueues the event for the publisher.
func (o *Outbox) RecordStatusChanged(ctx context.Context, e record.StatusChangedEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = o.pool.Exec(ctx, `
		INSERT INTO outbox_event (topic, key, payload)
		VALUES ($1, $2, $3)`,
		TopicStatusChanged, e.RecordID.String(), payload)
	if err != nil {
		return fmt.Errorf("insert outbox_event: %w", err)
	}
	return nil
}

type outboxRow struct {
	ID        int64
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

func fetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]outboxRow, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, topic, key, payload, created_at
		FROM outbox_event
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []outboxRow
	for rows.Next() {
		var r outboxRow
		if err := rows.Scan(&r.ID, &r.Topic, &r.Key, &r.Payload, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func markPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_event SET published_at = now() WHERE id = ANY($1)`, ids)
	return err
}
