package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
)

type outboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

// enqueueEventTx writes ev into the outbox inside tx so that the event exists
// if and only if the state change that produced it commits.
func enqueueEventTx(ctx context.Context, tx *sql.Tx, ev *domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, routing_key, payload, status, attempts, available_at, created_at)
		 VALUES ($1, $2, $3, 'pending', 0, $4, $4)`,
		ev.ID, string(ev.Type), payload, ev.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue %s event: %w", ev.Type, err)
	}
	return nil
}

func (r *outboxRepository) Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]repository.OutboxMessage, error) {
	logger.EnterMethod("outboxRepository.Claim", "limit", limit)

	query := `
		UPDATE outbox_events
		SET status = 'processing', attempts = attempts + 1, claimed_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE (status = 'pending' AND available_at <= NOW())
			   OR (status = 'processing' AND claimed_at < NOW() - make_interval(secs => $2))
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, routing_key, payload, attempts
	`
	rows, err := r.db.QueryContext(ctx, query, limit, int(staleAfter.Seconds()))
	if err != nil {
		logger.ExitMethodWithError("outboxRepository.Claim", err)
		return nil, err
	}
	defer rows.Close()

	var messages []repository.OutboxMessage
	for rows.Next() {
		var m repository.OutboxMessage
		if err := rows.Scan(&m.ID, &m.RoutingKey, &m.Payload, &m.Attempts); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logger.ExitMethod("outboxRepository.Claim", "claimed", len(messages))
	return messages, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET status = 'published', published_at = NOW(), last_error = NULL WHERE id = $1`, id)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryAfter time.Duration, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events
		 SET status = 'pending', available_at = NOW() + make_interval(secs => $2), last_error = $3
		 WHERE id = $1`,
		id, int(retryAfter.Seconds()), reason)
	return err
}
