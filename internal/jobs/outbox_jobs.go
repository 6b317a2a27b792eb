package jobs

import (
	"context"
	"time"

	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/metrics"
)

// DispatchOutbox publishes pending outbox events to the broker.
func (jr *JobRunner) DispatchOutbox() {
	jr.runWithRecovery("DispatchOutbox", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		published, failed, err := jr.dispatchOutbox(ctx)
		if err != nil {
			logger.Error("Failed to claim outbox events", "error", err)
			return
		}
		if published > 0 || failed > 0 {
			logger.Info("Outbox dispatched", "published", published, "failed", failed)
		}
	})
}

func (jr *JobRunner) dispatchOutbox(ctx context.Context) (published, failed int, err error) {
	cfg := jr.config.Outbox
	msgs, err := jr.outbox.Claim(ctx, cfg.BatchSize, time.Duration(cfg.StaleAfterSeconds)*time.Second)
	if err != nil {
		return 0, 0, err
	}

	maxDelay := time.Duration(cfg.MaxRetryDelaySeconds) * time.Second
	for _, m := range msgs {
		if pubErr := jr.publisher.Publish(ctx, m.RoutingKey, m.Payload); pubErr != nil {
			failed++
			metrics.OutboxPublished.WithLabelValues("failed").Inc()
			delay := retryDelay(m.Attempts, maxDelay)
			if err := jr.outbox.MarkFailed(ctx, m.ID, delay, pubErr.Error()); err != nil {
				logger.Error("Failed to reschedule outbox event", "eventID", m.ID, "error", err)
			}
			continue
		}
		published++
		metrics.OutboxPublished.WithLabelValues("published").Inc()
		if err := jr.outbox.MarkPublished(ctx, m.ID); err != nil {
			// The row is reclaimed once stale and published again; consumers dedupe on event id.
			logger.Error("Failed to mark outbox event published", "eventID", m.ID, "error", err)
		}
	}
	return published, failed, nil
}

// retryDelay doubles per attempt starting at one second, capped at max.
func retryDelay(attempts int, max time.Duration) time.Duration {
	shift := attempts - 1
	if shift < 0 {
		shift = 0
	}
	// keeps 1<<shift seconds inside time.Duration
	if shift > 30 {
		shift = 30
	}
	d := time.Duration(1<<uint(shift)) * time.Second
	if d > max {
		d = max
	}
	return d
}
