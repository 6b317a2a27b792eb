package jobs

import (
	"context"
	"time"

	"dormhub-backend/internal/logger"
)

// ExpireReservations persists expiry for pending holds past their expiry date.
// Reads already relabel them; this keeps stored state and events current.
func (jr *JobRunner) ExpireReservations() {
	jr.runWithRecovery("ExpireReservations", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		batch := jr.config.Reservation.ExpireBatchSize
		total := 0
		for {
			n, err := jr.services.Reservation.ExpireStaleReservations(ctx, batch)
			if err != nil {
				logger.Error("Failed to expire reservations", "error", err, "expiredSoFar", total)
				return
			}
			total += n
			if n < batch {
				break
			}
		}

		if total > 0 {
			logger.Info("Expired stale reservations", "count", total)
		}
	})
}
