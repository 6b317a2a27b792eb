package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
)

const maxReadRetries = 3

// readWithRetry retries idempotent reads on connection level failures.
// Writes must never go through here.
func readWithRetry[T any](ctx context.Context, operation string, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second

	attempt := 0
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		v, err := op()
		if err == nil {
			return v, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return v, backoff.Permanent(domain.ErrNotFound)
		}
		if !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		logger.Warn("Transient read failure, retrying", "operation", operation, "attempt", attempt, "error", err)
		return v, err
	}, backoff.WithContext(backoff.WithMaxRetries(b, maxReadRetries), ctx))
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08: connection exception. 57P01: admin shutdown.
		return pqErr.Code.Class() == "08" || pqErr.Code == "57P01"
	}
	return false
}
