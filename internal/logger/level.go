package logger

import (
	"errors"
	"log/slog"

	"dormhub-backend/internal/domain"
)

var expected = []error{
	domain.ErrNotAuthenticated,
	domain.ErrNotAuthorized,
	domain.ErrNotFound,
	domain.ErrInvalidArgument,
	domain.ErrInvalidTransition,
	domain.ErrDuplicateReservation,
	domain.ErrDuplicateBooking,
	domain.ErrLimitReached,
	domain.ErrPropertyUnavailable,
}

// levelFor keeps caller mistakes and lost races out of the error stream.
func levelFor(err error) slog.Level {
	for _, e := range expected {
		if errors.Is(err, e) {
			return slog.LevelDebug
		}
	}
	return slog.LevelError
}
