package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrNotFound             = errors.New("not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrDuplicateReservation = errors.New("an active reservation already exists for this property")
	ErrDuplicateBooking     = errors.New("an active booking already exists for this property")
	ErrLimitReached         = errors.New("subscription limit reached")
	ErrPropertyUnavailable  = errors.New("property unavailable")
	ErrInvalidConfiguration = errors.New("invalid property payment configuration")
	ErrAlreadyFinalized     = fmt.Errorf("escrow already finalized: %w", ErrInvalidTransition)
)
