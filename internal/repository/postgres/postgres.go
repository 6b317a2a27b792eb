package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dormhub-backend/internal/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.PropertyCatalog
	repository.ReservationRepository
	repository.BookingRepository
	repository.EscrowRepository
	repository.FavoriteRepository
	repository.OutboxRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		PropertyCatalog:       NewPropertyCatalog(db),
		ReservationRepository: NewReservationRepository(db),
		BookingRepository:     NewBookingRepository(db),
		EscrowRepository:      NewEscrowRepository(db),
		FavoriteRepository:    NewFavoriteRepository(db),
		OutboxRepository:      NewOutboxRepository(db),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// withTx runs fn in a transaction and commits when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// lockKey takes a transaction scoped advisory lock so that check-then-insert
// sequences for the same key run one at a time.
func lockKey(ctx context.Context, tx *sql.Tx, scope, key string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, scope+":"+key)
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

func pageArgs(page, pageSize int32) (limit, offset int32) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
