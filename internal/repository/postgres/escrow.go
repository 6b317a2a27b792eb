package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const escrowColumns = `e.id, e.booking_id, e.property_id, e.landlord_id, e.tenant_id, e.amount, e.status,
	       e.held_date, e.released_date, e.refunded_date, e.refund_reason`

type escrowRepository struct {
	db *sql.DB
}

func NewEscrowRepository(db *sql.DB) repository.EscrowRepository {
	return &escrowRepository{db: db}
}

func scanEscrow(row rowScanner) (*domain.EscrowTransaction, error) {
	e := &domain.EscrowTransaction{}
	var releasedDate, refundedDate sql.NullTime
	var refundReason sql.NullString
	err := row.Scan(&e.ID, &e.BookingID, &e.PropertyID, &e.LandlordID, &e.TenantID, &e.Amount, &e.Status,
		&e.HeldDate, &releasedDate, &refundedDate, &refundReason)
	if err != nil {
		return nil, err
	}
	e.ReleasedDate = nullTimePtr(releasedDate)
	e.RefundedDate = nullTimePtr(refundedDate)
	e.RefundReason = nullStringPtr(refundReason)
	return e, nil
}

func (r *escrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_transactions e WHERE e.id = $1`
	return readWithRetry(ctx, "escrowRepository.GetByID", func() (*domain.EscrowTransaction, error) {
		return scanEscrow(r.db.QueryRowContext(ctx, query, id))
	})
}

func (r *escrowRepository) Finalize(ctx context.Context, id uuid.UUID, to domain.EscrowStatus, reason *string, bookingStatus domain.BookingStatus, now time.Time) (*domain.EscrowTransaction, error) {
	logger.EnterMethod("escrowRepository.Finalize", "escrowID", id, "to", to, "bookingStatus", bookingStatus)

	if !to.IsFinal() {
		return nil, fmt.Errorf("%w: escrow cannot move to %s", domain.ErrInvalidTransition, to)
	}

	var releasedDate, refundedDate *time.Time
	if to == domain.EscrowStatusReleased {
		releasedDate = &now
	} else {
		refundedDate = &now
	}

	var finalized *domain.EscrowTransaction
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `UPDATE escrow_transactions e
		          SET status = $1, released_date = $2, refunded_date = $3, refund_reason = $4
		          WHERE e.id = $5 AND e.status = $6
		          RETURNING ` + escrowColumns
		logger.DatabaseCall("UPDATE", "escrow_transactions", "escrowID", id, "to", to)
		e, err := scanEscrow(tx.QueryRowContext(ctx, query, to, releasedDate, refundedDate, reason, id, domain.EscrowStatusHeld))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAlreadyFinalized
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = ANY($4)`,
			bookingStatus, now, e.BookingID, pq.Array(domain.LiveBookingStatuses))
		if err != nil {
			return err
		}
		affected, _ := res.RowsAffected()
		logger.DatabaseResult("UPDATE", affected, nil, "bookingID", e.BookingID)
		if affected == 0 {
			return fmt.Errorf("%w: booking %s is no longer live", domain.ErrInvalidTransition, e.BookingID)
		}

		eventType := domain.EventEscrowReleased
		if to == domain.EscrowStatusRefunded {
			eventType = domain.EventEscrowRefunded
		}
		finalized = e
		return enqueueEventTx(ctx, tx, domain.NewEscrowEvent(eventType, e, now))
	})

	if err != nil {
		logger.ExitMethodWithError("escrowRepository.Finalize", err, "escrowID", id)
		return nil, err
	}
	logger.ExitMethod("escrowRepository.Finalize", "escrowID", id, "status", finalized.Status)
	return finalized, nil
}

func (r *escrowRepository) List(ctx context.Context, f repository.ListFilter) ([]domain.EscrowTransaction, int32, error) {
	where, args := partyFilter("e", f)
	limit, offset := pageArgs(f.Page, f.PageSize)

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM escrow_transactions e WHERE `+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM escrow_transactions e WHERE %s ORDER BY e.held_date DESC LIMIT $%d OFFSET $%d`,
		escrowColumns, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var escrows []domain.EscrowTransaction
	for rows.Next() {
		e, err := scanEscrow(rows)
		if err != nil {
			return nil, 0, err
		}
		escrows = append(escrows, *e)
	}
	return escrows, count, rows.Err()
}
