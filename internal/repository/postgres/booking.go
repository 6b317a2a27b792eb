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

const (
	bookingColumns = `b.id, b.property_id, b.tenant_id, b.landlord_id, b.reservation_id, b.status, b.payment_type,
	       b.rent_amount, b.amount_paid, b.remaining_balance, b.move_in_date, b.duration_months, b.created_at, b.updated_at`
	livePairIndex = "bookings_live_pair_idx"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var reservationID uuid.NullUUID
	err := row.Scan(&b.ID, &b.PropertyID, &b.TenantID, &b.LandlordID, &reservationID, &b.Status, &b.PaymentType,
		&b.RentAmount, &b.AmountPaid, &b.RemainingBalance, &b.MoveInDate, &b.DurationMonths, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reservationID.Valid {
		id := reservationID.UUID
		b.ReservationID = &id
	}
	return b, nil
}

func (r *bookingRepository) CreateWithEscrow(ctx context.Context, b *domain.Booking, e *domain.EscrowTransaction) error {
	logger.EnterMethod("bookingRepository.CreateWithEscrow", "tenantID", b.TenantID, "propertyID", b.PropertyID)

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO bookings (id, property_id, tenant_id, landlord_id, reservation_id, status, payment_type,
		                                rent_amount, amount_paid, remaining_balance, move_in_date, duration_months, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
		logger.DatabaseCall("INSERT", "bookings", "bookingID", b.ID)
		_, err := tx.ExecContext(ctx, query, b.ID, b.PropertyID, b.TenantID, b.LandlordID, b.ReservationID, b.Status,
			b.PaymentType, b.RentAmount, b.AmountPaid, b.RemainingBalance, b.MoveInDate, b.DurationMonths, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err, livePairIndex) {
				return domain.ErrDuplicateBooking
			}
			return err
		}

		query = `INSERT INTO escrow_transactions (id, booking_id, property_id, landlord_id, tenant_id, amount, status, held_date)
		         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		logger.DatabaseCall("INSERT", "escrow_transactions", "escrowID", e.ID)
		if _, err := tx.ExecContext(ctx, query, e.ID, e.BookingID, e.PropertyID, e.LandlordID, e.TenantID,
			e.Amount, e.Status, e.HeldDate); err != nil {
			return err
		}

		return enqueueEventTx(ctx, tx, domain.NewBookingEvent(domain.EventBookingCreated, b, b.CreatedAt))
	})

	if err != nil {
		logger.ExitMethodWithError("bookingRepository.CreateWithEscrow", err, "tenantID", b.TenantID)
		return err
	}
	b.Escrow = e
	logger.ExitMethod("bookingRepository.CreateWithEscrow", "bookingID", b.ID, "escrowID", e.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + `,
	                 e.id, e.amount, e.status, e.held_date, e.released_date, e.refunded_date, e.refund_reason
	          FROM bookings b LEFT JOIN escrow_transactions e ON e.booking_id = b.id
	          WHERE b.id = $1`
	return readWithRetry(ctx, "bookingRepository.GetByID", func() (*domain.Booking, error) {
		var (
			escrowID     uuid.NullUUID
			amount       sql.NullInt64
			status       sql.NullString
			heldDate     sql.NullTime
			releasedDate sql.NullTime
			refundedDate sql.NullTime
			refundReason sql.NullString
		)
		b := &domain.Booking{}
		var reservationID uuid.NullUUID
		err := r.db.QueryRowContext(ctx, query, id).Scan(
			&b.ID, &b.PropertyID, &b.TenantID, &b.LandlordID, &reservationID, &b.Status, &b.PaymentType,
			&b.RentAmount, &b.AmountPaid, &b.RemainingBalance, &b.MoveInDate, &b.DurationMonths, &b.CreatedAt, &b.UpdatedAt,
			&escrowID, &amount, &status, &heldDate, &releasedDate, &refundedDate, &refundReason,
		)
		if err != nil {
			return nil, err
		}
		if reservationID.Valid {
			rid := reservationID.UUID
			b.ReservationID = &rid
		}
		if escrowID.Valid {
			b.Escrow = &domain.EscrowTransaction{
				ID:           escrowID.UUID,
				BookingID:    b.ID,
				PropertyID:   b.PropertyID,
				LandlordID:   b.LandlordID,
				TenantID:     b.TenantID,
				Amount:       amount.Int64,
				Status:       domain.EscrowStatus(status.String),
				HeldDate:     heldDate.Time,
				ReleasedDate: nullTimePtr(releasedDate),
				RefundedDate: nullTimePtr(refundedDate),
				RefundReason: nullStringPtr(refundReason),
			}
		}
		return b, nil
	})
}

func (r *bookingRepository) HasLiveBooking(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE tenant_id = $1 AND property_id = $2 AND status = ANY($3))`
	return readWithRetry(ctx, "bookingRepository.HasLiveBooking", func() (bool, error) {
		var exists bool
		err := r.db.QueryRowContext(ctx, query, tenantID, propertyID, pq.Array(domain.LiveBookingStatuses)).Scan(&exists)
		return exists, err
	})
}

func (r *bookingRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Booking, error) {
	query := `UPDATE bookings b SET status = $1, updated_at = $2
	          WHERE b.id = $3 AND b.status = $4
	          RETURNING ` + bookingColumns
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", id, "to", domain.BookingStatusCompleted)
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, domain.BookingStatusCompleted, now, id, domain.BookingStatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) List(ctx context.Context, f repository.ListFilter) ([]domain.Booking, int32, error) {
	where, args := partyFilter("b", f)
	limit, offset := pageArgs(f.Page, f.PageSize)

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM bookings b WHERE `+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings b WHERE %s ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, count, rows.Err()
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
