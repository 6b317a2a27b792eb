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
	reservationColumns = `r.id, r.property_id, r.tenant_id, r.landlord_id, r.status, COALESCE(r.message, ''),
	       COALESCE(r.rejection_reason, ''), r.created_at, r.expiry_date, r.updated_at`
	reservationReturning = `id, property_id, tenant_id, landlord_id, status, COALESCE(message, ''),
	       COALESCE(rejection_reason, ''), created_at, expiry_date, updated_at`
	activePairIndex = "reservations_active_pair_idx"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func scanReservation(row rowScanner, withBooking bool) (*domain.Reservation, error) {
	r := &domain.Reservation{}
	dest := []any{&r.ID, &r.PropertyID, &r.TenantID, &r.LandlordID, &r.Status, &r.Message,
		&r.RejectionReason, &r.CreatedAt, &r.ExpiryDate, &r.UpdatedAt}
	if withBooking {
		dest = append(dest, &r.HasBooking)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation, now time.Time, check repository.CountCheck) error {
	logger.EnterMethod("reservationRepository.Create", "tenantID", res.TenantID, "propertyID", res.PropertyID)

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockKey(ctx, tx, "reservation", res.TenantID.String()); err != nil {
			return err
		}

		// Stale holds must not count against the quota or block the pair.
		if _, err := expireStaleTx(ctx, tx, `tenant_id = $2 AND`, now, res.TenantID); err != nil {
			return err
		}

		// A retry of a held pair is a duplicate even for a tenant at the limit.
		var held bool
		if err := tx.QueryRowContext(ctx, pairHeldQuery, res.TenantID, res.PropertyID).Scan(&held); err != nil {
			return err
		}
		if held {
			return domain.ErrDuplicateReservation
		}

		count, err := countActiveTx(ctx, tx, res.TenantID, now)
		if err != nil {
			return err
		}
		if err := check(count); err != nil {
			return err
		}

		query := `INSERT INTO reservations (id, property_id, tenant_id, landlord_id, status, message, created_at, expiry_date, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		logger.DatabaseCall("INSERT", "reservations", "reservationID", res.ID)
		_, err = tx.ExecContext(ctx, query, res.ID, res.PropertyID, res.TenantID, res.LandlordID, res.Status,
			res.Message, res.CreatedAt, res.ExpiryDate, res.UpdatedAt)
		logger.DatabaseResult("INSERT", 1, err, "reservationID", res.ID)
		if err != nil {
			if isUniqueViolation(err, activePairIndex) {
				return domain.ErrDuplicateReservation
			}
			return err
		}

		return enqueueEventTx(ctx, tx, domain.NewReservationEvent(domain.EventReservationCreated, res, now))
	})

	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Create", err, "tenantID", res.TenantID)
		return err
	}
	logger.ExitMethod("reservationRepository.Create", "reservationID", res.ID)
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + `,
	                 EXISTS (SELECT 1 FROM bookings b WHERE b.tenant_id = r.tenant_id AND b.property_id = r.property_id AND b.status = ANY($2))
	          FROM reservations r WHERE r.id = $1`
	return readWithRetry(ctx, "reservationRepository.GetByID", func() (*domain.Reservation, error) {
		return scanReservation(r.db.QueryRowContext(ctx, query, id, pq.Array(domain.LiveBookingStatuses)), true)
	})
}

func (r *reservationRepository) Transition(ctx context.Context, id uuid.UUID, to domain.ReservationStatus, reason string, now time.Time) (*domain.Reservation, error) {
	logger.EnterMethod("reservationRepository.Transition", "reservationID", id, "to", to)

	sources := domain.ReservationSourcesFor(to)
	if len(sources) == 0 || to == domain.ReservationStatusExpired {
		return nil, fmt.Errorf("%w: cannot move reservation to %s", domain.ErrInvalidTransition, to)
	}

	var updated *domain.Reservation
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `UPDATE reservations
		          SET status = $1, rejection_reason = NULLIF($2, ''), updated_at = $3
		          WHERE id = $4 AND status = ANY($5) AND (status <> 'pending' OR expiry_date >= $3)
		          RETURNING ` + reservationReturning
		logger.DatabaseCall("UPDATE", "reservations", "reservationID", id, "to", to)
		res, err := scanReservation(tx.QueryRowContext(ctx, query, to, reason, now, id, pq.Array(sources)), false)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInvalidTransition
		}
		if err != nil {
			return err
		}
		updated = res
		return enqueueEventTx(ctx, tx, domain.NewReservationEvent(to.Event(), res, now))
	})

	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Transition", err, "reservationID", id)
		return nil, err
	}
	logger.ExitMethod("reservationRepository.Transition", "reservationID", id, "status", updated.Status)
	return updated, nil
}

func (r *reservationRepository) Expire(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Reservation, error) {
	var expired []domain.Reservation
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		expired, err = expireStaleTx(ctx, tx, `id = $2 AND`, now, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, domain.ErrInvalidTransition
	}
	return &expired[0], nil
}

func (r *reservationRepository) ExpireStale(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	logger.EnterMethod("reservationRepository.ExpireStale", "limit", limit)

	var expired []domain.Reservation
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		expired, err = expireStaleTx(ctx, tx,
			`id IN (SELECT id FROM reservations WHERE status = 'pending' AND expiry_date < $1 ORDER BY expiry_date LIMIT $2 FOR UPDATE SKIP LOCKED) AND`,
			now, limit)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.ExpireStale", err)
		return nil, err
	}
	logger.ExitMethod("reservationRepository.ExpireStale", "expired", len(expired))
	return expired, nil
}

// expireStaleTx marks pending holds past their expiry as expired and enqueues
// one reservation.expired event per row. scope is an extra predicate using $2.
func expireStaleTx(ctx context.Context, tx *sql.Tx, scope string, now time.Time, arg any) ([]domain.Reservation, error) {
	query := `UPDATE reservations SET status = 'expired', updated_at = $1
	          WHERE ` + scope + ` status = 'pending' AND expiry_date < $1
	          RETURNING ` + reservationReturning
	rows, err := tx.QueryContext(ctx, query, now, arg)
	if err != nil {
		return nil, err
	}

	var expired []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows, false)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, *res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range expired {
		if err := enqueueEventTx(ctx, tx, domain.NewReservationEvent(domain.EventReservationExpired, &expired[i], now)); err != nil {
			return nil, err
		}
	}
	return expired, nil
}

const pairHeldQuery = `
	SELECT EXISTS (SELECT 1 FROM reservations
	               WHERE tenant_id = $1 AND property_id = $2 AND status IN ('pending', 'approved'))`

// countActiveQuery counts holds that still take a quota slot. An active hold
// with a live booking reads as completed and no longer counts.
const countActiveQuery = `
	SELECT count(*) FROM reservations r
	WHERE r.tenant_id = $1
	  AND (r.status = 'approved' OR (r.status = 'pending' AND r.expiry_date >= $2))
	  AND NOT EXISTS (
	      SELECT 1 FROM bookings b
	      WHERE b.tenant_id = r.tenant_id AND b.property_id = r.property_id AND b.status = ANY($3))`

func countActiveTx(ctx context.Context, tx *sql.Tx, tenantID uuid.UUID, now time.Time) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx, countActiveQuery, tenantID, now, pq.Array(domain.LiveBookingStatuses)).Scan(&count)
	return count, err
}

func (r *reservationRepository) CountActiveByTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) (int, error) {
	return readWithRetry(ctx, "reservationRepository.CountActiveByTenant", func() (int, error) {
		var count int
		err := r.db.QueryRowContext(ctx, countActiveQuery, tenantID, now, pq.Array(domain.LiveBookingStatuses)).Scan(&count)
		return count, err
	})
}

func (r *reservationRepository) List(ctx context.Context, f repository.ListFilter) ([]domain.Reservation, int32, error) {
	where, args := reservationListFilter(f)
	limit, offset := pageArgs(f.Page, f.PageSize)

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM reservations r WHERE `+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	args = append(args, pq.Array(domain.LiveBookingStatuses), limit, offset)
	n := len(args)
	query := fmt.Sprintf(`SELECT %s, %s
	          FROM reservations r WHERE %s
	          ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`, reservationColumns, liveBookingExists(n-2), where, n-1, n)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows, true)
		if err != nil {
			return nil, 0, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, count, rows.Err()
}

func liveBookingExists(arg int) string {
	return fmt.Sprintf(`EXISTS (SELECT 1 FROM bookings b
	                 WHERE b.tenant_id = r.tenant_id AND b.property_id = r.property_id AND b.status = ANY($%d))`, arg)
}

// reservationListFilter matches the status a reader would see after lazy
// expiry and booking completion, so that filtered pages and totals agree
// with the relabelled rows. Only parameters the predicate uses are bound.
func reservationListFilter(f repository.ListFilter) (string, []any) {
	where, args := partyFilter("r", repository.ListFilter{TenantID: f.TenantID, LandlordID: f.LandlordID})
	if f.Status == "" {
		return where, args
	}

	live := func() string {
		args = append(args, pq.Array(domain.LiveBookingStatuses))
		return liveBookingExists(len(args))
	}
	asOf := func() string {
		args = append(args, f.AsOf)
		return fmt.Sprintf("$%d", len(args))
	}

	switch domain.ReservationStatus(f.Status) {
	case domain.ReservationStatusCompleted:
		where += " AND r.status IN ('pending', 'approved') AND " + live()
	case domain.ReservationStatusExpired:
		where += fmt.Sprintf(" AND (r.status = 'expired' OR (r.status = 'pending' AND r.expiry_date < %s AND NOT %s))", asOf(), live())
	case domain.ReservationStatusPending:
		where += fmt.Sprintf(" AND r.status = 'pending' AND r.expiry_date >= %s AND NOT %s", asOf(), live())
	case domain.ReservationStatusApproved:
		where += " AND r.status = 'approved' AND NOT " + live()
	default:
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	return where, args
}

// partyFilter builds the role scoped WHERE clause shared by the list queries.
func partyFilter(alias string, f repository.ListFilter) (string, []any) {
	where := "TRUE"
	var args []any
	if f.TenantID != nil {
		args = append(args, *f.TenantID)
		where += fmt.Sprintf(" AND %s.tenant_id = $%d", alias, len(args))
	}
	if f.LandlordID != nil {
		args = append(args, *f.LandlordID)
		where += fmt.Sprintf(" AND %s.landlord_id = $%d", alias, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND %s.status = $%d", alias, len(args))
	}
	return where, args
}
