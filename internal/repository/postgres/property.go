package postgres

import (
	"context"
	"database/sql"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
)

// propertyCatalog reads the catalog's tables; this service never writes them.
type propertyCatalog struct {
	db *sql.DB
}

func NewPropertyCatalog(db *sql.DB) repository.PropertyCatalog {
	return &propertyCatalog{db: db}
}

func (r *propertyCatalog) GetProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	query := `SELECT id, landlord_id, COALESCE(title, ''), rent_amount, allow_reservations, enable_downpayment,
	                 COALESCE(downpayment_amount, 0), is_available
	          FROM properties WHERE id = $1`
	logger.DatabaseCall("SELECT", "properties", "propertyID", id)

	return readWithRetry(ctx, "propertyCatalog.GetProperty", func() (*domain.Property, error) {
		p := &domain.Property{}
		err := r.db.QueryRowContext(ctx, query, id).Scan(
			&p.ID, &p.LandlordID, &p.Title, &p.RentAmount,
			&p.PaymentRules.AllowReservations, &p.PaymentRules.EnableDownpayment,
			&p.PaymentRules.DownpaymentAmount, &p.IsAvailable,
		)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}
