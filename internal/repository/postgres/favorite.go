package postgres

import (
	"context"
	"database/sql"

	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/repository"

	"github.com/google/uuid"
)

type favoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) repository.FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	return readWithRetry(ctx, "favoriteRepository.Count", func() (int, error) {
		var count int
		err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM favorites WHERE user_id = $1`, userID).Scan(&count)
		return count, err
	})
}

// Add is a no-op for a property that is already a favorite.
func (r *favoriteRepository) Add(ctx context.Context, userID, propertyID uuid.UUID, check repository.CountCheck) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockKey(ctx, tx, "favorite", userID.String()); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND property_id = $2)`,
			userID, propertyID).Scan(&exists)
		if err != nil || exists {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM favorites WHERE user_id = $1`, userID).Scan(&count); err != nil {
			return err
		}
		if err := check(count); err != nil {
			return err
		}

		logger.DatabaseCall("INSERT", "favorites", "userID", userID, "propertyID", propertyID)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO favorites (user_id, property_id, created_at) VALUES ($1, $2, NOW())`, userID, propertyID)
		return err
	})
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, propertyID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND property_id = $2`, userID, propertyID)
	return err
}
