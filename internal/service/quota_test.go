package service_test

import (
	"context"
	"testing"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuotaService_GetQuota(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	reservations := new(MockReservationRepo)
	favorites := new(MockFavoriteRepo)
	svc := service.NewQuotaService(reservations, favorites, new(MockPropertyCatalog), domain.DefaultQuotaLimits, service.WithClock(clock.Now))

	caller := tenant(domain.SubscriptionTierFree)
	reservations.On("CountActiveByTenant", ctx, caller.UserID, clock.Now()).Return(2, nil)
	favorites.On("Count", ctx, caller.UserID).Return(1, nil)

	snap, err := svc.GetQuota(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.ActiveReservationCount)
	assert.Equal(t, 1, snap.FavoriteCount)
	assert.False(t, snap.CanReserve)
	assert.True(t, snap.CanFavorite)
	require.NotNil(t, snap.Limits)
	assert.Equal(t, 3, snap.Limits.Favorites)
}

func TestQuotaService_AddFavorite(t *testing.T) {
	ctx := context.Background()
	p := newProperty()

	t.Run("Fourth Favorite Denied On Free Tier", func(t *testing.T) {
		favorites := new(MockFavoriteRepo)
		catalog := new(MockPropertyCatalog)
		svc := service.NewQuotaService(new(MockReservationRepo), favorites, catalog, domain.DefaultQuotaLimits)

		caller := tenant(domain.SubscriptionTierFree)
		catalog.On("GetProperty", ctx, p.ID).Return(p, nil)
		favorites.On("Add", ctx, caller.UserID, p.ID).Return(3, nil)

		err := svc.AddFavorite(ctx, caller, p.ID)
		assert.ErrorIs(t, err, domain.ErrLimitReached)
	})

	t.Run("Premium Unlimited", func(t *testing.T) {
		favorites := new(MockFavoriteRepo)
		catalog := new(MockPropertyCatalog)
		svc := service.NewQuotaService(new(MockReservationRepo), favorites, catalog, domain.DefaultQuotaLimits)

		caller := tenant(domain.SubscriptionTierPremium)
		catalog.On("GetProperty", ctx, p.ID).Return(p, nil)
		favorites.On("Add", ctx, caller.UserID, p.ID).Return(40, nil)

		assert.NoError(t, svc.AddFavorite(ctx, caller, p.ID))
	})

	t.Run("Unknown Property", func(t *testing.T) {
		favorites := new(MockFavoriteRepo)
		catalog := new(MockPropertyCatalog)
		svc := service.NewQuotaService(new(MockReservationRepo), favorites, catalog, domain.DefaultQuotaLimits)

		missing := uuid.New()
		catalog.On("GetProperty", ctx, missing).Return(nil, domain.ErrNotFound)

		err := svc.AddFavorite(ctx, tenant(domain.SubscriptionTierFree), missing)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		favorites.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})
}
