package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEscrowService_Accept(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := newMemStore()
	svc := service.NewEscrowService(memEscrows{store}, service.WithClock(clock.Now))

	p := newProperty()
	caller := tenant(domain.SubscriptionTierFree)
	b, e := store.seedBooking(caller.UserID, p.LandlordID, p.ID, p.RentAmount, clock.Now())

	t.Run("Only The Landlord", func(t *testing.T) {
		_, err := svc.AcceptEscrow(ctx, caller, e.ID)
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("Release Then Already Finalized", func(t *testing.T) {
		clock.Advance(time.Hour)
		view, err := svc.AcceptEscrow(ctx, landlordOf(p), e.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EscrowStatusReleased, view.Status)
		require.Len(t, view.Timeline, 2)
		assert.Equal(t, domain.EscrowStatusHeld, view.Timeline[0].Status)
		assert.Equal(t, domain.EscrowStatusReleased, view.Timeline[1].Status)
		assert.Equal(t, domain.BookingStatusActive, store.bookings[b.ID].Status)

		before := store.escrows[e.ID]
		_, err = svc.AcceptEscrow(ctx, landlordOf(p), e.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
		assert.Equal(t, before, store.escrows[e.ID])

		_, err = svc.DeclineEscrow(ctx, landlordOf(p), e.ID, "changed my mind")
		assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	})
}

func TestEscrowService_Decline(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := newMemStore()
	svc := service.NewEscrowService(memEscrows{store}, service.WithClock(clock.Now))

	p := newProperty()
	caller := tenant(domain.SubscriptionTierFree)
	b, e := store.seedBooking(caller.UserID, p.LandlordID, p.ID, p.RentAmount, clock.Now())

	t.Run("Reason Required", func(t *testing.T) {
		_, err := svc.DeclineEscrow(ctx, landlordOf(p), e.ID, "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Equal(t, domain.EscrowStatusHeld, store.escrows[e.ID].Status)
	})

	t.Run("Refund With Reason", func(t *testing.T) {
		view, err := svc.DeclineEscrow(ctx, landlordOf(p), e.ID, "unit withdrawn")
		require.NoError(t, err)
		assert.Equal(t, domain.EscrowStatusRefunded, view.Status)
		require.NotNil(t, view.RefundReason)
		assert.Equal(t, "unit withdrawn", *view.RefundReason)
		assert.NotNil(t, view.RefundedDate)
		assert.Nil(t, view.ReleasedDate)
		assert.Equal(t, "Refunded to tenant: unit withdrawn", view.Timeline[1].Label)
		assert.Equal(t, domain.BookingStatusRejected, store.bookings[b.ID].Status)
		assert.Contains(t, store.events, domain.EventEscrowRefunded)
	})
}

// Two concurrent accepts on one held escrow produce exactly one release.
func TestEscrowService_ConcurrentAccept(t *testing.T) {
	ctx := context.Background()
	clock := newClock()

	for i := 0; i < 50; i++ {
		store := newMemStore()
		svc := service.NewEscrowService(memEscrows{store}, service.WithClock(clock.Now))
		p := newProperty()
		_, e := store.seedBooking(uuid.New(), p.LandlordID, p.ID, p.RentAmount, clock.Now())

		var (
			wg       sync.WaitGroup
			start    = make(chan struct{})
			errs     = make([]error, 2)
			landlord = landlordOf(p)
		)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				<-start
				_, errs[j] = svc.AcceptEscrow(ctx, landlord, e.ID)
			}(j)
		}
		close(start)
		wg.Wait()

		successes, finalized := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyFinalized):
				finalized++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, finalized)
		assert.Equal(t, domain.EscrowStatusReleased, store.escrows[e.ID].Status)
	}
}

func TestEscrowService_GetAndList(t *testing.T) {
	ctx := context.Background()
	repo := new(MockEscrowRepo)
	svc := service.NewEscrowService(repo)

	p := newProperty()
	caller := tenant(domain.SubscriptionTierFree)
	e := &domain.EscrowTransaction{ID: uuid.New(), TenantID: caller.UserID, LandlordID: p.LandlordID, Status: domain.EscrowStatusHeld}
	repo.On("GetByID", ctx, e.ID).Return(e, nil)

	view, err := svc.GetEscrow(ctx, caller, e.ID)
	require.NoError(t, err)
	assert.Len(t, view.Timeline, 1)

	_, err = svc.GetEscrow(ctx, tenant(domain.SubscriptionTierFree), e.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	repo.On("List", ctx, mock.AnythingOfType("repository.ListFilter")).
		Return([]domain.EscrowTransaction{*e}, int32(1), nil)
	list, total, err := svc.ListEscrows(ctx, landlordOf(p), "", 1, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int32(1), total)
}
