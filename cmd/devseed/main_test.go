package main

import (
	"context"
	"testing"

	"dormhub-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulateProperties(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id, landlord := uuid.New(), uuid.New()
	closed := false
	props := []SeedProperty{{
		ID: id.String(), LandlordID: landlord.String(), Title: "Studio near campus",
		RentAmount: 1500000, EnableDownpayment: true, DownpaymentAmount: 500000, IsAvailable: &closed,
	}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO properties").
		WithArgs(id, landlord, "Studio near campus", int64(1500000), true, true, int64(500000), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, populateProperties(context.Background(), db, props))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPopulateProperties_BadIDRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = populateProperties(context.Background(), db, []SeedProperty{{ID: "x", LandlordID: uuid.NewString()}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedUserToDomain(t *testing.T) {
	id := uuid.New()
	u, err := SeedUser{ID: id.String(), Email: "a@b.c", Role: "student", Tier: "gold"}.toDomain()
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionTierFree, u.Tier)
	assert.Equal(t, domain.UserRoleStudent, u.Role)

	_, err = SeedUser{ID: id.String(), Role: "janitor"}.toDomain()
	assert.Error(t, err)
}
