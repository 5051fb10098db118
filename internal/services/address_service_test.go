package services_test

import (
	"context"
	"testing"

	"foodorder/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t)

	_, err := f.address.AddAddress(ctx, customer, "Home", " ")
	assertAppErr(t, apperrors.ErrValidation, err)
	_, err = f.address.AddAddress(ctx, f.restaurant(t), "Home", "1 Main St")
	assertAppErr(t, apperrors.ErrNotAuthorized, err)

	home, err := f.address.AddAddress(ctx, customer, "Home", "1 Main St")
	require.NoError(t, err)
	_, err = f.address.AddAddress(ctx, customer, "Work", "2 Side St")
	require.NoError(t, err)

	list, err := f.address.ListAddresses(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, f.address.DeleteAddress(ctx, customer, home.ID))
	assertAppErr(t, apperrors.ErrAddressAlreadyDeleted, f.address.DeleteAddress(ctx, customer, home.ID))
	assertAppErr(t, apperrors.ErrAddressNotFound, f.address.DeleteAddress(ctx, customer, "never-existed"))
	assertAppErr(t, apperrors.ErrAddressNotFound, f.address.DeleteAddress(ctx, f.customer(t), home.ID))

	list, err = f.address.ListAddresses(ctx, customer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Work", list[0].Name)
}

