package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/repositories"
	"foodorder/internal/services"
	"foodorder/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

type fixture struct {
	store    *repositories.GORMStore
	notifier *testutil.RecordingNotifier
	mailer   *testutil.StubMailer
	issuer   *services.TokenIssuer
	auth     *services.AuthService
	carts    *services.CartService
	orders   *services.OrderService
	reviews  *services.ReviewService
	foods    *services.FoodService
	address  *services.AddressService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore(t)
	locks := services.NewKeyedMutex()
	f := &fixture{
		store:    store,
		notifier: &testutil.RecordingNotifier{},
		mailer:   &testutil.StubMailer{},
		issuer:   services.NewTokenIssuer(testAccessSecret, testRefreshSecret, 0, 0),
	}
	f.auth = services.NewAuthService(store, f.issuer, f.mailer, services.AuthConfig{})
	f.carts = services.NewCartService(store, locks, time.Second)
	f.orders = services.NewOrderService(store, locks, f.notifier, nil, time.Second)
	f.reviews = services.NewReviewService(store, time.Second)
	f.foods = services.NewFoodService(store, time.Second)
	f.address = services.NewAddressService(store, time.Second)
	return f
}

func principal(u *models.User) services.Principal {
	return services.Principal{ID: u.ID, Role: u.Role}
}

func (f *fixture) customer(t *testing.T) services.Principal {
	t.Helper()
	return principal(testutil.SeedUser(t, f.store, models.RoleCustomer))
}

func (f *fixture) restaurant(t *testing.T) services.Principal {
	t.Helper()
	return principal(testutil.SeedUser(t, f.store, models.RoleRestaurant))
}

// placeOrder fills the cart of customer with qty units of food and checks out.
func (f *fixture) placeOrder(t *testing.T, customer services.Principal, food *models.Food, qty int) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.Upsert(ctx, customer, food.ID, qty)
	require.NoError(t, err)
	order, err := f.orders.PlaceOrder(ctx, customer, "221B Baker Street")
	require.NoError(t, err)
	return order
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func assertAppErr(t *testing.T, want *apperrors.Error, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, want), "want %s, got %v", want.Code, err)
}
