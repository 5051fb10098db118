package repositories_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"foodorder/internal/models"
	"foodorder/internal/repositories"
	"foodorder/internal/testutil"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAccountRepository_CreateAndLookup(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	user := &models.User{Email: "a@example.com", PasswordHash: "h", Role: models.RoleCustomer}
	require.NoError(t, store.Accounts().Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	byEmail, err := store.Accounts().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = store.Accounts().GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, repositories.ErrNotFound))

	dup := &models.User{Email: "a@example.com", PasswordHash: "h", Role: models.RoleCustomer}
	err = store.Accounts().Create(ctx, dup)
	assert.True(t, errors.Is(err, repositories.ErrDuplicate))
}

func TestAccountRepository_ConsumeOTPOnlyOnce(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, store, models.RoleCustomer)

	expiry := time.Now().Add(10 * time.Minute)
	require.NoError(t, store.Accounts().SetOTP(ctx, user.ID, models.OTPPurposeReset, "123456", expiry))

	err := store.Accounts().ConsumeOTP(ctx, user.ID, models.OTPPurposeReset, "123456",
		map[string]interface{}{"password_hash": "new-hash"})
	require.NoError(t, err)

	stored, err := store.Accounts().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetOTP)
	assert.Nil(t, stored.ResetOTPExpiry)
	assert.Equal(t, "new-hash", stored.PasswordHash)

	err = store.Accounts().ConsumeOTP(ctx, user.ID, models.OTPPurposeReset, "123456", nil)
	assert.True(t, errors.Is(err, repositories.ErrStaleWrite))
}

func TestCartRepository_ConditionalQuantityUpdate(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	customer := testutil.SeedUser(t, store, models.RoleCustomer)
	restaurant := testutil.SeedUser(t, store, models.RoleRestaurant)
	food := testutil.SeedFood(t, store, restaurant.ID, "10.00")

	line := &models.CartLine{CustomerID: customer.ID, FoodID: food.ID, Quantity: 1, TotalPrice: decimal.RequireFromString("10.00")}
	require.NoError(t, store.Carts().Create(ctx, line))

	line.Quantity = 3
	line.TotalPrice = decimal.RequireFromString("30.00")
	require.NoError(t, store.Carts().UpdateQuantity(ctx, line, 1))

	line.Quantity = 4
	err := store.Carts().UpdateQuantity(ctx, line, 1)
	assert.True(t, errors.Is(err, repositories.ErrStaleWrite))

	stored, err := store.Carts().Get(ctx, customer.ID, food.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity)
	assert.True(t, stored.TotalPrice.Equal(decimal.RequireFromString("30")))

	dup := &models.CartLine{CustomerID: customer.ID, FoodID: food.ID, Quantity: 1, TotalPrice: decimal.RequireFromString("10.00")}
	assert.True(t, errors.Is(store.Carts().Create(ctx, dup), repositories.ErrDuplicate))
}

func TestCartRepository_DeleteLines(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	customer := testutil.SeedUser(t, store, models.RoleCustomer)
	restaurant := testutil.SeedUser(t, store, models.RoleRestaurant)
	foodA := testutil.SeedFood(t, store, restaurant.ID, "1.00")
	foodB := testutil.SeedFood(t, store, restaurant.ID, "2.00")

	var ids []string
	for _, f := range []*models.Food{foodA, foodB} {
		line := &models.CartLine{CustomerID: customer.ID, FoodID: f.ID, Quantity: 1, TotalPrice: f.Price}
		require.NoError(t, store.Carts().Create(ctx, line))
		ids = append(ids, line.ID)
	}

	n, err := store.Carts().DeleteLines(ctx, customer.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.Carts().DeleteLines(ctx, customer.ID, ids)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	err = store.Carts().Delete(ctx, customer.ID, foodA.ID)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestOrderRepository_ListFiltersByParticipantAndStatus(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	customer := testutil.SeedUser(t, store, models.RoleCustomer)
	other := testutil.SeedUser(t, store, models.RoleCustomer)
	restaurant := testutil.SeedUser(t, store, models.RoleRestaurant)

	newOrder := func(customerID string) *models.Order {
		o := &models.Order{
			CustomerID:      customerID,
			RestaurantID:    restaurant.ID,
			DeliveryAddress: "1 Main St",
			TotalPrice:      decimal.RequireFromString("5.00"),
			Status:          models.OrderStatusPending,
			Items: []models.OrderItem{{
				Position: 0, FoodID: "f", Quantity: 1,
				UnitPrice: decimal.RequireFromString("5.00"), LineTotal: decimal.RequireFromString("5.00"),
			}},
		}
		require.NoError(t, store.Orders().Create(ctx, o))
		time.Sleep(2 * time.Millisecond)
		return o
	}
	first := newOrder(customer.ID)
	second := newOrder(customer.ID)
	newOrder(other.ID)

	require.NoError(t, store.Orders().UpdateStatus(ctx, first.ID, models.OrderStatusPending,
		repositories.StatusUpdate{Status: models.OrderStatusCanceled}))

	mine, err := store.Orders().List(ctx, repositories.OrderFilter{ParticipantID: customer.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	assert.Len(t, mine[0].Items, 1)

	pending := models.OrderStatusPending
	filtered, err := store.Orders().List(ctx, repositories.OrderFilter{ParticipantID: customer.ID, Status: &pending})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].ID)

	all, err := store.Orders().List(ctx, repositories.OrderFilter{ParticipantID: restaurant.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOrderRepository_StatusCompareAndSet(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	order := &models.Order{
		CustomerID: "c", RestaurantID: "r", DeliveryAddress: "x",
		TotalPrice: decimal.RequireFromString("1"), Status: models.OrderStatusPending,
	}
	require.NoError(t, store.Orders().Create(ctx, order))

	person := "Rider"
	require.NoError(t, store.Orders().UpdateStatus(ctx, order.ID, models.OrderStatusPending,
		repositories.StatusUpdate{Status: models.OrderStatusAssigned, DeliveryPerson: &person}))

	err := store.Orders().UpdateStatus(ctx, order.ID, models.OrderStatusPending,
		repositories.StatusUpdate{Status: models.OrderStatusCanceled})
	assert.True(t, errors.Is(err, repositories.ErrStaleWrite))

	stored, err := store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAssigned, stored.Status)
	require.NotNil(t, stored.DeliveryPerson)
	assert.Equal(t, "Rider", *stored.DeliveryPerson)

	require.NoError(t, store.Orders().MarkReviewed(ctx, order.ID))
	assert.True(t, errors.Is(store.Orders().MarkReviewed(ctx, order.ID), repositories.ErrStaleWrite))
}

func TestStore_TransactionRollsBack(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	restaurant := testutil.SeedUser(t, store, models.RoleRestaurant)
	food := testutil.SeedFood(t, store, restaurant.ID, "3.00")

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx repositories.Store) error {
		if err := tx.Foods().IncrementOrderCount(ctx, food.ID, 5); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := store.Foods().GetByID(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.OrderCount)
}

func TestAddressRepository_SoftDelete(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	address := &models.CustomerAddress{CustomerID: "c", Name: "Home", Address: "1 Main St"}
	require.NoError(t, store.Addresses().Create(ctx, address))

	require.NoError(t, store.Addresses().Delete(ctx, "c", address.ID))
	assert.True(t, errors.Is(store.Addresses().Delete(ctx, "c", address.ID), repositories.ErrNotFound))

	found, err := store.Addresses().FindIncludingDeleted(ctx, "c", address.ID)
	require.NoError(t, err)
	assert.True(t, found.DeletedAt.Valid)

	list, err := store.Addresses().ListByCustomer(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	out := log.New()
	out.SetOutput(&buf)

	db := testutil.NewDB(t).Session(&gorm.Session{Logger: repositories.NewGormLogger(out)})
	store := repositories.NewGORMStore(db)

	_, err := store.Accounts().GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
	assert.Empty(t, buf.String())

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	assert.Contains(t, buf.String(), "no_such_table")
}
