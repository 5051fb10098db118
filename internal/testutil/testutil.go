// Package testutil provides a sqlite backed store and recording doubles for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodorder/internal/models"
	"foodorder/internal/notifications"
	"foodorder/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory sqlite database with the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := repositories.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewStore returns a GORM store over a fresh database.
func NewStore(t *testing.T) *repositories.GORMStore {
	t.Helper()
	return repositories.NewGORMStore(NewDB(t))
}

// SeedUser inserts a verified account of the given role.
func SeedUser(t *testing.T, store repositories.Store, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Name:         string(role) + " user",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Verified:     true,
	}
	require.NoError(t, store.Accounts().Create(context.Background(), user))
	return user
}

// SeedFood inserts a food item of restaurantID priced at price.
func SeedFood(t *testing.T, store repositories.Store, restaurantID, price string) *models.Food {
	t.Helper()
	food := &models.Food{
		RestaurantID: restaurantID,
		Name:         "food " + uuid.New().String()[:8],
		Price:        decimal.RequireFromString(price),
	}
	require.NoError(t, store.Foods().Create(context.Background(), food))
	return food
}

// RecordingNotifier collects order status events.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []notifications.OrderStatusEvent
}

func (n *RecordingNotifier) NotifyOrderStatus(event notifications.OrderStatusEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events returns a copy of the recorded events.
func (n *RecordingNotifier) Events() []notifications.OrderStatusEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifications.OrderStatusEvent, len(n.events))
	copy(out, n.events)
	return out
}

// SentOTP is one mail captured by StubMailer.
type SentOTP struct {
	To      string
	OTP     string
	Purpose models.OTPPurpose
}

// StubMailer records OTP mails and fails with Err when set.
type StubMailer struct {
	mu   sync.Mutex
	Err  error
	sent []SentOTP
}

func (m *StubMailer) SendOTPEmail(_ context.Context, to, otp string, purpose models.OTPPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentOTP{To: to, OTP: otp, Purpose: purpose})
	return nil
}

// Sent returns a copy of the captured mails.
func (m *StubMailer) Sent() []SentOTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentOTP, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recent mail to address, failing the test if none.
func (m *StubMailer) Last(t *testing.T, to string) SentOTP {
	t.Helper()
	sent := m.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].To == to {
			return sent[i]
		}
	}
	require.FailNow(t, "no otp mail sent", "to %s", to)
	return SentOTP{}
}

// FixedClock returns a clock function frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
