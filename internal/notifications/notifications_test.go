package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"foodorder/internal/models"
	"foodorder/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu      sync.Mutex
	results map[string]int
}

func (r *countingRecorder) ObserveNotification(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[string]int{}
	}
	r.results[result]++
}

func TestDispatcher_PublishesInBackground(t *testing.T) {
	var mu sync.Mutex
	var got []notifications.OrderStatusEvent
	publisher := notifications.PublisherFunc(func(ctx context.Context, event notifications.OrderStatusEvent) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event)
		return nil
	})
	recorder := &countingRecorder{}
	d := notifications.NewDispatcher(publisher, time.Second, recorder)

	d.NotifyOrderStatus(notifications.OrderStatusEvent{OrderID: "o1", CustomerID: "c1", Status: models.OrderStatusAssigned})
	d.NotifyOrderStatus(notifications.OrderStatusEvent{OrderID: "o1", CustomerID: "c1", Status: models.OrderStatusDelivered})
	d.Wait()

	assert.Len(t, got, 2)
	assert.Equal(t, 2, recorder.results["success"])
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	publisher := notifications.PublisherFunc(func(context.Context, notifications.OrderStatusEvent) error {
		return errors.New("broker down")
	})
	recorder := &countingRecorder{}
	d := notifications.NewDispatcher(publisher, time.Second, recorder)

	assert.NotPanics(t, func() {
		d.NotifyOrderStatus(notifications.OrderStatusEvent{OrderID: "o1", Status: models.OrderStatusCanceled})
		d.Wait()
	})
	assert.Equal(t, 1, recorder.results["failure"])
}

func TestOrderStatusEvent_Message(t *testing.T) {
	event := notifications.OrderStatusEvent{Status: models.OrderStatusOutForDelivery}
	assert.Equal(t, "Your order status is now: Out for delivery", event.Message())
}

func TestPushClient_Send(t *testing.T) {
	var payload map[string]interface{}
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"n1"}`))
	}))
	defer server.Close()

	client := notifications.NewPushClient(notifications.PushConfig{Endpoint: server.URL, AppID: "app", APIKey: "key"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Send(ctx, notifications.OrderStatusEvent{OrderID: "o1", CustomerID: "c1", Status: models.OrderStatusDelivered})
	require.NoError(t, err)

	assert.Equal(t, "Basic key", auth)
	assert.Equal(t, "app", payload["app_id"])
	assert.Equal(t, []interface{}{"c1"}, payload["include_external_user_ids"])
	contents := payload["contents"].(map[string]interface{})
	assert.Equal(t, "Your order status is now: Delivered", contents["en"])
}

func TestPushClient_RejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["invalid app_id"]}`))
	}))
	defer server.Close()

	client := notifications.NewPushClient(notifications.PushConfig{Endpoint: server.URL})
	err := client.Send(context.Background(), notifications.OrderStatusEvent{OrderID: "o1", CustomerID: "c1", Status: models.OrderStatusPending})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
