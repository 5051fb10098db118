package notifications

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ResultRecorder counts dispatch outcomes.
type ResultRecorder interface {
	ObserveNotification(result string)
}

// Dispatcher publishes events without blocking the caller. Failures are
// logged and counted but never returned.
type Dispatcher struct {
	publisher Publisher
	timeout   time.Duration
	recorder  ResultRecorder
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. recorder may be nil.
func NewDispatcher(publisher Publisher, timeout time.Duration, recorder ResultRecorder) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{publisher: publisher, timeout: timeout, recorder: recorder}
}

// NotifyOrderStatus publishes event in its own goroutine.
func (d *Dispatcher) NotifyOrderStatus(event OrderStatusEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatch(event)
	}()
}

func (d *Dispatcher) dispatch(event OrderStatusEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	entry := log.WithFields(log.Fields{
		"order_id":    event.OrderID,
		"customer_id": event.CustomerID,
		"status":      event.Status,
	})
	if err := d.publisher.PublishOrderStatus(ctx, event); err != nil {
		entry.WithError(err).Warn("order status notification failed")
		d.observe("failure")
		return
	}
	entry.Debug("order status notification published")
	d.observe("success")
}

func (d *Dispatcher) observe(result string) {
	if d.recorder != nil {
		d.recorder.ObserveNotification(result)
	}
}

// Wait blocks until every pending dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
