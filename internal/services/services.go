package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
	"foodorder/internal/notifications"

	"github.com/go-playground/validator/v10"
)

// DefaultStoreTimeout bounds a single store operation when no timeout is
// configured.
const DefaultStoreTimeout = 5 * time.Second

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
}

// StatusNotifier receives order status changes. Implementations must not
// block the caller.
type StatusNotifier interface {
	NotifyOrderStatus(event notifications.OrderStatusEvent)
}

// OrderRecorder counts order lifecycle events.
type OrderRecorder interface {
	OrderPlaced()
	OrderTransition(status string)
}

// classify keeps already classified errors and wraps anything else as a
// dependency failure of op.
func classify(op string, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Dependency(op, err)
}

func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// KeyedMutex serialises work per key. Entries are dropped once no goroutine
// holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock acquires the lock of key and returns its release function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// NewValidator returns a validator naming fields after their json tag and
// knowing the notfuture rule for dates.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.After(time.Now())
	})
	return v
}

// ValidationError turns validator output into a VALIDATION error naming the
// first failing field.
func ValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation("%v", err)
	}
	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", fe.Field())
	case "email":
		msg = "Email is not valid"
	case "min":
		if fe.Kind() == reflect.String {
			msg = fmt.Sprintf("%s should be minimum %s characters long", fe.Field(), fe.Param())
		} else {
			msg = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		}
	case "gt":
		msg = fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "notfuture":
		msg = fmt.Sprintf("%s should not be in the future", fe.Field())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return apperrors.Validation("%s", msg).Wrap(err)
}
