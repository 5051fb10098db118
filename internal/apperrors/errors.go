// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind groups error codes by how a caller should react to them.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
	KindAuth          Kind = "AUTH"
	KindAuthorization Kind = "AUTHORIZATION"
	KindState         Kind = "STATE"
	KindDependency    Kind = "DEPENDENCY"
	KindRateLimit     Kind = "RATE_LIMIT"
)

// Error is a classified application error. Two errors match with errors.Is
// when their codes are equal, so sentinel values below can be compared against
// errors that carry a different message or cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// New builds an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds a VALIDATION error with the generic code.
func Validation(format string, args ...interface{}) *Error {
	return ErrValidation.WithMessage(format, args...)
}

// Dependency wraps a failure of the store, mailer or another collaborator.
// Deadline and cancellation errors keep their own code so callers can tell a
// timeout apart from a hard failure.
func Dependency(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout.WithMessage("%s timed out", op).Wrap(err)
	}
	return ErrDependency.WithMessage("%s failed", op).Wrap(err)
}

// KindOf returns the kind of err, or KindDependency for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

// CodeOf returns the code of err, or "INTERNAL" for unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

var (
	ErrValidation              = New(KindValidation, "VALIDATION_FAILED", "validation failed")
	ErrDeliveryAddressRequired = New(KindValidation, "DELIVERY_ADDRESS_REQUIRED", "Delivery address is required")
	ErrCartEmpty               = New(KindValidation, "CART_EMPTY", "Cart is empty")
	ErrMixedRestaurantCart     = New(KindValidation, "MIXED_RESTAURANT_CART", "all cart items must come from the same restaurant")
	ErrInvalidQuantity         = New(KindValidation, "INVALID_QUANTITY", "quantity must not be zero")
	ErrUnknownStatus           = New(KindValidation, "UNKNOWN_ORDER_STATUS", "unknown order status")

	ErrAccountNotFound  = New(KindNotFound, "ACCOUNT_NOT_FOUND", "User does not exist")
	ErrFoodNotFound     = New(KindNotFound, "FOOD_NOT_FOUND", "food item not found")
	ErrOrderNotFound    = New(KindNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrCartLineNotFound = New(KindNotFound, "CART_LINE_NOT_FOUND", "item not found in the cart")
	ErrAddressNotFound  = New(KindNotFound, "ADDRESS_NOT_FOUND", "Address not found")

	ErrAccountExists         = New(KindConflict, "ACCOUNT_EXISTS", "User already exists")
	ErrAddressAlreadyDeleted = New(KindConflict, "ADDRESS_ALREADY_DELETED", "Address has already been deleted")
	ErrAlreadyReviewed       = New(KindConflict, "ALREADY_REVIEWED", "You have already given a review for this order")
	ErrCartChanged           = New(KindConflict, "CART_CHANGED", "cart changed while it was being updated")
	ErrOrderStatusChanged    = New(KindConflict, "ORDER_STATUS_CHANGED", "order status changed concurrently")
	ErrRatingChanged         = New(KindConflict, "RATING_CHANGED", "food rating changed concurrently")

	ErrUnauthenticated     = New(KindAuth, "UNAUTHENTICATED", "Authorization header is missing")
	ErrTokenExpired        = New(KindAuth, "TOKEN_EXPIRED", "token has expired")
	ErrTokenInvalid        = New(KindAuth, "TOKEN_INVALID", "token is invalid")
	ErrOTPInvalidOrExpired = New(KindAuth, "OTP_INVALID_OR_EXPIRED", "Invalid or expired OTP")
	ErrInvalidCredentials  = New(KindAuth, "INVALID_CREDENTIALS", "invalid email or password")
	ErrAccountUnverified   = New(KindAuth, "ACCOUNT_UNVERIFIED", "Verify your account")
	ErrIncorrectPassword   = New(KindAuth, "INCORRECT_PASSWORD", "Incorrect old password")

	ErrNotAuthorized = New(KindAuthorization, "NOT_AUTHORIZED", "You are not authorized to perform this action")

	ErrAlreadyDelivered  = New(KindState, "ALREADY_DELIVERED", "Order has been already delivered")
	ErrAlreadyCanceled   = New(KindState, "ALREADY_CANCELED", "Order has been canceled already")
	ErrOrderInProgress   = New(KindState, "ORDER_IN_PROGRESS", "Order is being prepared you cannot cancel it now")
	ErrOrderFinalized    = New(KindState, "ORDER_FINALIZED", "order is in a terminal state")
	ErrInvalidTransition = New(KindState, "INVALID_TRANSITION", "invalid order status transition")

	ErrRateLimited = New(KindRateLimit, "RATE_LIMITED", "Too many requests, slow down")

	ErrDependency = New(KindDependency, "DEPENDENCY_FAILED", "dependency failed")
	ErrTimeout    = New(KindDependency, "DEPENDENCY_TIMEOUT", "dependency timed out")
)
