// Package statemachine holds the order lifecycle transition table.
package statemachine

import (
	"strings"

	"foodorder/internal/apperrors"
	"foodorder/internal/models"
)

// Transition is one allowed status change and the role that may perform it.
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.Role
}

var validTransitions = []Transition{
	// Customer may only withdraw an order nobody has started on.
	{From: models.OrderStatusPending, To: models.OrderStatusCanceled, Actor: models.RoleCustomer},

	{From: models.OrderStatusPending, To: models.OrderStatusAssigned, Actor: models.RoleRestaurant},
	{From: models.OrderStatusAssigned, To: models.OrderStatusOutForDelivery, Actor: models.RoleRestaurant},
	{From: models.OrderStatusOutForDelivery, To: models.OrderStatusDelivered, Actor: models.RoleRestaurant},

	{From: models.OrderStatusPending, To: models.OrderStatusCanceled, Actor: models.RoleRestaurant},
	{From: models.OrderStatusAssigned, To: models.OrderStatusCanceled, Actor: models.RoleRestaurant},
	{From: models.OrderStatusOutForDelivery, To: models.OrderStatusCanceled, Actor: models.RoleRestaurant},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.Role
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns the distinct statuses reachable from status by
// any actor.
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks whether actor may move an order from one status to
// another. Leaving a terminal status yields ErrOrderFinalized, any other
// disallowed edge ErrInvalidTransition.
func CanTransition(from, to models.OrderStatus, actor models.Role) error {
	if !to.Valid() {
		return apperrors.ErrUnknownStatus.WithMessage("unknown order status %q", to)
	}
	if from.Terminal() {
		return apperrors.ErrOrderFinalized.WithMessage("order is already %s", from.Label())
	}
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return apperrors.ErrInvalidTransition.WithMessage(
		"invalid transition: %s -> %s is not allowed for %s. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
