// Package models holds the persisted entities of the food ordering backend.
package models

// All lists every entity for schema migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Food{},
		&CartLine{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&Review{},
		&CustomerAddress{},
	}
}
