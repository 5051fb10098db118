package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a customer's pending quantity of one food item. TotalPrice is
// accumulated at each mutation from the unit price of that moment.
type CartLine struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string          `json:"customerId" gorm:"uniqueIndex:idx_cart_customer_food;type:varchar(36);not null"`
	FoodID     string          `json:"foodId" gorm:"uniqueIndex:idx_cart_customer_food;type:varchar(36);not null"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
