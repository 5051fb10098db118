package models

import "time"

// Review is a customer's rating of one food item of one order.
type Review struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string    `json:"orderId" gorm:"uniqueIndex:idx_review_order_food;type:varchar(36);not null"`
	FoodID     string    `json:"foodId" gorm:"uniqueIndex:idx_review_order_food;index;type:varchar(36);not null"`
	CustomerID string    `json:"customerId" gorm:"index;type:varchar(36);not null"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    *string   `json:"comment,omitempty" gorm:"type:varchar(1000)"`
	CreatedAt  time.Time `json:"createdAt"`
}
