package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Food is a menu item sold by a restaurant account.
// AverageRating and TotalRatingsCount are written only by the review
// aggregator; OrderCount only by order placement.
type Food struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RestaurantID      string          `json:"restaurantId" gorm:"index;type:varchar(36);not null"`
	Name              string          `json:"name" gorm:"type:varchar(100);not null"`
	Description       string          `json:"description" gorm:"type:varchar(500)"`
	Category          string          `json:"category" gorm:"type:varchar(50)"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	AverageRating     decimal.Decimal `json:"averageRating" gorm:"type:decimal(3,1);not null"`
	TotalRatingsCount int             `json:"totalRatingsCount" gorm:"not null"`
	OrderCount        int             `json:"orderCount" gorm:"not null"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}
