package models

import (
	"time"

	"gorm.io/gorm"
)

// CustomerAddress is a saved delivery address. Deletion is soft so a repeated
// delete can be told apart from an unknown id.
type CustomerAddress struct {
	ID         string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID string         `json:"-" gorm:"index;type:varchar(36);not null"`
	Name       string         `json:"name" gorm:"type:varchar(100);not null"`
	Address    string         `json:"address" gorm:"type:varchar(500);not null"`
	CreatedAt  time.Time      `json:"createdAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
