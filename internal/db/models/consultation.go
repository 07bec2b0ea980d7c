package models

import "time"

// Consultation is a booking request for an expert consultation about a plant.
type Consultation struct {
	ID      uint64 `gorm:"primaryKey"`
	PlantID int    `gorm:"index;not null"`
	Name    string `gorm:"size:255;not null"`
	Email   string `gorm:"size:255;not null"`
	// AccountID is the signed-in account that booked, if any.
	AccountID string `gorm:"size:36;index"`
	CreatedAt time.Time
}
