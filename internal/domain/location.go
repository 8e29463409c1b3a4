package domain

import "time"

// Location Model
type Location struct {
	ID        uint      `gorm:"primaryKey"`                  // Primary key
	TripID    uint      `gorm:"not null;index"`              // Foreign key to the owning Trip
	Name      string    `gorm:"not null"`                    // Display name
	Address   *string   // Optional street address
	Latitude  *float64  // Optional latitude, -90..90
	Longitude *float64  // Optional longitude, -180..180
	Type      string    `gorm:"not null;default:other"`      // Location type: sight, restaurant, hotel, transport, other
	CreatedAt time.Time `gorm:"autoCreateTime"`              // Timestamp of creation
	Trip      Trip      `gorm:"constraint:OnDelete:CASCADE" json:"-"` // Owning trip
}
