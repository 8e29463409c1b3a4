package domain

import "time"

// Trip Model
type Trip struct {
	ID          uint      `gorm:"primaryKey"`                 // Primary key
	Title       string    `gorm:"not null"`                   // Trip title
	StartDate   time.Time `gorm:"not null"`                   // First day of the trip
	EndDate     time.Time `gorm:"not null"`                   // Last day of the trip, never before StartDate
	Description *string   // Optional free-form description
	Budget      float64   `gorm:"not null;default:0"` // Planned budget
	CreatedByID uint      `gorm:"not null;index"`     // Foreign key to the creating User
	CreatedBy   User      `gorm:"foreignKey:CreatedByID"`
	CreatedAt   time.Time `gorm:"autoCreateTime"` // Timestamp of creation
}
