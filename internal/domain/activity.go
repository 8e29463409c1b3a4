package domain

import "time"

// Activity priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Activity Model
type Activity struct {
	ID            uint      `gorm:"primaryKey"`     // Primary key
	ItineraryID   uint      `gorm:"not null;index"` // Foreign key to the owning Itinerary day
	LocationID    *uint     `gorm:"index"`          // Weak reference to a Location of the same trip, cleared when the location is deleted
	Title         string    `gorm:"not null"`       // Activity title
	Description   *string   // Optional description
	StartTime     *string   // Optional start time, "HH:MM"
	EndTime       *string   // Optional end time, "HH:MM"
	EstimatedCost *float64  // Optional estimated cost
	Priority      string    `gorm:"not null;default:medium"` // Priority: low, medium or high
	OrderIndex    int       `gorm:"not null;default:0"`      // Caller-supplied ordering within the day, duplicates allowed
	CreatedAt     time.Time `gorm:"autoCreateTime"`          // Timestamp of creation
	Itinerary     Itinerary `gorm:"constraint:OnDelete:CASCADE" json:"-"`          // Owning itinerary day
	Location      *Location `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"` // Referenced location, never owned
}
