package domain

import "time"

// Itinerary Model (one planned day within a trip)
type Itinerary struct {
	ID        uint      `gorm:"primaryKey"`                        // Primary key
	TripID    uint      `gorm:"not null;uniqueIndex:uq_trip_day"`  // Foreign key to Trip
	DayNumber int       `gorm:"not null;uniqueIndex:uq_trip_day"`  // Day number, unique within a trip, immutable after creation
	Date      time.Time `gorm:"not null"`                          // Calendar date of the day
	Notes     *string   // Optional notes
	Trip      Trip      `gorm:"constraint:OnDelete:CASCADE" json:"-"` // Owning trip
}
