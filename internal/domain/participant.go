package domain

import "time"

// Participant roles. The trip creator is Owner implicitly (by CreatedByID comparison)
// and never has a Participant row of their own.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Participant Model (trip membership)
type Participant struct {
	ID       uint      `gorm:"primaryKey"`                              // Primary key
	TripID   uint      `gorm:"not null;uniqueIndex:uq_trip_user"`       // Foreign key to Trip, one row per (trip, user)
	UserID   uint      `gorm:"not null;uniqueIndex:uq_trip_user;index"` // Foreign key to User
	Role     string    `gorm:"not null;default:viewer"`                 // Role: owner, editor or viewer
	JoinedAt time.Time `gorm:"autoCreateTime"`                          // Timestamp the user was added
	Trip     Trip      `gorm:"constraint:OnDelete:CASCADE" json:"-"`    // Owning trip
	User     User      `json:"-"`                                      // Member user
}
