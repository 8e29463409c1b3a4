package access

import (
	"trip_planner/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Permission is a user's effective permission level on a trip.
// The levels form a lattice: None < Viewer < Editor < Owner.
type Permission int

// Permission levels, lowest to highest
const (
	PermissionNone   Permission = iota // No access at all
	PermissionViewer                   // Read-only access
	PermissionEditor                   // May edit trip content
	PermissionOwner                    // The creator; may also manage membership and delete the trip
)

// HasAccess reports whether the permission allows reading the trip and its resources
func (p Permission) HasAccess() bool {
	return p != PermissionNone
}

// CanEdit reports whether the permission allows mutating trip content
func (p Permission) CanEdit() bool {
	return p >= PermissionEditor
}

// CanManageMembership reports whether the permission allows adding, removing
// or re-roling participants. Only the trip creator may do so.
func (p Permission) CanManageMembership() bool {
	return p == PermissionOwner
}

// roleToPermission maps a stored participant role to a permission level
func roleToPermission(role string) Permission {
	switch role {
	case domain.RoleOwner:
		return PermissionOwner
	case domain.RoleEditor:
		return PermissionEditor
	case domain.RoleViewer:
		return PermissionViewer
	}
	return PermissionNone // Unknown role grants nothing
}

// ResolvePermission determines the caller's permission level on a trip.
// The creator is Owner by id comparison; everyone else gets the role of their
// Participant row, or None when no row exists. Any lookup failure (missing trip,
// orphaned reference) also resolves to None. The result is computed fresh from
// the database on every call, never cached, since membership can change between requests.
func ResolvePermission(db *gorm.DB, userID, tripID uint) Permission {
	var trip domain.Trip // Fetch the trip to compare the creator id
	if err := db.First(&trip, tripID).Error; err != nil {
		return PermissionNone // Unknown trip resolves to no access
	}
	// The creator is always Owner, with no Participant row backing it
	if trip.CreatedByID == userID {
		return PermissionOwner
	}
	var participant domain.Participant // Look up the membership row
	if err := db.Where("trip_id = ? AND user_id = ?", tripID, userID).First(&participant).Error; err != nil {
		return PermissionNone // No membership row means no access
	}
	return roleToPermission(participant.Role)
}

// TripIDOfLocation resolves the owning trip of a location.
// Returns false when the location does not exist.
func TripIDOfLocation(db *gorm.DB, locationID uint) (uint, bool) {
	var location domain.Location
	if err := db.First(&location, locationID).Error; err != nil {
		return 0, false
	}
	return location.TripID, true
}

// TripIDOfItinerary resolves the owning trip of an itinerary day.
// Returns false when the day does not exist.
func TripIDOfItinerary(db *gorm.DB, itineraryID uint) (uint, bool) {
	var itinerary domain.Itinerary
	if err := db.First(&itinerary, itineraryID).Error; err != nil {
		return 0, false
	}
	return itinerary.TripID, true
}

// TripIDOfActivity resolves the owning trip of an activity by walking
// up through its itinerary day. Returns false when any link of the
// parent chain is missing.
func TripIDOfActivity(db *gorm.DB, activityID uint) (uint, bool) {
	var activity domain.Activity
	if err := db.First(&activity, activityID).Error; err != nil {
		return 0, false
	}
	return TripIDOfItinerary(db, activity.ItineraryID)
}
