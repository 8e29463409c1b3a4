package api

import (
	"net/http"                     // HTTP status codes
	"trip_planner/internal/access" // Permission resolution
	"trip_planner/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// LocationRequest represents a location create or update request
type LocationRequest struct {
	Name      string   `json:"name" binding:"required"`                                          // Display name
	Address   *string  `json:"address"`                                                          // Optional street address
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`                      // Optional latitude
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`                   // Optional longitude
	Type      string   `json:"type" binding:"omitempty,oneof=sight restaurant hotel transport other"` // Location type
}

// ListLocationsHandler returns all locations of a trip, oldest first
func ListLocationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		tripID, ok := uintParam(c, "tripID") // Parse the trip id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip id"})
			return
		}
		// Any member may read locations
		if !access.ResolvePermission(db, userID, tripID).HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		var locations []domain.Location // Fetch the trip's locations
		if err := db.Where("trip_id = ?", tripID).Order("created_at").Find(&locations).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"locations": locations}) // Return the locations
	}
}

// GetLocationHandler returns a single location, resolving access through its owning trip
func GetLocationHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		locationID, ok := uintParam(c, "locationID") // Parse the location id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location id"})
			return
		}
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfLocation(db, locationID)
		if !found || !access.ResolvePermission(db, userID, tripID).HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		var location domain.Location // Fetch the location
		if err := db.First(&location, locationID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"location": location}) // Return the location
	}
}

// CreateLocationHandler adds a location to a trip
func CreateLocationHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		tripID, ok := uintParam(c, "tripID") // Parse the trip id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip id"})
			return
		}
		var req LocationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Resolve the caller's permission on the owning trip
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Viewers may not add locations
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		locationType := req.Type // Location type
		if locationType == "" {
			locationType = "other" // Default type
		}
		// Create the location
		location := domain.Location{
			TripID:    tripID,        // Owning trip
			Name:      req.Name,      // Display name
			Address:   req.Address,   // Optional street address
			Latitude:  req.Latitude,  // Optional latitude
			Longitude: req.Longitude, // Optional longitude
			Type:      locationType,  // Location type
		}
		if err := db.Create(&location).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller user ID
				"trip_id": tripID,      // Trip ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create location") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location"})
			return
		}
		invalidateTripCache(c, tripID, userID)                // Drop stale cache entries
		c.JSON(http.StatusCreated, gin.H{"location": location}) // Return the created location
	}
}

// UpdateLocationHandler replaces the editable fields of a location
func UpdateLocationHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		locationID, ok := uintParam(c, "locationID") // Parse the location id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location id"})
			return
		}
		var req LocationRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfLocation(db, locationID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			// Invisible resources are indistinguishable from missing ones
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		var location domain.Location // Fetch the location to update
		if err := db.First(&location, locationID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		// Apply the replacement
		location.Name = req.Name
		location.Address = req.Address
		location.Latitude = req.Latitude
		location.Longitude = req.Longitude
		if req.Type != "" {
			location.Type = req.Type
		}
		if err := db.Save(&location).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":     userID,      // Caller user ID
				"location_id": locationID,  // Location ID
				"error":       err.Error(), // Error message
			}).Error("Failed to update location") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
			return
		}
		invalidateTripCache(c, tripID, userID)             // Drop stale cache entries
		c.JSON(http.StatusOK, gin.H{"location": location}) // Return the updated location
	}
}

// DeleteLocationHandler removes a location. Activities referencing it keep
// living: their weak reference is cleared in the same transaction, never
// left dangling and never cascaded into an activity delete.
func DeleteLocationHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		locationID, ok := uintParam(c, "locationID") // Parse the location id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location id"})
			return
		}
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfLocation(db, locationID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		// Clear the weak references and remove the location atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			// Null out every activity's reference to this location
			if err := tx.Model(&domain.Activity{}).
				Where("location_id = ?", locationID).
				Update("location_id", nil).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&domain.Location{}, locationID).Error // Delete the location itself
		})
		// Handle transaction result
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":     userID,      // Caller user ID
				"location_id": locationID,  // Location ID
				"error":       err.Error(), // Error message
			}).Error("Location delete failed") // Log deletion failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete location"})
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,     // Caller user ID
			"trip_id":     tripID,     // Owning trip ID
			"location_id": locationID, // Deleted location ID
		}).Info("Location deleted")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		c.Status(http.StatusNoContent)         // Return no content on success
	}
}
