package api

import (
	"net/http"                     // HTTP status codes
	"trip_planner/internal/access" // Permission resolution
	"trip_planner/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// ActivityRequest represents an activity create or update request
type ActivityRequest struct {
	LocationID    *uint    `json:"location_id"`                                        // Optional reference to a location of the same trip
	Title         string   `json:"title" binding:"required"`                           // Activity title
	Description   *string  `json:"description"`                                        // Optional description
	StartTime     *string  `json:"start_time"`                                         // Optional start time, "HH:MM"
	EndTime       *string  `json:"end_time"`                                           // Optional end time, "HH:MM"
	EstimatedCost *float64 `json:"estimated_cost" binding:"omitempty,gte=0"`           // Optional estimated cost
	Priority      string   `json:"priority" binding:"omitempty,oneof=low medium high"` // Priority, defaults to medium
	OrderIndex    int      `json:"order_index"`                                        // Caller-supplied ordering, duplicates allowed
}

// locationBelongsToTrip reports whether a location exists and is owned by the given trip.
// Activities may only reference locations of their own trip.
func locationBelongsToTrip(db *gorm.DB, locationID, tripID uint) bool {
	var location domain.Location
	err := db.Where("id = ? AND trip_id = ?", locationID, tripID).First(&location).Error
	return err == nil
}

// GetActivityHandler returns a single activity, resolving access by walking
// activity -> itinerary day -> trip
func GetActivityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		activityID, ok := uintParam(c, "activityID") // Parse the activity id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity id"})
			return
		}
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfActivity(db, activityID)
		if !found || !access.ResolvePermission(db, userID, tripID).HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}
		var activity domain.Activity // Fetch the activity with its referenced location
		if err := db.Preload("Location").First(&activity, activityID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"activity": activity}) // Return the activity
	}
}

// CreateActivityHandler schedules an activity within an itinerary day
func CreateActivityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		itineraryID, ok := uintParam(c, "itineraryID") // Parse the itinerary id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid itinerary id"})
			return
		}
		var req ActivityRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfItinerary(db, itineraryID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary not found"})
			return
		}
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary not found"})
			return
		}
		// Viewers may not schedule activities
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		// A referenced location must belong to the same trip as the day;
		// a cross-trip reference fails the whole operation.
		if req.LocationID != nil && !locationBelongsToTrip(db, *req.LocationID, tripID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location does not belong to this trip"})
			return
		}
		priority := req.Priority // Priority
		if priority == "" {
			priority = domain.PriorityMedium // Default priority
		}
		// Create the activity. The order index is taken as supplied, duplicates
		// within a day are the caller's intended sequencing.
		activity := domain.Activity{
			ItineraryID:   itineraryID,       // Owning day
			LocationID:    req.LocationID,    // Optional location reference
			Title:         req.Title,         // Activity title
			Description:   req.Description,   // Optional description
			StartTime:     req.StartTime,     // Optional start time
			EndTime:       req.EndTime,       // Optional end time
			EstimatedCost: req.EstimatedCost, // Optional estimated cost
			Priority:      priority,          // Priority
			OrderIndex:    req.OrderIndex,    // Caller-supplied ordering
		}
		if err := db.Create(&activity).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":      userID,      // Caller user ID
				"itinerary_id": itineraryID, // Day ID
				"error":        err.Error(), // Error message
			}).Error("Failed to create activity") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create activity"})
			return
		}
		invalidateTripCache(c, tripID, userID)                   // Drop stale cache entries
		c.JSON(http.StatusCreated, gin.H{"activity": activity}) // Return the created activity
	}
}

// UpdateActivityHandler replaces the editable fields of an activity
func UpdateActivityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		activityID, ok := uintParam(c, "activityID") // Parse the activity id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity id"})
			return
		}
		var req ActivityRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfActivity(db, activityID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		// A referenced location must belong to the same trip; the whole update
		// fails rather than leave a dangling pointer.
		if req.LocationID != nil && !locationBelongsToTrip(db, *req.LocationID, tripID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location does not belong to this trip"})
			return
		}
		var activity domain.Activity // Fetch the activity to update
		if err := db.First(&activity, activityID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}
		priority := req.Priority // Priority
		if priority == "" {
			priority = domain.PriorityMedium // Default priority
		}
		// Apply the replacement
		activity.LocationID = req.LocationID
		activity.Title = req.Title
		activity.Description = req.Description
		activity.StartTime = req.StartTime
		activity.EndTime = req.EndTime
		activity.EstimatedCost = req.EstimatedCost
		activity.Priority = priority
		activity.OrderIndex = req.OrderIndex
		// Save writes every field, including cleared optional ones
		if err := db.Save(&activity).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":     userID,      // Caller user ID
				"activity_id": activityID,  // Activity ID
				"error":       err.Error(), // Error message
			}).Error("Failed to update activity") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update activity"})
			return
		}
		invalidateTripCache(c, tripID, userID)             // Drop stale cache entries
		c.JSON(http.StatusOK, gin.H{"activity": activity}) // Return the updated activity
	}
}

// DeleteActivityHandler removes an activity
func DeleteActivityHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		activityID, ok := uintParam(c, "activityID") // Parse the activity id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid activity id"})
			return
		}
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfActivity(db, activityID)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Activity not found"})
			return
		}
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		// Remove the activity
		if err := db.Delete(&domain.Activity{}, activityID).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":     userID,      // Caller user ID
				"activity_id": activityID,  // Activity ID
				"error":       err.Error(), // Error message
			}).Error("Failed to delete activity") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete activity"})
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"user_id":     userID,     // Caller user ID
			"trip_id":     tripID,     // Owning trip ID
			"activity_id": activityID, // Deleted activity ID
		}).Info("Activity deleted")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		c.Status(http.StatusNoContent)         // Return no content on success
	}
}
