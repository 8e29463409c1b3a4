package api

import (
	"net/http"                     // HTTP status codes
	"time"                         // Time for calendar dates
	"trip_planner/internal/access" // Permission resolution
	"trip_planner/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CreateItineraryRequest represents a request to plan a new day
type CreateItineraryRequest struct {
	DayNumber int       `json:"day_number" binding:"required,gte=1"` // Day number, unique within the trip
	Date      time.Time `json:"date" binding:"required"`             // Calendar date
	Notes     *string   `json:"notes"`                               // Optional notes
}

// UpdateItineraryRequest changes date and notes only. The day number is
// immutable after creation.
type UpdateItineraryRequest struct {
	Date  time.Time `json:"date" binding:"required"` // Calendar date
	Notes *string   `json:"notes"`                   // Optional notes
}

// ItineraryResponse is a planned day with its activities in caller order
type ItineraryResponse struct {
	ID         uint              `json:"id"`         // Itinerary day ID
	TripID     uint              `json:"trip_id"`    // Owning trip ID
	DayNumber  int               `json:"day_number"` // Day number within the trip
	Date       time.Time         `json:"date"`       // Calendar date
	Notes      *string           `json:"notes"`      // Optional notes
	Activities []domain.Activity `json:"activities"` // Activities ordered by order index
}

// itineraryToResponse loads a day's activities ordered by the caller-supplied index
func itineraryToResponse(db *gorm.DB, itinerary *domain.Itinerary) ItineraryResponse {
	var activities []domain.Activity
	db.Where("itinerary_id = ?", itinerary.ID).Order("order_index").Find(&activities)
	return ItineraryResponse{
		ID:         itinerary.ID,        // Itinerary day ID
		TripID:     itinerary.TripID,    // Owning trip ID
		DayNumber:  itinerary.DayNumber, // Day number
		Date:       itinerary.Date,      // Calendar date
		Notes:      itinerary.Notes,     // Optional notes
		Activities: activities,          // Ordered activities
	}
}

// ListItinerariesHandler returns every planned day of a trip, ordered by day number
func ListItinerariesHandler(db *gorm.DB) gin.HandlerFunc {
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
		// Any member may read the itinerary
		if !access.ResolvePermission(db, userID, tripID).HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		var itineraries []domain.Itinerary // Fetch the planned days
		if err := db.Where("trip_id = ?", tripID).Order("day_number").Find(&itineraries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch itinerary"})
			return
		}
		// Map days to the response format, activities included
		resp := make([]ItineraryResponse, len(itineraries))
		for i := range itineraries {
			resp[i] = itineraryToResponse(db, &itineraries[i])
		}
		c.JSON(http.StatusOK, gin.H{"itinerary": resp}) // Return the itinerary
	}
}

// GetItineraryHandler returns a single planned day with its activities
func GetItineraryHandler(db *gorm.DB) gin.HandlerFunc {
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
		// Walk the parent chain to the owning trip before resolving permission
		tripID, found := access.TripIDOfItinerary(db, itineraryID)
		if !found || !access.ResolvePermission(db, userID, tripID).HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary not found"})
			return
		}
		var itinerary domain.Itinerary // Fetch the day
		if err := db.First(&itinerary, itineraryID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"itinerary": itineraryToResponse(db, &itinerary)}) // Return the day
	}
}

// CreateItineraryHandler plans a new day within a trip. Day numbers are
// unique per trip: reusing one is a conflict, never a silent overwrite.
func CreateItineraryHandler(db *gorm.DB) gin.HandlerFunc {
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
		var req CreateItineraryRequest // Bind JSON request to struct
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
		// Viewers may not plan days
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		// Check whether the day number is already taken
		var existing domain.Itinerary
		if err := db.Where("trip_id = ? AND day_number = ?", tripID, req.DayNumber).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Day number already exists for this trip"})
			return
		}
		// Create the day. The composite unique index on (trip_id, day_number)
		// rejects a concurrent duplicate create.
		itinerary := domain.Itinerary{
			TripID:    tripID,        // Owning trip
			DayNumber: req.DayNumber, // Day number
			Date:      req.Date,      // Calendar date
			Notes:     req.Notes,     // Optional notes
		}
		if err := db.Create(&itinerary).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":    userID,        // Caller user ID
				"trip_id":    tripID,        // Trip ID
				"day_number": req.DayNumber, // Requested day number
				"error":      err.Error(),   // Error message
			}).Error("Failed to create itinerary day") // Log failure
			// A unique-index violation means someone created the day concurrently
			c.JSON(http.StatusConflict, gin.H{"error": "Day number already exists for this trip"})
			return
		}
		// Log the creation
		logrus.WithFields(logrus.Fields{
			"user_id":      userID,        // Caller user ID
			"trip_id":      tripID,        // Trip ID
			"itinerary_id": itinerary.ID,  // New day ID
			"day_number":   req.DayNumber, // Day number
		}).Info("Itinerary day created")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		// Return the created day
		c.JSON(http.StatusCreated, gin.H{"itinerary": itineraryToResponse(db, &itinerary)})
	}
}

// UpdateItineraryHandler changes a day's date and notes. The day number is
// never updated here.
func UpdateItineraryHandler(db *gorm.DB) gin.HandlerFunc {
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
		var req UpdateItineraryRequest // Bind JSON request to struct
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
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		var itinerary domain.Itinerary // Fetch the day to update
		if err := db.First(&itinerary, itineraryID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary not found"})
			return
		}
		// Apply the replacement of date and notes
		itinerary.Date = req.Date
		itinerary.Notes = req.Notes
		if err := db.Save(&itinerary).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":      userID,      // Caller user ID
				"itinerary_id": itineraryID, // Day ID
				"error":        err.Error(), // Error message
			}).Error("Failed to update itinerary day") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update itinerary day"})
			return
		}
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		// Return the updated day
		c.JSON(http.StatusOK, gin.H{"itinerary": itineraryToResponse(db, &itinerary)})
	}
}

// DeleteItineraryHandler removes a planned day and all of its activities
func DeleteItineraryHandler(db *gorm.DB) gin.HandlerFunc {
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
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		// Cascade to the day's activities inside one transaction
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("itinerary_id = ?", itineraryID).Delete(&domain.Activity{}).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&domain.Itinerary{}, itineraryID).Error // Delete the day itself
		})
		// Handle transaction result
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":      userID,      // Caller user ID
				"itinerary_id": itineraryID, // Day ID
				"error":        err.Error(), // Error message
			}).Error("Itinerary delete failed") // Log deletion failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete itinerary day"})
			return
		}
		// Log the deletion
		logrus.WithFields(logrus.Fields{
			"user_id":      userID,      // Caller user ID
			"trip_id":      tripID,      // Owning trip ID
			"itinerary_id": itineraryID, // Deleted day ID
		}).Info("Itinerary day deleted")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		c.Status(http.StatusNoContent)         // Return no content on success
	}
}
