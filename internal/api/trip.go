package api

import (
	"context"                      // Context for Redis operations
	"net/http"                     // HTTP status codes
	"time"                         // Time durations
	"trip_planner/internal/access" // Permission resolution
	"trip_planner/internal/domain" // Importing domain models
	"trip_planner/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// CreateTripRequest represents a trip creation request
type CreateTripRequest struct {
	Title       string    `json:"title" binding:"required"`      // Trip title
	StartDate   time.Time `json:"start_date" binding:"required"` // First day of the trip
	EndDate     time.Time `json:"end_date" binding:"required"`   // Last day of the trip
	Description *string   `json:"description"`                   // Optional description
	Budget      float64   `json:"budget" binding:"gte=0"`        // Planned budget
}

// UpdateTripRequest represents a trip update request, a full replacement of the editable fields
type UpdateTripRequest struct {
	Title       string    `json:"title" binding:"required"`      // Trip title
	StartDate   time.Time `json:"start_date" binding:"required"` // First day of the trip
	EndDate     time.Time `json:"end_date" binding:"required"`   // Last day of the trip
	Description *string   `json:"description"`                   // Optional description
	Budget      float64   `json:"budget" binding:"gte=0"`        // Planned budget
}

// TripResponse is the list/summary view of a trip
type TripResponse struct {
	ID                uint      `json:"id"`                  // Trip ID
	Title             string    `json:"title"`               // Trip title
	StartDate         time.Time `json:"start_date"`          // First day
	EndDate           time.Time `json:"end_date"`            // Last day
	Description       *string   `json:"description"`         // Optional description
	Budget            float64   `json:"budget"`              // Planned budget
	CreatedByID       uint      `json:"created_by_id"`       // Creator user ID
	CreatedByUsername string    `json:"created_by_username"` // Creator username
	CreatedAt         time.Time `json:"created_at"`          // Creation timestamp
	ParticipantCount  int64     `json:"participant_count"`   // Members including the creator
	LocationCount     int64     `json:"location_count"`      // Number of saved locations
}

// TripDetailResponse is the single-trip view with embedded members and locations
type TripDetailResponse struct {
	TripResponse                        // Summary fields
	Participants []ParticipantResponse  `json:"participants"`    // Full roster, creator first
	Locations    []domain.Location      `json:"locations"`       // Saved locations
	DayCount     int64                  `json:"itinerary_count"` // Number of planned days
}

// tripToResponse builds the summary view of a trip, counting members and locations
func tripToResponse(db *gorm.DB, trip *domain.Trip) TripResponse {
	var participantCount, locationCount int64
	db.Model(&domain.Participant{}).Where("trip_id = ?", trip.ID).Count(&participantCount)
	db.Model(&domain.Location{}).Where("trip_id = ?", trip.ID).Count(&locationCount)
	return TripResponse{
		ID:                trip.ID,                  // Trip ID
		Title:             trip.Title,               // Trip title
		StartDate:         trip.StartDate,           // First day
		EndDate:           trip.EndDate,             // Last day
		Description:       trip.Description,         // Optional description
		Budget:            trip.Budget,              // Planned budget
		CreatedByID:       trip.CreatedByID,         // Creator user ID
		CreatedByUsername: trip.CreatedBy.Username,  // Creator username
		CreatedAt:         trip.CreatedAt,           // Creation timestamp
		ParticipantCount:  participantCount + 1,     // Rows plus the implicit creator
		LocationCount:     locationCount,            // Number of saved locations
	}
}

// ListTripsHandler returns every trip the caller created or participates in, newest first
func ListTripsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()        // Context for Redis operations
		cacheKey := tripListCacheKey(userID) // Cache key for the caller's trip list
		var cached []TripResponse
		// Try to get from cache
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"trips": cached, "cached": true})
			return
		}
		var trips []domain.Trip // Trips the caller created or was added to
		memberOf := db.Model(&domain.Participant{}).Select("trip_id").Where("user_id = ?", userID)
		if err := db.Preload("CreatedBy").
			Where("created_by_id = ? OR id IN (?)", userID, memberOf).
			Order("created_at desc").
			Find(&trips).Error; err != nil {
			// If fetching fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trips"})
			return
		}
		// Map trips to the response format
		resp := make([]TripResponse, len(trips))
		for i := range trips {
			resp[i] = tripToResponse(db, &trips[i])
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)  // Cache the list for 60 seconds
		c.JSON(http.StatusOK, gin.H{"trips": resp, "cached": false}) // Return the trip list
	}
}

// CreateTripHandler creates a trip; the caller becomes its Owner by creator id
func CreateTripHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateTripRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// The end date can never precede the start date
		if req.EndDate.Before(req.StartDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
			return
		}
		// Create the trip. No Participant row is written for the creator:
		// ownership is resolved by creator id comparison.
		trip := domain.Trip{
			Title:       req.Title,       // Trip title
			StartDate:   req.StartDate,   // First day
			EndDate:     req.EndDate,     // Last day
			Description: req.Description, // Optional description
			Budget:      req.Budget,      // Planned budget
			CreatedByID: userID,          // Creator user ID
		}
		// Attempt to create the trip in the database
		if err := db.Create(&trip).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Creator user ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create trip") // Log failure
			// Return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create trip"})
			return
		}
		// Log successful trip creation
		logrus.WithFields(logrus.Fields{
			"user_id": userID,  // Creator user ID
			"trip_id": trip.ID, // New trip ID
		}).Info("Trip created")
		invalidateTripCache(c, trip.ID, userID) // Invalidate the caller's trip list cache
		db.Preload("CreatedBy").First(&trip, trip.ID)
		// Return the created trip
		c.JSON(http.StatusCreated, gin.H{"trip": tripToResponse(db, &trip)})
	}
}

// GetTripHandler returns the detail view of a single trip.
// Non-members get a not-found response, never a hint that the trip exists.
func GetTripHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
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
		// Resolve the caller's permission before reading anything
		if !access.ResolvePermission(db, userID, tripID).HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		ctx := context.Background()            // Context for Redis operations
		cacheKey := tripDetailCacheKey(tripID) // Cache key for the trip detail
		var cached TripDetailResponse
		// Try to get from cache
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"trip": cached, "cached": true})
			return
		}
		var trip domain.Trip // Fetch the trip with its creator
		if err := db.Preload("CreatedBy").First(&trip, tripID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		var locations []domain.Location // Fetch the trip's locations
		db.Where("trip_id = ?", tripID).Order("created_at").Find(&locations)
		var dayCount int64 // Count the planned days
		db.Model(&domain.Itinerary{}).Where("trip_id = ?", tripID).Count(&dayCount)
		resp := TripDetailResponse{
			TripResponse: tripToResponse(db, &trip),       // Summary fields
			Participants: listParticipants(db, &trip),     // Full roster, creator first
			Locations:    locations,                       // Saved locations
			DayCount:     dayCount,                        // Number of planned days
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second) // Cache the detail for 60 seconds
		c.JSON(http.StatusOK, gin.H{"trip": resp, "cached": false})  // Return the trip detail
	}
}

// UpdateTripHandler replaces the editable fields of a trip
func UpdateTripHandler(db *gorm.DB) gin.HandlerFunc {
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
		var req UpdateTripRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Resolve the caller's permission on the trip
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			// Invisible trips are indistinguishable from missing ones
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Viewers may see the trip but not change it
		if !perm.CanEdit() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Operation not permitted"})
			return
		}
		// Re-validate the date ordering on the new values
		if req.EndDate.Before(req.StartDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
			return
		}
		var trip domain.Trip // Fetch the trip to update
		if err := db.First(&trip, tripID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Apply the replacement. The whole update is a single write, no partial state.
		trip.Title = req.Title
		trip.StartDate = req.StartDate
		trip.EndDate = req.EndDate
		trip.Description = req.Description
		trip.Budget = req.Budget
		if err := db.Save(&trip).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller user ID
				"trip_id": tripID,      // Trip ID
				"error":   err.Error(), // Error message
			}).Error("Failed to update trip") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update trip"})
			return
		}
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		db.Preload("CreatedBy").First(&trip, trip.ID)
		// Return the updated trip
		c.JSON(http.StatusOK, gin.H{"trip": tripToResponse(db, &trip)})
	}
}

// DeleteTripHandler deletes a trip with all of its participants, locations,
// itinerary days and activities. Only the creator may do this; editors cannot.
func DeleteTripHandler(db *gorm.DB) gin.HandlerFunc {
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
		var trip domain.Trip // Fetch the trip
		if err := db.First(&trip, tripID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Deletion is gated on the creator id directly, not on the generic
		// edit capability: editors must never delete the trip itself.
		if trip.CreatedByID != userID {
			if !access.ResolvePermission(db, userID, tripID).HasAccess() {
				// Non-members never learn the trip exists
				c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
				return
			}
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the trip owner can delete the trip"})
			return
		}
		// Cascade inside one transaction: activities first, then the day, location
		// and membership rows, finally the trip. Either all of it happens or none.
		err := db.Transaction(func(tx *gorm.DB) error {
			days := tx.Model(&domain.Itinerary{}).Select("id").Where("trip_id = ?", tripID)
			if err := tx.Where("itinerary_id IN (?)", days).Delete(&domain.Activity{}).Error; err != nil {
				return err // Return error to rollback
			}
			if err := tx.Where("trip_id = ?", tripID).Delete(&domain.Itinerary{}).Error; err != nil {
				return err // Return error to rollback
			}
			if err := tx.Where("trip_id = ?", tripID).Delete(&domain.Location{}).Error; err != nil {
				return err // Return error to rollback
			}
			if err := tx.Where("trip_id = ?", tripID).Delete(&domain.Participant{}).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(&domain.Trip{}, tripID).Error // Delete the trip itself
		})
		// Handle transaction result
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Caller user ID
				"trip_id": tripID,      // Trip ID
				"error":   err.Error(), // Error message
			}).Error("Trip delete failed") // Log deletion failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete trip"})
			return
		}
		// Log successful deletion
		logrus.WithFields(logrus.Fields{
			"user_id": userID, // Caller user ID
			"trip_id": tripID, // Deleted trip ID
		}).Info("Trip deleted")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		c.Status(http.StatusNoContent)         // Return no content on success
	}
}
