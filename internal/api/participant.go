package api

import (
	"net/http"                     // HTTP status codes
	"strings"                      // String manipulation
	"time"                         // Time for timestamps
	"trip_planner/internal/access" // Permission resolution
	"trip_planner/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// AddParticipantRequest represents a request to add a member to a trip
type AddParticipantRequest struct {
	Email string `json:"email" binding:"required,email"`                 // Target user's email
	Role  string `json:"role" binding:"omitempty,oneof=editor viewer"`   // Role to grant, defaults to viewer
}

// UpdateParticipantRoleRequest represents a role change request
type UpdateParticipantRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=editor viewer"` // New role; owner is never grantable
}

// ParticipantResponse is the roster view of a single member
type ParticipantResponse struct {
	UserID   uint      `json:"user_id"`   // Member user ID
	Username string    `json:"username"`  // Member username
	Email    string    `json:"email"`     // Member email
	Role     string    `json:"role"`      // Member role
	JoinedAt time.Time `json:"joined_at"` // When the member joined
}

// listParticipants builds the full roster of a trip. The creator holds no
// Participant row, so their Owner entry is synthesized first, followed by
// the stored rows in join order.
func listParticipants(db *gorm.DB, trip *domain.Trip) []ParticipantResponse {
	var creator domain.User // The creator's entry comes from the users table
	db.First(&creator, trip.CreatedByID)
	roster := []ParticipantResponse{{
		UserID:   trip.CreatedByID, // Creator user ID
		Username: creator.Username, // Creator username
		Email:    creator.Email,    // Creator email
		Role:     domain.RoleOwner, // The creator is always Owner
		JoinedAt: trip.CreatedAt,   // The creator joined at trip creation
	}}
	var participants []domain.Participant // Stored membership rows
	db.Preload("User").Where("trip_id = ?", trip.ID).Order("joined_at").Find(&participants)
	for _, p := range participants {
		roster = append(roster, ParticipantResponse{
			UserID:   p.UserID,        // Member user ID
			Username: p.User.Username, // Member username
			Email:    p.User.Email,    // Member email
			Role:     p.Role,          // Member role
			JoinedAt: p.JoinedAt,      // When the member joined
		})
	}
	return roster
}

// ListParticipantsHandler returns the roster of a trip
func ListParticipantsHandler(db *gorm.DB) gin.HandlerFunc {
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
		// Any member may read the roster
		if !access.ResolvePermission(db, userID, tripID).HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		var trip domain.Trip // Fetch the trip
		if err := db.First(&trip, tripID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Return the roster, creator first
		c.JSON(http.StatusOK, gin.H{"participants": listParticipants(db, &trip)})
	}
}

// AddParticipantHandler adds a user to a trip by email. Only the trip creator may do this.
func AddParticipantHandler(db *gorm.DB) gin.HandlerFunc {
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
		var req AddParticipantRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Resolve the caller's permission on the trip
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			// Non-members never learn the trip exists
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Only the creator manages membership; editors cannot
		if !perm.CanManageMembership() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the trip owner can manage participants"})
			return
		}
		var trip domain.Trip // Fetch the trip for the creator check below
		if err := db.First(&trip, tripID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		var userToAdd domain.User // Resolve the target user by email
		if err := db.Where("email = ?", strings.ToLower(req.Email)).First(&userToAdd).Error; err != nil {
			// If the email is unknown, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// The creator is already the implicit Owner and cannot be added again
		if userToAdd.ID == trip.CreatedByID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The trip owner is already a participant"})
			return
		}
		// Check whether the user is already a member
		var existing domain.Participant
		if err := db.Where("trip_id = ? AND user_id = ?", tripID, userToAdd.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a participant"})
			return
		}
		role := req.Role // Role to grant
		if role == "" {
			role = domain.RoleViewer // Default role is viewer
		}
		// Create the membership row. The composite unique index on
		// (trip_id, user_id) rejects a concurrent duplicate add.
		participant := domain.Participant{
			TripID: tripID,       // Owning trip
			UserID: userToAdd.ID, // Member user
			Role:   role,         // Granted role
		}
		if err := db.Create(&participant).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,       // Caller user ID
				"trip_id":   tripID,       // Trip ID
				"member_id": userToAdd.ID, // Target user ID
				"error":     err.Error(),  // Error message
			}).Error("Failed to add participant") // Log failure
			// A unique-index violation means someone added the user concurrently
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a participant"})
			return
		}
		// Log successful addition
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,       // Caller user ID
			"trip_id":   tripID,       // Trip ID
			"member_id": userToAdd.ID, // New member user ID
			"role":      role,         // Granted role
		}).Info("Participant added")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		// Return the new roster entry
		c.JSON(http.StatusCreated, gin.H{"participant": ParticipantResponse{
			UserID:   userToAdd.ID,         // Member user ID
			Username: userToAdd.Username,   // Member username
			Email:    userToAdd.Email,      // Member email
			Role:     role,                 // Granted role
			JoinedAt: participant.JoinedAt, // When the member joined
		}})
	}
}

// UpdateParticipantRoleHandler changes a member's role. The creator's Owner
// status is immutable: re-roling the creator fails for every caller.
func UpdateParticipantRoleHandler(db *gorm.DB) gin.HandlerFunc {
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
		targetID, ok := uintParam(c, "userID") // Parse the target user id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		var req UpdateParticipantRoleRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Resolve the caller's permission on the trip
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Only the creator manages membership
		if !perm.CanManageMembership() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the trip owner can manage participants"})
			return
		}
		var trip domain.Trip // Fetch the trip for the creator check
		if err := db.First(&trip, tripID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// The creator's role can never change, not even at their own request
		if targetID == trip.CreatedByID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The trip owner's role cannot be changed"})
			return
		}
		var participant domain.Participant // Fetch the membership row
		if err := db.Preload("User").Where("trip_id = ? AND user_id = ?", tripID, targetID).First(&participant).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
			return
		}
		// Apply the new role
		if err := db.Model(&participant).Update("role", req.Role).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,      // Caller user ID
				"trip_id":   tripID,      // Trip ID
				"member_id": targetID,    // Target user ID
				"error":     err.Error(), // Error message
			}).Error("Failed to update participant role") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update participant role"})
			return
		}
		// Log the role change
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,   // Caller user ID
			"trip_id":   tripID,   // Trip ID
			"member_id": targetID, // Target user ID
			"role":      req.Role, // New role
		}).Info("Participant role updated")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		// Return the updated roster entry
		c.JSON(http.StatusOK, gin.H{"participant": ParticipantResponse{
			UserID:   participant.UserID,        // Member user ID
			Username: participant.User.Username, // Member username
			Email:    participant.User.Email,    // Member email
			Role:     req.Role,                  // New role
			JoinedAt: participant.JoinedAt,      // When the member joined
		}})
	}
}

// RemoveParticipantHandler removes a member from a trip. The creator can
// never be removed, regardless of caller.
func RemoveParticipantHandler(db *gorm.DB) gin.HandlerFunc {
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
		targetID, ok := uintParam(c, "userID") // Parse the target user id
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		// Resolve the caller's permission on the trip
		perm := access.ResolvePermission(db, userID, tripID)
		if !perm.HasAccess() {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// Only the creator manages membership
		if !perm.CanManageMembership() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the trip owner can manage participants"})
			return
		}
		var trip domain.Trip // Fetch the trip for the creator check
		if err := db.First(&trip, tripID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
			return
		}
		// The creator's membership is permanent
		if targetID == trip.CreatedByID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The trip owner cannot be removed"})
			return
		}
		var participant domain.Participant // Fetch the membership row
		if err := db.Where("trip_id = ? AND user_id = ?", tripID, targetID).First(&participant).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
			return
		}
		// Remove the membership row
		if err := db.Delete(&participant).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,      // Caller user ID
				"trip_id":   tripID,      // Trip ID
				"member_id": targetID,    // Target user ID
				"error":     err.Error(), // Error message
			}).Error("Failed to remove participant") // Log failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove participant"})
			return
		}
		// Log the removal
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,   // Caller user ID
			"trip_id":   tripID,   // Trip ID
			"member_id": targetID, // Removed user ID
		}).Info("Participant removed")
		invalidateTripCache(c, tripID, userID) // Drop stale cache entries
		c.Status(http.StatusNoContent)         // Return no content on success
	}
}
