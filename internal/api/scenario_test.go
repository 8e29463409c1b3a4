package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"trip_planner/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCollaborationFlow walks a trip through its whole collaborative life:
// creation, sharing, editing by a member, the owner-immutability rules and
// the weak-reference cleanup on location deletion.
func TestCollaborationFlow(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	bob := createUser(t, db, "bob", "bob@example.com")
	aliceToken := tokenFor(t, alice)
	bobToken := tokenFor(t, bob)

	// Alice creates a trip
	w := doRequest(t, r, http.MethodPost, "/trips", aliceToken, gin.H{
		"title":      "summer in portugal",
		"start_date": "2024-06-01T00:00:00Z",
		"end_date":   "2024-06-10T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Trip TripResponse `json:"trip"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	tripID := created.Trip.ID
	assert.Equal(t, alice.ID, created.Trip.CreatedByID)
	assert.EqualValues(t, 1, created.Trip.ParticipantCount) // The implicit owner

	// Bob, not a member, cannot see it
	w = doRequest(t, r, http.MethodGet, tripPath(tripID, ""), bobToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Alice adds bob as editor by email
	w = addParticipant(t, r, aliceToken, tripID, "bob@example.com", "editor")
	require.Equal(t, http.StatusCreated, w.Code)

	// Bob can now read the trip and plan a day
	w = doRequest(t, r, http.MethodGet, tripPath(tripID, ""), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, r, http.MethodPost, tripPath(tripID, "/itinerary"), bobToken, gin.H{
		"day_number": 1,
		"date":       "2024-06-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Bob cannot remove alice: the owner is immutable
	w = doRequest(t, r, http.MethodDelete, tripPath(tripID, "/participants/"+itoa(alice.ID)), bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Reusing day number 1 fails as a conflict, even for alice
	w = doRequest(t, r, http.MethodPost, tripPath(tripID, "/itinerary"), aliceToken, gin.H{
		"day_number": 1,
		"date":       "2024-06-01T00:00:00Z",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Alice saves a location and bob schedules an activity there
	locationID := createLocation(t, r, aliceToken, tripID, "mercado da ribeira")
	var day domain.Itinerary
	require.NoError(t, db.Where("trip_id = ?", tripID).First(&day).Error)
	activityID := createActivity(t, r, bobToken, day.ID, gin.H{
		"title":       "lunch",
		"location_id": locationID,
		"priority":    "high",
	})

	// Deleting the location keeps the activity, reference cleared
	w = doRequest(t, r, http.MethodDelete, tripPath(tripID, "/locations/"+itoa(locationID)), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	var activity domain.Activity
	require.NoError(t, db.First(&activity, activityID).Error)
	assert.Nil(t, activity.LocationID)
	assert.Equal(t, "lunch", activity.Title)
}
