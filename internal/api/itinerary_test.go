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

func TestDayNumberUniquePerTrip(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")
	otherTripID := createTrip(t, r, aliceToken, "other trip")

	createDay(t, r, aliceToken, tripID, 1)

	// Reusing the day number within the same trip is a conflict, never an overwrite
	w := doRequest(t, r, http.MethodPost, tripPath(tripID, "/itinerary"), aliceToken, gin.H{
		"day_number": 1,
		"date":       "2024-06-02T00:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	var count int64
	db.Model(&domain.Itinerary{}).Where("trip_id = ?", tripID).Count(&count)
	assert.EqualValues(t, 1, count)

	// The same day number under another trip is fine
	createDay(t, r, aliceToken, otherTripID, 1)
}

func TestUpdateItineraryKeepsDayNumber(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")
	dayID := createDay(t, r, aliceToken, tripID, 3)

	// The update carries no day number at all; date and notes change
	w := doRequest(t, r, http.MethodPut, "/itinerary/"+itoa(dayID), aliceToken, gin.H{
		"date":  "2024-06-05T00:00:00Z",
		"notes": "beach day",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var day domain.Itinerary
	require.NoError(t, db.First(&day, dayID).Error)
	assert.Equal(t, 3, day.DayNumber)
	require.NotNil(t, day.Notes)
	assert.Equal(t, "beach day", *day.Notes)
}

func TestDeleteItineraryCascadesToActivities(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")
	dayID := createDay(t, r, aliceToken, tripID, 1)
	createActivity(t, r, aliceToken, dayID, gin.H{"title": "breakfast"})
	createActivity(t, r, aliceToken, dayID, gin.H{"title": "hike"})

	w := doRequest(t, r, http.MethodDelete, "/itinerary/"+itoa(dayID), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	db.Model(&domain.Activity{}).Count(&count)
	assert.Zero(t, count)
}

func TestItineraryPermissions(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	createUser(t, db, "bob", "bob@example.com")
	createUser(t, db, "carol", "carol@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")

	w := addParticipant(t, r, aliceToken, tripID, "bob@example.com", "editor")
	require.Equal(t, http.StatusCreated, w.Code)
	w = addParticipant(t, r, aliceToken, tripID, "carol@example.com", "viewer")
	require.Equal(t, http.StatusCreated, w.Code)
	var bob, carol domain.User
	require.NoError(t, db.Where("username = ?", "bob").First(&bob).Error)
	require.NoError(t, db.Where("username = ?", "carol").First(&carol).Error)

	body := gin.H{"day_number": 1, "date": "2024-06-01T00:00:00Z"}
	// An editor may plan days
	w = doRequest(t, r, http.MethodPost, tripPath(tripID, "/itinerary"), tokenFor(t, bob), body)
	assert.Equal(t, http.StatusCreated, w.Code)
	// A viewer may not
	w = doRequest(t, r, http.MethodPost, tripPath(tripID, "/itinerary"), tokenFor(t, carol), gin.H{"day_number": 2, "date": "2024-06-02T00:00:00Z"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	// But the viewer can read the itinerary
	w = doRequest(t, r, http.MethodGet, tripPath(tripID, "/itinerary"), tokenFor(t, carol), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestItineraryListOrdersDaysAndActivities(t *testing.T) {
	r, db := setupRouter(t)
	alice := createUser(t, db, "alice", "alice@example.com")
	aliceToken := tokenFor(t, alice)
	tripID := createTrip(t, r, aliceToken, "trip")

	day2 := createDay(t, r, aliceToken, tripID, 2)
	day1 := createDay(t, r, aliceToken, tripID, 1)
	createActivity(t, r, aliceToken, day1, gin.H{"title": "later", "order_index": 5})
	createActivity(t, r, aliceToken, day1, gin.H{"title": "earlier", "order_index": 1})

	w := doRequest(t, r, http.MethodGet, tripPath(tripID, "/itinerary"), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Itinerary []ItineraryResponse `json:"itinerary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Itinerary, 2)
	assert.Equal(t, day1, resp.Itinerary[0].ID) // Ordered by day number, not creation
	assert.Equal(t, day2, resp.Itinerary[1].ID)
	require.Len(t, resp.Itinerary[0].Activities, 2)
	assert.Equal(t, "earlier", resp.Itinerary[0].Activities[0].Title)
	assert.Equal(t, "later", resp.Itinerary[0].Activities[1].Title)
}
