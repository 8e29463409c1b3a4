package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"trip_planner/internal/domain"
	"trip_planner/internal/middleware"
	"trip_planner/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

// openTestDB opens an isolated in-memory database with the full schema
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and shared
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Trip{},
		&domain.Participant{},
		&domain.Location{},
		&domain.Itinerary{},
		&domain.Activity{},
	))
	return db
}

// setupRouter wires the full route table against an in-memory database and redis
func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.POST("/auth/register", RegisterHandler(db))
	r.POST("/auth/login", LoginHandler(db, testJWTSecret, 24*time.Hour))

	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(testJWTSecret), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	})

	trips := authed.Group("/trips")
	trips.GET("", ListTripsHandler(db, redisClient))
	trips.POST("", CreateTripHandler(db))
	trips.GET("/:tripID", GetTripHandler(db, redisClient))
	trips.PUT("/:tripID", UpdateTripHandler(db))
	trips.DELETE("/:tripID", DeleteTripHandler(db))

	trips.GET("/:tripID/participants", ListParticipantsHandler(db))
	trips.POST("/:tripID/participants", AddParticipantHandler(db))
	trips.PUT("/:tripID/participants/:userID/role", UpdateParticipantRoleHandler(db))
	trips.DELETE("/:tripID/participants/:userID", RemoveParticipantHandler(db))

	trips.GET("/:tripID/locations", ListLocationsHandler(db))
	trips.POST("/:tripID/locations", CreateLocationHandler(db))
	trips.GET("/:tripID/locations/:locationID", GetLocationHandler(db))
	trips.PUT("/:tripID/locations/:locationID", UpdateLocationHandler(db))
	trips.DELETE("/:tripID/locations/:locationID", DeleteLocationHandler(db))

	trips.GET("/:tripID/itinerary", ListItinerariesHandler(db))
	trips.POST("/:tripID/itinerary", CreateItineraryHandler(db))

	itinerary := authed.Group("/itinerary")
	itinerary.GET("/:itineraryID", GetItineraryHandler(db))
	itinerary.PUT("/:itineraryID", UpdateItineraryHandler(db))
	itinerary.DELETE("/:itineraryID", DeleteItineraryHandler(db))
	itinerary.POST("/:itineraryID/activities", CreateActivityHandler(db))
	itinerary.GET("/:itineraryID/activities/:activityID", GetActivityHandler(db))
	itinerary.PUT("/:itineraryID/activities/:activityID", UpdateActivityHandler(db))
	itinerary.DELETE("/:itineraryID/activities/:activityID", DeleteActivityHandler(db))

	return r, db
}

// createUser inserts a user with a known password and returns it
func createUser(t *testing.T, db *gorm.DB, username, email string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := domain.User{Username: username, Email: email, Password: string(hash)}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// tokenFor issues a bearer token for a user
func tokenFor(t *testing.T, user domain.User) string {
	t.Helper()
	token, err := utils.GenerateJWT(user.ID, user.Username, user.Email, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// doRequest performs a JSON request against the test router
func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// createTrip creates a trip through the API and returns its id
func createTrip(t *testing.T, r *gin.Engine, token, title string) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/trips", token, gin.H{
		"title":      title,
		"start_date": "2024-06-01T00:00:00Z",
		"end_date":   "2024-06-10T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Trip TripResponse `json:"trip"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Trip.ID
}

// addParticipant adds a member through the API
func addParticipant(t *testing.T, r *gin.Engine, token string, tripID uint, email, role string) *httptest.ResponseRecorder {
	t.Helper()
	body := gin.H{"email": email}
	if role != "" {
		body["role"] = role
	}
	return doRequest(t, r, http.MethodPost, tripPath(tripID, "/participants"), token, body)
}

// createDay plans an itinerary day through the API and returns its id
func createDay(t *testing.T, r *gin.Engine, token string, tripID uint, day int) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, tripPath(tripID, "/itinerary"), token, gin.H{
		"day_number": day,
		"date":       "2024-06-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Itinerary ItineraryResponse `json:"itinerary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Itinerary.ID
}

// createLocation adds a location through the API and returns its id
func createLocation(t *testing.T, r *gin.Engine, token string, tripID uint, name string) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, tripPath(tripID, "/locations"), token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Location domain.Location `json:"location"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Location.ID
}

// createActivity schedules an activity through the API and returns its id
func createActivity(t *testing.T, r *gin.Engine, token string, itineraryID uint, body gin.H) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/itinerary/"+itoa(itineraryID)+"/activities", token, body)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Activity domain.Activity `json:"activity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Activity.ID
}

// tripPath builds a path under /trips/:tripID
func tripPath(tripID uint, suffix string) string {
	return "/trips/" + itoa(tripID) + suffix
}

// itoa formats an id for URLs
func itoa(id uint) string {
	return strconv.Itoa(int(id))
}
