package main

import (
	"context"                          // context package is needed for Redis operations
	"log"                              // log package is needed for logging
	"trip_planner/internal/api"        // Custom package for API handlers
	"trip_planner/internal/config"     // Custom package for configuration
	"trip_planner/internal/middleware" // Custom package for middleware

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/auth/register", api.RegisterHandler(db))                      // Registration endpoint
	r.POST("/auth/login", api.LoginHandler(db, cfg.JWTSecret, cfg.JWTExpiry)) // Login endpoint

	// Everything below requires a bearer token; the middleware resolves the
	// caller's user id into the context and the Redis client rides along for
	// cache invalidation.
	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	})

	// Trip routes
	trips := authed.Group("/trips")
	trips.GET("", api.ListTripsHandler(db, redisClient))       // List the caller's trips
	trips.POST("", api.CreateTripHandler(db))                  // Create a trip
	trips.GET("/:tripID", api.GetTripHandler(db, redisClient)) // Trip detail
	trips.PUT("/:tripID", api.UpdateTripHandler(db))           // Update a trip
	trips.DELETE("/:tripID", api.DeleteTripHandler(db))        // Delete a trip (creator only)

	// Participant routes
	trips.GET("/:tripID/participants", api.ListParticipantsHandler(db))                    // Trip roster
	trips.POST("/:tripID/participants", api.AddParticipantHandler(db))                     // Add a member by email
	trips.PUT("/:tripID/participants/:userID/role", api.UpdateParticipantRoleHandler(db))  // Change a member's role
	trips.DELETE("/:tripID/participants/:userID", api.RemoveParticipantHandler(db))        // Remove a member

	// Location routes
	trips.GET("/:tripID/locations", api.ListLocationsHandler(db))                // Trip locations
	trips.POST("/:tripID/locations", api.CreateLocationHandler(db))              // Add a location
	trips.GET("/:tripID/locations/:locationID", api.GetLocationHandler(db))      // Location detail
	trips.PUT("/:tripID/locations/:locationID", api.UpdateLocationHandler(db))   // Update a location
	trips.DELETE("/:tripID/locations/:locationID", api.DeleteLocationHandler(db)) // Delete a location

	// Itinerary routes
	trips.GET("/:tripID/itinerary", api.ListItinerariesHandler(db))  // Planned days of a trip
	trips.POST("/:tripID/itinerary", api.CreateItineraryHandler(db)) // Plan a new day

	// Day and activity routes address the nested entity directly; the owning
	// trip is derived by walking the parent chain inside each handler.
	itinerary := authed.Group("/itinerary")
	itinerary.GET("/:itineraryID", api.GetItineraryHandler(db))       // Day detail
	itinerary.PUT("/:itineraryID", api.UpdateItineraryHandler(db))    // Update a day (date/notes)
	itinerary.DELETE("/:itineraryID", api.DeleteItineraryHandler(db)) // Delete a day and its activities

	itinerary.POST("/:itineraryID/activities", api.CreateActivityHandler(db))              // Schedule an activity
	itinerary.GET("/:itineraryID/activities/:activityID", api.GetActivityHandler(db))      // Activity detail
	itinerary.PUT("/:itineraryID/activities/:activityID", api.UpdateActivityHandler(db))   // Update an activity
	itinerary.DELETE("/:itineraryID/activities/:activityID", api.DeleteActivityHandler(db)) // Delete an activity

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
