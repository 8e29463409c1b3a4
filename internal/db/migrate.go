package db

import (
	"trip_planner/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes.
	// The composite unique indexes on participants (trip_id, user_id) and itineraries
	// (trip_id, day_number) close concurrent-writer races that the application-level
	// pre-checks alone would leave open.
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Trip{},
		&domain.Participant{},
		&domain.Location{},
		&domain.Itinerary{},
		&domain.Activity{},
	)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
