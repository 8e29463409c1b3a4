package api

import (
	"net/http"                     // HTTP status codes
	"regexp"                       // Regular expressions
	"strings"                      // String manipulation
	"time"                         // Time for token expiry
	"trip_planner/internal/domain" // Importing domain models
	"trip_planner/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`    // Username must be provided
	Email    string `json:"email" binding:"required,email"` // Email must be provided and well-formed
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" binding:"required"` // Email or username must be provided
	Password        string `json:"password" binding:"required"`          // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	UserID    uint      `json:"user_id"`    // Authenticated user ID
	Username  string    `json:"username"`   // Username
	Email     string    `json:"email"`      // Email address
	Token     string    `json:"token"`      // JWT token
	ExpiresAt time.Time `json:"expires_at"` // Token expiry timestamp
}

// isValidUsername checks if the username contains only alphanumeric characters
func isValidUsername(username string) bool {
	matched, _ := regexp.MatchString(`^[A-Za-z0-9]+$`, username) // Regex to match alphanumeric characters only
	return matched                                               // Return whether it matched
}

// isValidPassword checks if the password length is between 8 and 72 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72 // 72 is the bcrypt input limit
}

// RegisterHandler creates a new user account
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate username and password
		if !isValidUsername(req.Username) {
			// If username is invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be alphanumeric only"})
			return
		}
		// Validate password length
		if !isValidPassword(req.Password) {
			// If password is invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-72 characters"})
			return
		}
		// Check for an existing username or email before creating
		var existing domain.User
		if err := db.Where("username = ? OR email = ?", strings.ToLower(req.Username), strings.ToLower(req.Email)).First(&existing).Error; err == nil {
			// If a user already holds the username or email, return conflict
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		// Create user with lowercase username and email to ensure uniqueness
		user := domain.User{
			Username: strings.ToLower(req.Username), // Lowercase username
			Email:    strings.ToLower(req.Email),    // Lowercase email
			Password: string(hash),                  // Hashed password
		}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			// If creation fails (e.g., concurrent duplicate), return conflict
			c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user_id": user.ID})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string, jwtExpiry time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		identifier := strings.ToLower(req.EmailOrUsername) // Accept email or username
		var user domain.User                               // Fetch user from database
		if err := db.Where("email = ? OR username = ?", identifier, identifier).First(&user).Error; err != nil {
			// If user not found, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Username, user.Email, jwtSecret, jwtExpiry)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{
			UserID:    user.ID,                    // Authenticated user ID
			Username:  user.Username,              // Username
			Email:     user.Email,                 // Email address
			Token:     token,                      // JWT token
			ExpiresAt: time.Now().Add(jwtExpiry),  // Token expiry timestamp
		})
	}
}
