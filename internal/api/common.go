package api

import (
	"context" // Context for Redis operations
	"strconv" // String conversion

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client

	"trip_planner/internal/utils" // Utility functions
)

// currentUserID extracts the authenticated user ID placed in the context by the JWT middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID") // Get userID from context
	if !exists {
		return 0, false // Not authenticated
	}
	id, ok := v.(uint) // The middleware stores it as uint
	return id, ok
}

// uintParam parses a numeric path parameter
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32) // Parse the path parameter
	if err != nil {
		return 0, false // Not a valid id
	}
	return uint(v), true
}

// tripListCacheKey is the per-user cache key for the trip list
func tripListCacheKey(userID uint) string {
	return "trips:user:" + strconv.Itoa(int(userID))
}

// tripDetailCacheKey is the cache key for a single trip's detail view
func tripDetailCacheKey(tripID uint) string {
	return "trip:detail:" + strconv.Itoa(int(tripID))
}

// invalidateTripCache drops the cached detail of a trip and the caller's trip list.
// Other members' list caches are left to expire via TTL.
func invalidateTripCache(c *gin.Context, tripID, userID uint) {
	if v, ok := c.Get("redisClient"); ok {
		if rdb, ok := v.(*redis.Client); ok {
			ctx := context.Background() // Context for Redis operations
			_ = utils.DeleteCache(ctx, rdb, tripDetailCacheKey(tripID), tripListCacheKey(userID))
		}
	}
}
