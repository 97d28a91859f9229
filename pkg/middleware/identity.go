package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserIDHeader carries the caller's user id. There is no authentication: the header is
// trusted as-is.
const UserIDHeader = "X-User-ID"

const userIDKey = "userID"

// IdentityMiddleware parses the X-User-ID header, when present, into the request context.
// A malformed id is rejected with 400.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.Next()
			return
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + UserIDHeader + " header"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// RequireUser aborts with 401 unless IdentityMiddleware resolved a user id.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}
		c.Next()
	}
}

// UserID returns the caller's id set by IdentityMiddleware.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

// limiterKey prefers the caller's user id and falls back to the client IP.
func limiterKey(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + id.Hex()
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
