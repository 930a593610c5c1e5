package middleware

import "github.com/gin-gonic/gin"

const ContextKeyUserID = "user_id"

// DefaultUserID owns every set until real authentication exists.
const DefaultUserID = "c39a88ad-8ef2-4ce7-a065-8550a77a46ca"

// Identity attaches a fixed user id to each request.
func Identity(userID string) gin.HandlerFunc {
	if userID == "" {
		userID = DefaultUserID
	}
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// UserID returns the id set by Identity, falling back to DefaultUserID.
func UserID(c *gin.Context) string {
	if v := c.GetString(ContextKeyUserID); v != "" {
		return v
	}
	return DefaultUserID
}
