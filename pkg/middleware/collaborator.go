package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CollaboratorHeader carries the identifier of the collaborator making the request.
	CollaboratorHeader = "X-Collaborator-ID"
	collaboratorKey    = "collaborator"
)

// RequireCollaborator rejects requests without a collaborator identifier and
// stores the identifier in the Gin context for handlers and rate limiters.
// Verifying the identity is the job of the gateway in front of this service.
func RequireCollaborator() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(CollaboratorHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthenticated", "message": "missing " + CollaboratorHeader + " header"})
			return
		}
		c.Set(collaboratorKey, id)
		c.Next()
	}
}

// CollaboratorID returns the identifier stored by RequireCollaborator, or "".
func CollaboratorID(c *gin.Context) string {
	return c.GetString(collaboratorKey)
}

// limiterKey prefers the collaborator (per-user limiting behind NAT), falling back to the client IP.
func limiterKey(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(CollaboratorHeader)); id != "" {
		return "collab:" + id
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
