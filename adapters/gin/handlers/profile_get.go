package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	vippsgin "github.com/PaulFidika/vippskit/adapters/gin"
)

// HandleProfileGET renders the profile attached by the profile middleware.
func HandleProfileGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := vippsgin.CurrentProfile(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "vipps_identity_required"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
