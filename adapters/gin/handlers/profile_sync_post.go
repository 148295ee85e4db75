package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	vippsgin "github.com/PaulFidika/vippskit/adapters/gin"
	"github.com/PaulFidika/vippskit/vipps"
)

// ProfileSaver persists profiles; identity.Store satisfies it.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, p *vipps.UserProfile) error
}

// HandleProfileSyncPOST stores the caller's current profile.
func HandleProfileSyncPOST(store ProfileSaver) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := vippsgin.CurrentProfile(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "vipps_identity_required"})
			return
		}
		if err := store.SaveProfile(c.Request.Context(), p); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_save_profile"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "sub": p.Sub})
	}
}
