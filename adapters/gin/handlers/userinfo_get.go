package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	vippsgin "github.com/PaulFidika/vippskit/adapters/gin"
	"github.com/PaulFidika/vippskit/backends"
	"github.com/PaulFidika/vippskit/vipps"
)

// RateLimiter reports whether one more hit for key in bucket is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}

// BucketUserInfo is the rate-limit bucket for userinfo fetches, keyed by the
// parsed subject of a trusted identity.
const BucketUserInfo = backends.BucketUserInfo

// HandleUserInfoGET fetches userinfo for the caller's access token and renders
// the profile built from the identity plus userinfo claims. rl may be nil.
func HandleUserInfoGET(svc *vipps.Service, endpoint string, rl RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := vippsgin.ClaimsFromGin(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "vipps_identity_required"})
			return
		}
		sub, ok := svc.Subject(identity)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "not_vipps_identity"})
			return
		}
		if rl != nil {
			allowed, err := rl.Allow(c.Request.Context(), BucketUserInfo, sub.String())
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate_limiter_unavailable"})
				return
			}
			if !allowed {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "too_many_requests"})
				return
			}
		}
		token := vippsgin.AccessToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_access_token"})
			return
		}
		p, err := svc.ProfileFromUserInfo(c.Request.Context(), identity, endpoint, token)
		switch {
		case errors.Is(err, vipps.ErrProtocol):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "userinfo_rejected"})
			return
		case err != nil:
			c.JSON(http.StatusBadGateway, gin.H{"error": "userinfo_unavailable"})
			return
		case p == nil:
			c.JSON(http.StatusForbidden, gin.H{"error": "not_vipps_identity"})
			return
		}
		c.Set(vippsgin.ProfileKey, p)
		c.JSON(http.StatusOK, p)
	}
}
