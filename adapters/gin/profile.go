// Package vippsgin connects vippskit to gin: middleware that turns the stored
// login claims into a profile, and accessors for handlers.
package vippsgin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PaulFidika/vippskit/claims"
	"github.com/PaulFidika/vippskit/vipps"
)

// Context keys. The upstream login middleware stores the validated claims
// (and optionally the access token) under these keys.
const (
	ClaimsKey      = "vipps.claims"
	AccessTokenKey = "vipps.access_token"
	ProfileKey     = "vipps.profile"
)

// SetClaims stores the authenticated claim set on the gin context.
func SetClaims(c *gin.Context, set claims.Set) { c.Set(ClaimsKey, set) }

// SetAccessToken stores the access token used for userinfo requests.
func SetAccessToken(c *gin.Context, token string) { c.Set(AccessTokenKey, token) }

// ClaimsFromGin returns the claim set stored by the login middleware.
func ClaimsFromGin(c *gin.Context) (claims.Set, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	set, ok := v.(claims.Set)
	return set, ok && len(set) > 0
}

// AccessToken returns the stored access token, falling back to the bearer
// credential of the request.
func AccessToken(c *gin.Context) string {
	if v := c.GetString(AccessTokenKey); v != "" {
		return v
	}
	if tok, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

// ProfileMiddleware extracts the Vipps profile from the stored claims and
// attaches it to the context. Requests without a Vipps identity pass through.
func ProfileMiddleware(svc *vipps.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		attachProfile(c, svc)
		c.Next()
	}
}

// RequireProfile is ProfileMiddleware that rejects requests without a Vipps
// identity with 401.
func RequireProfile(svc *vipps.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := attachProfile(c, svc); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "vipps_identity_required"})
			return
		}
		c.Next()
	}
}

func attachProfile(c *gin.Context, svc *vipps.Service) (*vipps.UserProfile, bool) {
	if p, ok := CurrentProfile(c); ok {
		return p, true
	}
	set, ok := ClaimsFromGin(c)
	if !ok {
		return nil, false
	}
	p := svc.ExtractProfile(set)
	if p == nil {
		return nil, false
	}
	c.Set(ProfileKey, p)
	return p, true
}

// CurrentProfile returns the profile attached by ProfileMiddleware.
func CurrentProfile(c *gin.Context) (*vipps.UserProfile, bool) {
	v, ok := c.Get(ProfileKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*vipps.UserProfile)
	return p, ok && p != nil
}
