// Package vippshttp exposes vippskit to plain net/http servers.
package vippshttp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/PaulFidika/vippskit/backends"
	"github.com/PaulFidika/vippskit/claims"
	"github.com/PaulFidika/vippskit/vipps"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	profileKey
)

// WithClaims returns ctx carrying the authenticated claim set.
func WithClaims(ctx context.Context, set claims.Set) context.Context {
	return context.WithValue(ctx, claimsKey, set)
}

// ClaimsFromContext returns the claim set stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (claims.Set, bool) {
	set, ok := ctx.Value(claimsKey).(claims.Set)
	return set, ok && len(set) > 0
}

// ProfileFromContext returns the profile attached by Middleware.
func ProfileFromContext(ctx context.Context) (*vipps.UserProfile, bool) {
	p, ok := ctx.Value(profileKey).(*vipps.UserProfile)
	return p, ok && p != nil
}

// Middleware attaches the Vipps profile for the request's claims, if any.
func Middleware(svc *vipps.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if set, ok := ClaimsFromContext(r.Context()); ok {
				if p := svc.ExtractProfile(set); p != nil {
					r = r.WithContext(context.WithValue(r.Context(), profileKey, p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ProfileHandler renders the caller's profile, or 401 without a Vipps identity.
func ProfileHandler(svc *vipps.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := ProfileFromContext(r.Context())
		if !ok {
			if set, found := ClaimsFromContext(r.Context()); found {
				p = svc.ExtractProfile(set)
				ok = p != nil
			}
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "vipps_identity_required")
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
}

// RateLimiter reports whether one more hit for key in bucket is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}

// UserInfoHandler fetches userinfo with the request's bearer token and renders
// the merged profile. rl, when not nil, limits fetches per subject.
func UserInfoHandler(svc *vipps.Service, endpoint string, rl RateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "vipps_identity_required")
			return
		}
		sub, trusted := svc.Subject(identity)
		if !trusted {
			writeError(w, http.StatusForbidden, "not_vipps_identity")
			return
		}
		if rl != nil {
			allowed, err := rl.Allow(r.Context(), backends.BucketUserInfo, sub.String())
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, "rate_limiter_unavailable")
				return
			}
			if !allowed {
				writeError(w, http.StatusTooManyRequests, "too_many_requests")
				return
			}
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "missing_access_token")
			return
		}
		p, err := svc.ProfileFromUserInfo(r.Context(), identity, endpoint, strings.TrimSpace(token))
		switch {
		case errors.Is(err, vipps.ErrProtocol):
			writeError(w, http.StatusUnauthorized, "userinfo_rejected")
		case err != nil:
			writeError(w, http.StatusBadGateway, "userinfo_unavailable")
		case p == nil:
			writeError(w, http.StatusForbidden, "not_vipps_identity")
		default:
			writeJSON(w, http.StatusOK, p)
		}
	})
}

// ProfileSaver persists profiles; identity.Store satisfies it.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, p *vipps.UserProfile) error
}

// SyncHandler stores the caller's current profile.
func SyncHandler(svc *vipps.Service, store ProfileSaver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := ProfileFromContext(r.Context())
		if !ok {
			if set, found := ClaimsFromContext(r.Context()); found {
				p = svc.ExtractProfile(set)
				ok = p != nil
			}
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, "vipps_identity_required")
			return
		}
		if err := store.SaveProfile(r.Context(), p); err != nil {
			writeError(w, http.StatusInternalServerError, "failed_to_save_profile")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sub": p.Sub})
	})
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
