package vippshttp

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/PaulFidika/vippskit/backends"
	"github.com/PaulFidika/vippskit/config"
	"github.com/PaulFidika/vippskit/identity"
	oidckit "github.com/PaulFidika/vippskit/oidc"
	"github.com/PaulFidika/vippskit/vipps"
)

// Kit is everything a net/http server needs to serve Vipps profiles, built
// from one Config.
type Kit struct {
	Service      *vipps.Service
	Store        *identity.Store
	Backends     *backends.Backends
	RelyingParty *oidckit.RelyingParty
	// OAuth2 is the client config for the upstream login flow.
	OAuth2 oauth2.Config
}

// New discovers cfg.DiscoveryIssuer, opens the profile store and picks the
// userinfo cache and limiter. Close releases what it opened.
func New(ctx context.Context, cfg config.Config, opts ...vipps.Option) (*Kit, error) {
	rp, err := oidckit.NewRelyingParty(ctx, cfg.DiscoveryIssuer(), nil)
	if err != nil {
		return nil, err
	}
	store, err := identity.NewStoreFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b := backends.New(cfg)
	return &Kit{
		Service:      vipps.NewServiceFromConfig(cfg, b, opts...),
		Store:        store,
		Backends:     b,
		RelyingParty: rp,
		OAuth2: oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: rp.Endpoint(),
			Scopes:   oidckit.DefaultsFor(cfg.Env()).Scopes,
		},
	}, nil
}

// Handler serves the profile routes. Upstream authentication must put the
// claim set on the request context with WithClaims.
//
//	GET  /vipps/profile
//	GET  /vipps/userinfo
//	POST /vipps/profile/sync
func (k *Kit) Handler() http.Handler {
	var rl RateLimiter
	if k.Backends.Limiter != nil {
		rl = k.Backends.Limiter
	}
	mux := http.NewServeMux()
	mux.Handle("GET /vipps/profile", ProfileHandler(k.Service))
	mux.Handle("GET /vipps/userinfo", UserInfoHandler(k.Service, k.RelyingParty.UserInfoEndpoint(), rl))
	mux.Handle("POST /vipps/profile/sync", SyncHandler(k.Service, k.Store))
	return Middleware(k.Service)(mux)
}

// Close releases the store pool and the backends.
func (k *Kit) Close() error {
	k.Store.Close()
	return k.Backends.Close()
}
