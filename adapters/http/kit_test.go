package vippshttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulFidika/vippskit/config"
	oidckit "github.com/PaulFidika/vippskit/oidc"
	vippstest "github.com/PaulFidika/vippskit/testing"
	"github.com/PaulFidika/vippskit/vipps"
)

func TestNew_WiresConfig(t *testing.T) {
	ti := vippstest.NewTestIssuerWithClientID("merchant-client")
	defer ti.Close()
	ti.SetUserInfo("good", map[string]any{"sub": sub, "email": "ola@example.com"})

	logger, _ := logtest.NewNullLogger()
	cfg := config.Config{
		Authority:         ti.Issuer(),
		ClientID:          "merchant-client",
		UserInfoCacheTTL:  time.Minute,
		UserInfoRateLimit: 1,
		DatabaseSchema:    "vipps",
	}
	kit, err := New(context.Background(), cfg, vipps.WithLogger(logger))
	require.NoError(t, err)
	defer func() { _ = kit.Close() }()

	assert.Equal(t, ti.UserInfoEndpoint(), kit.RelyingParty.UserInfoEndpoint())
	assert.Equal(t, "merchant-client", kit.OAuth2.ClientID)
	assert.True(t, strings.HasSuffix(kit.OAuth2.Endpoint.TokenURL, "/oauth2/token"))
	assert.Contains(t, kit.OAuth2.Scopes, "openid")
	assert.Equal(t, "vipps", kit.Store.Schema())

	h := withClaims(ti.IdentityClaims(sub, nil), kit.Handler())
	call := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, call(http.MethodGet, "/vipps/userinfo").Code)
	_, cached, err := kit.Backends.Cache.Get(context.Background(), oidckit.CacheKey(ti.UserInfoEndpoint(), "good"))
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, http.StatusTooManyRequests, call(http.MethodGet, "/vipps/userinfo").Code)

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/vipps/profile").Code)
	assert.Equal(t, http.StatusOK, call(http.MethodPost, "/vipps/profile/sync").Code)
}

func TestNew_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := New(context.Background(), config.Config{Authority: srv.URL + "/"})
	assert.Error(t, err)
}
