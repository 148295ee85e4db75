// Package testing provides a mock Vipps login authority for tests of
// applications that use vippskit. It serves OIDC discovery, a JWKS and a
// userinfo endpoint, and mints RS256 ID tokens that validate against the JWKS.
//
// Example usage:
//
//	issuer := testing.NewTestIssuer()
//	defer issuer.Close()
//
//	svc := vipps.NewService(issuer.Issuer())
//	issuer.SetUserInfo("access-token", map[string]any{"email": "ola@example.com"})
//	set := issuer.IdentityClaims(sub, map[string]any{"given_name": "Ola"})
package testing

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/PaulFidika/vippskit/claims"
	oidckit "github.com/PaulFidika/vippskit/oidc"
)

const keyID = "test-key-1"

// TestIssuer runs an HTTP server that looks like the Vipps access-management
// authority: the issuer is <server>/access-management-1.0/access/.
type TestIssuer struct {
	server   *httptest.Server
	key      *rsa.PrivateKey
	keys     jwk.Set
	clientID string

	mu       sync.Mutex
	userinfo map[string]map[string]any
}

// NewTestIssuer creates a test issuer for client id "test-app".
func NewTestIssuer() *TestIssuer {
	return NewTestIssuerWithClientID("test-app")
}

// NewTestIssuerWithClientID creates a test issuer whose tokens carry clientID as audience.
func NewTestIssuerWithClientID(clientID string) *TestIssuer {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("failed to generate RSA key: " + err.Error())
	}
	pub, err := jwk.FromRaw(&key.PublicKey)
	if err != nil {
		panic("failed to build JWK: " + err.Error())
	}
	_ = pub.Set(jwk.KeyIDKey, keyID)
	_ = pub.Set(jwk.AlgorithmKey, jwa.RS256)
	_ = pub.Set(jwk.KeyUsageKey, "sig")
	keys := jwk.NewSet()
	_ = keys.AddKey(pub)

	ti := &TestIssuer{
		key:      key,
		keys:     keys,
		clientID: clientID,
		userinfo: make(map[string]map[string]any),
	}

	base := "/" + strings.TrimSuffix(oidckit.AccessManagementPath, "/")
	mux := http.NewServeMux()
	mux.HandleFunc(base+"/.well-known/openid-configuration", ti.handleDiscovery)
	mux.HandleFunc(base+"/.well-known/jwks.json", ti.handleJWKS)
	mux.HandleFunc(base+"/userinfo", ti.handleUserInfo)

	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the base URL of the server.
func (ti *TestIssuer) URL() string { return ti.server.URL }

// Issuer returns the issuer URL, suitable as the configured extra authority.
func (ti *TestIssuer) Issuer() string {
	return ti.server.URL + "/" + oidckit.AccessManagementPath
}

// UserInfoEndpoint returns the userinfo URL advertised by discovery.
func (ti *TestIssuer) UserInfoEndpoint() string { return ti.Issuer() + "userinfo" }

// ClientID returns the audience placed in minted tokens.
func (ti *TestIssuer) ClientID() string { return ti.clientID }

// Client returns an HTTP client for the server.
func (ti *TestIssuer) Client() *http.Client { return ti.server.Client() }

// Close shuts down the test server.
func (ti *TestIssuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

// SetUserInfo registers the userinfo response for accessToken. Requests with
// any other token get a 401 with an OAuth error body.
func (ti *TestIssuer) SetUserInfo(accessToken string, body map[string]any) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.userinfo[accessToken] = body
}

func (ti *TestIssuer) identity(subject string, extra map[string]any) jwt.MapClaims {
	now := time.Now()
	mc := jwt.MapClaims{
		"iss": ti.Issuer(),
		"sub": subject,
		"aud": ti.clientID,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
	for k, v := range extra {
		mc[k] = v
	}
	return mc
}

// CreateIDToken mints a signed ID token for subject with extra claims merged in.
func (ti *TestIssuer) CreateIDToken(subject string, extra map[string]any) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, ti.identity(subject, extra))
	tok.Header["kid"] = keyID
	signed, err := tok.SignedString(ti.key)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return signed
}

// IdentityClaims returns the claim set an upstream OIDC middleware would hand
// over after validating CreateIDToken(subject, extra).
func (ti *TestIssuer) IdentityClaims(subject string, extra map[string]any) claims.Set {
	set, err := claims.FromMapClaims(ti.identity(subject, extra))
	if err != nil {
		panic("failed to convert claims: " + err.Error())
	}
	return set
}

// ParseIDToken validates a token minted by this issuer against its JWKS and
// returns its claims, the way an upstream middleware would.
func (ti *TestIssuer) ParseIDToken(ctx context.Context, token string) (claims.Set, error) {
	tok, err := jwxjwt.ParseString(token,
		jwxjwt.WithKeySet(ti.keys),
		jwxjwt.WithValidate(true),
		jwxjwt.WithIssuer(ti.Issuer()),
		jwxjwt.WithAudience(ti.clientID),
	)
	if err != nil {
		return nil, err
	}
	return claims.FromToken(ctx, tok)
}

func (ti *TestIssuer) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	issuer := ti.Issuer()
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                issuer,
		"authorization_endpoint":                issuer + "oauth2/auth",
		"token_endpoint":                        issuer + "oauth2/token",
		"jwks_uri":                              issuer + ".well-known/jwks.json",
		"userinfo_endpoint":                     ti.UserInfoEndpoint(),
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (ti *TestIssuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ti.keys)
}

func (ti *TestIssuer) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	ti.mu.Lock()
	body, known := ti.userinfo[token]
	ti.mu.Unlock()
	if !ok || !known {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_token",
			"error_description": "the access token is not valid",
		})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
