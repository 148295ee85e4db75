package oidckit

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/oauth2"

	"github.com/PaulFidika/vippskit/claims"
)

const maxUserInfoBody = 1 << 20

// UserInfoConfig configures the userinfo client.
type UserInfoConfig struct {
	// Timeout bounds a single request; <= 0 means 10 seconds.
	Timeout time.Duration
	// HTTPClient is the base client the bearer transport wraps. Optional.
	HTTPClient *http.Client
	// Cache is consulted before calling the endpoint. Optional.
	Cache ClaimsCache
	Logger logrus.FieldLogger
}

// UserInfoClient fetches additional claims from a provider userinfo endpoint.
type UserInfoClient struct {
	base    *http.Client
	timeout time.Duration
	cache   ClaimsCache
	log     logrus.FieldLogger
}

// NewUserInfoClient creates a userinfo client.
func NewUserInfoClient(cfg UserInfoConfig) *UserInfoClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UserInfoClient{base: base, timeout: timeout, cache: cfg.Cache, log: log}
}

// CacheKey fingerprints an endpoint/token pair so raw tokens never reach the cache.
func CacheKey(endpoint, accessToken string) string {
	sum := blake2b.Sum256([]byte(endpoint + "\x00" + accessToken))
	return hex.EncodeToString(sum[:])
}

// FetchUserInfo performs one GET against endpoint with accessToken as bearer
// credential and returns the response as a claim set. A non-2xx answer yields a
// *ProtocolError; no partial claims are returned.
func (c *UserInfoClient) FetchUserInfo(ctx context.Context, endpoint, accessToken string) (claims.Set, error) {
	if endpoint == "" {
		return nil, errors.New("oidc: userinfo endpoint is empty")
	}
	if accessToken == "" {
		return nil, errors.New("oidc: access token is empty")
	}

	key := CacheKey(endpoint, accessToken)
	if c.cache != nil {
		set, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.WithError(err).Warn("oidc: userinfo cache read failed")
		} else if ok {
			return set, nil
		}
	}

	set, err := c.fetch(ctx, endpoint, accessToken)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, set); err != nil {
			c.log.WithError(err).Warn("oidc: userinfo cache write failed")
		}
	}
	return set, nil
}

// Forget drops a cached userinfo response, e.g. after logout.
func (c *UserInfoClient) Forget(ctx context.Context, endpoint, accessToken string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Del(ctx, CacheKey(endpoint, accessToken))
}

func (c *UserInfoClient) fetch(ctx context.Context, endpoint, accessToken string) (claims.Set, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpClient := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, c.base),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("oidc: create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oidc: fetch userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBody))
	if err != nil {
		return nil, fmt.Errorf("oidc: read userinfo body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &ProtocolError{Endpoint: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
		var oauthErr struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal(body, &oauthErr) == nil {
			perr.Code = oauthErr.Error
			perr.Description = oauthErr.Description
		}
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"code":   perr.Code,
		}).Warn("oidc: userinfo endpoint rejected request")
		return nil, perr
	}

	set, err := claims.FromJSON(body)
	if err != nil {
		return nil, fmt.Errorf("oidc: parse userinfo: %w", err)
	}
	return set, nil
}
