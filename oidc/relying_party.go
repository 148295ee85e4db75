package oidckit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// RelyingParty holds discovery-backed OIDC metadata for the Vipps authority.
type RelyingParty struct {
	issuer      string
	userInfoURL string
	endpoint    oauth2.Endpoint
}

// NewRelyingParty discovers OIDC metadata for issuer. A nil client uses
// http.DefaultClient.
func NewRelyingParty(ctx context.Context, issuer string, client *http.Client) (*RelyingParty, error) {
	if strings.TrimSpace(issuer) == "" {
		return nil, errors.New("oidc: issuer is empty")
	}
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discovery for %s: %w", issuer, err)
	}
	if provider.UserInfoEndpoint() == "" {
		return nil, errors.New("oidc: discovery missing userinfo_endpoint")
	}
	return &RelyingParty{
		issuer:      issuer,
		userInfoURL: provider.UserInfoEndpoint(),
		endpoint:    provider.Endpoint(),
	}, nil
}

// Issuer returns the issuer URL associated with the relying party.
func (rp *RelyingParty) Issuer() string { return rp.issuer }

// UserInfoEndpoint returns the discovered userinfo endpoint.
func (rp *RelyingParty) UserInfoEndpoint() string { return rp.userInfoURL }

// Endpoint returns the discovered OAuth2 authorization and token endpoints,
// for handing to the upstream login middleware.
func (rp *RelyingParty) Endpoint() oauth2.Endpoint { return rp.endpoint }
