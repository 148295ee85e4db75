// Package vipps turns the claim set of a Vipps login into a typed UserProfile.
//
// The Service gates on the issuer, maps scalar claims through a fixed alias
// table, and decodes the JSON address claims. It is safe for concurrent use.
// Fetching extra claims from the userinfo endpoint is delegated to a
// UserInfoFetcher, by default an oidckit.UserInfoClient.
package vipps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/PaulFidika/vippskit/backends"
	"github.com/PaulFidika/vippskit/claims"
	"github.com/PaulFidika/vippskit/config"
	oidckit "github.com/PaulFidika/vippskit/oidc"
)

// ErrProtocol is returned, wrapped, when the userinfo endpoint answers with a
// non-success status.
var ErrProtocol = oidckit.ErrProtocol

// ErrSubjectMismatch is returned when the userinfo response names a different
// subject than the identity. It matches ErrProtocol.
var ErrSubjectMismatch = fmt.Errorf("%w: userinfo sub does not match identity", ErrProtocol)

// UserInfoFetcher performs one userinfo request.
type UserInfoFetcher interface {
	FetchUserInfo(ctx context.Context, endpoint, accessToken string) (claims.Set, error)
}

// Service extracts profiles from Vipps claim sets.
type Service struct {
	issuers []string
	fetcher UserInfoFetcher
	log     logrus.FieldLogger
	metrics *Metrics
	dates   DateProfile

	// used only to build the default fetcher
	httpClient *http.Client
	timeout    time.Duration
	cache      oidckit.ClaimsCache
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithUserInfoFetcher replaces the default userinfo client.
func WithUserInfoFetcher(f UserInfoFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithHTTPClient sets the base HTTP client of the default userinfo client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// WithUserInfoTimeout bounds each userinfo request of the default client.
func WithUserInfoTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClaimsCache caches userinfo responses in the default client.
func WithClaimsCache(c oidckit.ClaimsCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithDateLocale picks the birth date profile for the preferred locales.
// Defaults to NorwegianDates.
func WithDateLocale(preferred ...language.Tag) Option {
	return func(s *Service) { s.dates = DateProfileFor(preferred...) }
}

// NewService creates a Service. authority is the optional extra trusted issuer
// prefix; blank means only the Vipps test and production APIs are trusted.
func NewService(authority string, opts ...Option) *Service {
	s := &Service{issuers: trustedIssuers(authority), dates: NorwegianDates}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.fetcher == nil {
		s.fetcher = oidckit.NewUserInfoClient(oidckit.UserInfoConfig{
			Timeout:    s.timeout,
			HTTPClient: s.httpClient,
			Cache:      s.cache,
			Logger:     s.log,
		})
	}
	return s
}

// NewServiceFromConfig creates a Service from loaded configuration. The
// userinfo cache comes from b, which may be nil. Options are applied after the
// configured values.
func NewServiceFromConfig(cfg config.Config, b *backends.Backends, opts ...Option) *Service {
	base := []Option{
		WithUserInfoTimeout(cfg.UserInfoTimeout),
		WithDateLocale(cfg.DateLocale()),
	}
	if b != nil && b.Cache != nil {
		base = append(base, WithClaimsCache(b.Cache))
	}
	return NewService(cfg.ExtraAuthority(), append(base, opts...)...)
}

// FetchAdditionalClaims gets the userinfo claims for accessToken. A non-success
// answer from the endpoint matches errors.Is(err, ErrProtocol); nothing partial
// is returned.
func (s *Service) FetchAdditionalClaims(ctx context.Context, endpoint, accessToken string) (claims.Set, error) {
	set, err := s.fetcher.FetchUserInfo(ctx, endpoint, accessToken)
	if err != nil {
		if errors.Is(err, ErrProtocol) {
			s.metrics.userInfo("protocol_error")
		} else {
			s.metrics.userInfo("error")
		}
		return nil, fmt.Errorf("vipps: fetch additional claims: %w", err)
	}
	s.metrics.userInfo("ok")
	return set, nil
}

// ProfileFromUserInfo fetches userinfo for a trusted identity and extracts the
// profile from the identity claims followed by the userinfo claims. Identity
// claims win for single-valued fields; addresses are collected from both.
// An identity that is untrusted or has no valid subject returns (nil, nil)
// without calling the endpoint. A userinfo sub other than the identity's
// yields ErrSubjectMismatch.
func (s *Service) ProfileFromUserInfo(ctx context.Context, identity claims.Set, endpoint, accessToken string) (*UserProfile, error) {
	sub, ok := s.Subject(identity)
	if !ok {
		s.metrics.extraction("untrusted")
		return nil, nil
	}
	extra, err := s.FetchAdditionalClaims(ctx, endpoint, accessToken)
	if err != nil {
		return nil, err
	}
	if got, err := uuid.Parse(firstValue(extra, claims.Subject)); err != nil || got != sub {
		s.metrics.userInfo("subject_mismatch")
		s.log.WithField("endpoint", endpoint).Warn("vipps: userinfo subject does not match identity")
		return nil, ErrSubjectMismatch
	}
	return s.ExtractProfile(identity.Merge(extra)), nil
}

func firstValue(set claims.Set, claimType string) string {
	v, _ := set.FindFirst(claimType)
	return v
}
