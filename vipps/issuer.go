package vipps

import (
	"strings"

	"github.com/PaulFidika/vippskit/claims"
	oidckit "github.com/PaulFidika/vippskit/oidc"
)

// trustedIssuers returns the fixed Vipps API bases followed by authority when
// it is not blank.
func trustedIssuers(authority string) []string {
	out := []string{oidckit.VippsTestAPI, oidckit.VippsProdAPI}
	if strings.TrimSpace(authority) != "" {
		out = append(out, authority)
	}
	return out
}

// IsTrustedIdentity reports whether the set's iss claim starts with a trusted
// issuer prefix. Issuers carry environment paths below the API base, so this is
// a prefix match rather than equality.
func (s *Service) IsTrustedIdentity(set claims.Set) bool {
	if len(set) == 0 {
		return false
	}
	iss, ok := set.FindFirst(claims.Issuer)
	if !ok {
		return false
	}
	for _, prefix := range s.issuers {
		if strings.HasPrefix(iss, prefix) {
			return true
		}
	}
	return false
}

// TrustedIssuers returns a copy of the trusted issuer prefixes in match order.
func (s *Service) TrustedIssuers() []string {
	return append([]string(nil), s.issuers...)
}
