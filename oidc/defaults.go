package oidckit

import "strings"

// Vipps API base URLs. Issuers of genuine Vipps identities start with one of these.
const (
	VippsTestAPI = "https://apitest.vipps.no/"
	VippsProdAPI = "https://api.vipps.no/"
)

// AccessManagementPath is the login authority path below the API base URL.
const AccessManagementPath = "access-management-1.0/access/"

// Environment selects the Vipps API environment.
type Environment string

const (
	EnvironmentTest       Environment = "test"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment maps common spellings onto an Environment. Anything that is
// not recognisably production is treated as test.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return EnvironmentProduction
	default:
		return EnvironmentTest
	}
}

// RPClient describes a Vipps login client with minimal fields.
type RPClient struct {
	Issuer string
	Scopes []string
}

// DefaultScopes are the scopes needed to receive every claim the profile extractor reads.
var DefaultScopes = []string{"openid", "name", "email", "phoneNumber", "address", "birthDate", "nin", "api_version_2"}

// DefaultsFor returns the issuer and scopes for a Vipps environment.
func DefaultsFor(env Environment) RPClient {
	base := VippsTestAPI
	if env == EnvironmentProduction {
		base = VippsProdAPI
	}
	return RPClient{
		Issuer: base + AccessManagementPath,
		Scopes: ensureOpenID(append([]string(nil), DefaultScopes...)),
	}
}

func ensureOpenID(scopes []string) []string {
	for _, s := range scopes {
		if s == "openid" {
			return scopes
		}
	}
	return append(scopes, "openid")
}

// MergeScopes returns base plus any extra scopes not already present, keeping order.
func MergeScopes(base, extra []string) []string {
	set := map[string]struct{}{}
	out := make([]string, 0, len(base)+len(extra))
	for _, s := range append(append([]string(nil), base...), extra...) {
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	return ensureOpenID(out)
}
