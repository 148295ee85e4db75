package vipps

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/PaulFidika/vippskit/claims"
)

// UserProfile is the typed view of a trusted Vipps claim set.
type UserProfile struct {
	Sub                    uuid.UUID `json:"sub"`
	BirthDate              time.Time `json:"-"`
	Email                  string    `json:"email,omitempty"`
	EmailVerified          bool      `json:"email_verified"`
	FamilyName             string    `json:"family_name,omitempty"`
	GivenName              string    `json:"given_name,omitempty"`
	Name                   string    `json:"name,omitempty"`
	PhoneNumber            string    `json:"phone_number,omitempty"`
	NationalIdentityNumber string    `json:"nnin,omitempty"`
	Addresses              []Address `json:"addresses"`
}

// HasBirthDate reports whether a birth date was present and parsable.
func (p *UserProfile) HasBirthDate() bool { return !p.BirthDate.IsZero() }

// MarshalJSON renders birthdate as yyyy-MM-dd and omits it when unknown.
func (p UserProfile) MarshalJSON() ([]byte, error) {
	type plain UserProfile
	out := struct {
		plain
		BirthDate string `json:"birthdate,omitempty"`
	}{plain: plain(p)}
	if p.HasBirthDate() {
		out.BirthDate = p.BirthDate.Format("2006-01-02")
	}
	return json.Marshal(out)
}

// profileField maps one profile field to its claim names in priority order.
// The first present claim wins, even when its value is empty.
type profileField struct {
	name    string
	aliases []string
	set     func(s *Service, p *UserProfile, value string, ok bool)
}

var profileFields = []profileField{
	{"birthdate", []string{claims.BirthDate, claims.LegacyDateOfBirth},
		func(s *Service, p *UserProfile, v string, ok bool) { p.BirthDate = s.dates.ParseClaim(v, ok) }},
	{"email", []string{claims.Email, claims.LegacyEmail},
		func(_ *Service, p *UserProfile, v string, ok bool) { p.Email = ParseString(v, ok) }},
	{"email_verified", []string{claims.EmailVerified},
		func(_ *Service, p *UserProfile, v string, ok bool) { p.EmailVerified = ParseBool(v, ok) }},
	{"family_name", []string{claims.FamilyName, claims.LegacySurname},
		func(_ *Service, p *UserProfile, v string, ok bool) { p.FamilyName = ParseString(v, ok) }},
	{"given_name", []string{claims.GivenName, claims.LegacyGivenName},
		func(_ *Service, p *UserProfile, v string, ok bool) { p.GivenName = ParseString(v, ok) }},
	{"name", []string{claims.Name, claims.LegacyName},
		func(_ *Service, p *UserProfile, v string, ok bool) { p.Name = ParseString(v, ok) }},
	{"phone_number", []string{claims.PhoneNumber, claims.LegacyHomePhone, claims.LegacyMobilePhone, claims.LegacyOtherPhone},
		func(_ *Service, p *UserProfile, v string, ok bool) { p.PhoneNumber = ParseString(v, ok) }},
	{"nnin", []string{claims.NationalIdentityNumber},
		func(_ *Service, p *UserProfile, v string, ok bool) { p.NationalIdentityNumber = ParseString(v, ok) }},
}

var subjectAliases = []string{claims.Subject, claims.LegacyNameIdentifier}

// Subject returns the subject of a trusted claim set. ok is false when the set
// is untrusted or its subject is missing or not a UUID.
func (s *Service) Subject(set claims.Set) (uuid.UUID, bool) {
	if !s.IsTrustedIdentity(set) {
		return uuid.Nil, false
	}
	raw, _ := set.First(subjectAliases...)
	sub, err := uuid.Parse(raw)
	return sub, err == nil
}

// ExtractProfile returns the profile for a trusted claim set, or nil when the
// set is untrusted or its subject is missing or not a UUID. Every other field
// degrades to its zero value on its own.
func (s *Service) ExtractProfile(set claims.Set) *UserProfile {
	if !s.IsTrustedIdentity(set) {
		s.metrics.extraction("untrusted")
		return nil
	}
	raw, _ := set.First(subjectAliases...)
	sub, err := uuid.Parse(raw)
	if err != nil {
		s.metrics.extraction("bad_subject")
		s.log.Debug("vipps: claim set has no usable subject")
		return nil
	}

	p := &UserProfile{Sub: sub}
	for _, f := range profileFields {
		v, ok := set.First(f.aliases...)
		f.set(s, p, v, ok)
	}
	p.Addresses = s.ExtractAddresses(set)
	s.metrics.extraction("ok")
	return p
}
