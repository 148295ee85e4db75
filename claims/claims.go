// Package claims models the claim collection handed over by an identity middleware.
//
// A Set is ordered and may hold several claims of the same type (for example one
// "other_addresses" claim per alternate address). Lookups are by exact type.
package claims

// Claim is a single named attribute about an authenticated principal.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Set is an ordered, read-only collection of claims.
type Set []Claim

// New builds a Set from alternating type/value pairs. A trailing type without
// a value is ignored.
func New(pairs ...string) Set {
	s := make(Set, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		s = append(s, Claim{Type: pairs[i], Value: pairs[i+1]})
	}
	return s
}

// FindFirst returns the value of the first claim with the given type.
func (s Set) FindFirst(claimType string) (string, bool) {
	for _, c := range s {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// FindAll returns the values of every claim with the given type, in order.
func (s Set) FindAll(claimType string) []string {
	var out []string
	for _, c := range s {
		if c.Type == claimType {
			out = append(out, c.Value)
		}
	}
	return out
}

// First walks types in priority order and returns the first present claim.
// A present claim wins even when its value is empty.
func (s Set) First(types ...string) (string, bool) {
	for _, t := range types {
		if v, ok := s.FindFirst(t); ok {
			return v, true
		}
	}
	return "", false
}

// Has reports whether any claim of the given type is present.
func (s Set) Has(claimType string) bool {
	_, ok := s.FindFirst(claimType)
	return ok
}

// Merge returns a new Set with other appended after s. Neither input is modified.
func (s Set) Merge(other Set) Set {
	out := make(Set, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}
