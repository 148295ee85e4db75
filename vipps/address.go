package vipps

import (
	"bytes"
	"errors"
	"strings"

	"github.com/goccy/go-json"

	"github.com/PaulFidika/vippskit/claims"
)

// Address is one postal address from the Vipps address claims. Sub-fields the
// kit does not model, and modelled fields that arrived empty or non-string, are
// kept verbatim in Extra so re-encoding preserves them.
type Address struct {
	AddressType   string
	IsPreferred   bool
	Country       string
	Formatted     string
	PostalCode    string
	Region        string
	StreetAddress string
	Extra         map[string]json.RawMessage
}

const (
	keyAddressType   = "address_type"
	keyIsPreferred   = "is_preferred"
	keyCountry       = "country"
	keyFormatted     = "formatted"
	keyPostalCode    = "postal_code"
	keyRegion        = "region"
	keyStreetAddress = "street_address"
)

var (
	errAddressNotObject   = errors.New("vipps: address claim is not a JSON object")
	errAddressMissingType = errors.New("vipps: address_type missing or blank")
)

func (a *Address) field(key string) *string {
	switch key {
	case keyAddressType:
		return &a.AddressType
	case keyCountry:
		return &a.Country
	case keyFormatted:
		return &a.Formatted
	case keyPostalCode:
		return &a.PostalCode
	case keyRegion:
		return &a.Region
	case keyStreetAddress:
		return &a.StreetAddress
	}
	return nil
}

// MarshalJSON writes the modelled fields, Extra, and is_preferred. Keys come out
// sorted, so equal addresses encode to equal bytes.
func (a Address) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.Extra)+7)
	for k, v := range a.Extra {
		out[k] = v
	}
	for _, k := range []string{keyAddressType, keyCountry, keyFormatted, keyPostalCode, keyRegion, keyStreetAddress} {
		if v := *a.field(k); v != "" {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			out[k] = b
		}
	}
	if a.IsPreferred {
		out[keyIsPreferred] = json.RawMessage("true")
	} else {
		out[keyIsPreferred] = json.RawMessage("false")
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads an address object, including is_preferred. It does not
// apply the address_type rule; ExtractAddresses does.
func (a *Address) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errAddressNotObject
	}
	var preferred bool
	if raw, ok := fields[keyIsPreferred]; ok {
		_ = json.Unmarshal(raw, &preferred)
	}
	*a = addressFromFields(fields)
	a.IsPreferred = preferred
	return nil
}

func addressFromFields(fields map[string]json.RawMessage) Address {
	var a Address
	for k, raw := range fields {
		if k == keyIsPreferred {
			continue
		}
		if dst := a.field(k); dst != nil {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				*dst = s
				continue
			}
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			a.Extra[k] = buf.Bytes()
		} else {
			a.Extra[k] = append(json.RawMessage(nil), raw...)
		}
	}
	return a
}

// decodeAddress checks address_type on the raw object before materializing
// the record. The preferred flag comes from the claim, never from the body.
func decodeAddress(raw json.RawMessage, preferred bool) (Address, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Address{}, err
	}
	if fields == nil {
		return Address{}, errAddressNotObject
	}
	typ := addressTypeOf(fields[keyAddressType])
	if strings.TrimSpace(typ) == "" {
		return Address{}, errAddressMissingType
	}
	a := addressFromFields(fields)
	a.AddressType = typ
	delete(a.Extra, keyAddressType)
	if len(a.Extra) == 0 {
		a.Extra = nil
	}
	a.IsPreferred = preferred
	return a, nil
}

// addressTypeOf returns the discriminator text. Strings are taken as they are,
// other scalars by their literal JSON text (7 reads as "7"). Null, objects and
// arrays read as missing.
func addressTypeOf(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if json.Unmarshal(trimmed, &s) != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	}
	return string(trimmed)
}

// decodeAddressClaim decodes one claim value. A value holding a JSON array is
// treated as several occurrences.
func decodeAddressClaim(value string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ExtractAddresses decodes every address claim (preferred) followed by every
// other_addresses claim (not preferred). Occurrences that are malformed or lack
// a non-blank address_type are dropped. Exact duplicates collapse to the first.
// The result is never nil.
func (s *Service) ExtractAddresses(set claims.Set) []Address {
	out := make([]Address, 0)
	seen := make(map[string]struct{})
	add := func(claimType string, preferred bool) {
		for _, value := range set.FindAll(claimType) {
			items, err := decodeAddressClaim(value)
			if err != nil {
				s.dropAddress(claimType, err)
				continue
			}
			for _, item := range items {
				a, err := decodeAddress(item, preferred)
				if err != nil {
					s.dropAddress(claimType, err)
					continue
				}
				key, err := a.MarshalJSON()
				if err != nil {
					s.dropAddress(claimType, err)
					continue
				}
				if _, dup := seen[string(key)]; dup {
					continue
				}
				seen[string(key)] = struct{}{}
				out = append(out, a)
			}
		}
	}
	add(claims.Address, true)
	add(claims.OtherAddresses, false)
	return out
}

func (s *Service) dropAddress(claimType string, err error) {
	if errors.Is(err, errAddressMissingType) {
		s.metrics.droppedAddress("missing_type")
		s.log.WithField("claim", claimType).Debug("vipps: dropped address without address_type")
		return
	}
	s.metrics.droppedAddress("malformed_json")
	// The decoder error can quote the claim body, so it is not logged.
	s.log.WithField("claim", claimType).Warn("vipps: dropped malformed address claim")
}
