package claims

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	jwt "github.com/golang-jwt/jwt/v5"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

// FromMap flattens a decoded JSON claims object into a Set. Keys are visited in
// sorted order so the result is deterministic. Arrays become one claim per
// element and objects are re-encoded as compact JSON strings, which is how
// structured claims such as "address" travel through identity middleware.
func FromMap(m map[string]any) (Set, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := make(Set, 0, len(m))
	for _, k := range keys {
		var err error
		s, err = appendValue(s, k, m[k])
		if err != nil {
			return nil, fmt.Errorf("claims: %s: %w", k, err)
		}
	}
	return s, nil
}

// FromMapClaims converts golang-jwt map claims into a Set.
func FromMapClaims(mc jwt.MapClaims) (Set, error) {
	return FromMap(map[string]any(mc))
}

// FromToken converts a parsed (and already verified) jwx token into a Set.
func FromToken(ctx context.Context, tok jwxjwt.Token) (Set, error) {
	if tok == nil {
		return nil, nil
	}
	m, err := tok.AsMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("claims: token to map: %w", err)
	}
	return FromMap(m)
}

// FromJSON decodes a JSON claims object, such as a userinfo response body.
func FromJSON(data []byte) (Set, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("claims: decode json: %w", err)
	}
	return FromMap(m)
}

func appendValue(s Set, claimType string, v any) (Set, error) {
	switch x := v.(type) {
	case nil:
		return s, nil
	case string:
		return append(s, Claim{Type: claimType, Value: x}), nil
	case bool:
		return append(s, Claim{Type: claimType, Value: strconv.FormatBool(x)}), nil
	case json.Number:
		return append(s, Claim{Type: claimType, Value: x.String()}), nil
	case float64:
		return append(s, Claim{Type: claimType, Value: strconv.FormatFloat(x, 'f', -1, 64)}), nil
	case int64:
		return append(s, Claim{Type: claimType, Value: strconv.FormatInt(x, 10)}), nil
	case int:
		return append(s, Claim{Type: claimType, Value: strconv.Itoa(x)}), nil
	case time.Time:
		return append(s, Claim{Type: claimType, Value: strconv.FormatInt(x.Unix(), 10)}), nil
	case []string:
		for _, e := range x {
			s = append(s, Claim{Type: claimType, Value: e})
		}
		return s, nil
	case []any:
		var err error
		for _, e := range x {
			if s, err = appendValue(s, claimType, e); err != nil {
				return nil, err
			}
		}
		return s, nil
	case fmt.Stringer:
		return append(s, Claim{Type: claimType, Value: x.String()}), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return append(s, Claim{Type: claimType, Value: string(b)}), nil
	}
}
