package oidckit

import (
	"context"
	"errors"
	"fmt"

	"github.com/PaulFidika/vippskit/claims"
)

// ErrProtocol matches every non-success answer from a provider endpoint.
var ErrProtocol = errors.New("oidc: protocol error")

// ProtocolError describes a non-success userinfo response. It satisfies
// errors.Is(err, ErrProtocol).
type ProtocolError struct {
	Endpoint    string
	StatusCode  int
	Status      string
	Code        string // OAuth "error" member when the body carried one
	Description string // OAuth "error_description"
}

func (e *ProtocolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("oidc: userinfo request failed: %s (%s)", e.Status, e.Code)
	}
	return fmt.Sprintf("oidc: userinfo request failed: %s", e.Status)
}

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// ClaimsCache stores userinfo claim sets keyed by an access-token fingerprint.
// Implementations own their TTL.
type ClaimsCache interface {
	Put(ctx context.Context, key string, set claims.Set) error
	Get(ctx context.Context, key string) (claims.Set, bool, error)
	Del(ctx context.Context, key string) error
}
