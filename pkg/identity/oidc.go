package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

type oidcVerifier struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
}

// NewOIDCVerifier discovers the issuer's signing keys and returns a Verifier
// for its ID tokens. The role is read from roleClaim, which may hold a string
// or a list of strings; the most privileged known role wins.
func NewOIDCVerifier(ctx context.Context, issuer, clientID, roleClaim string) (Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	return &oidcVerifier{
		verifier:  provider.Verifier(&oidc.Config{ClientID: clientID}),
		roleClaim: roleClaim,
	}, nil
}

func (v *oidcVerifier) Verify(ctx context.Context, token string) (Caller, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return newCaller(idToken.Subject, roleFromClaim(claims[v.roleClaim]))
}

func roleFromClaim(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		role := ""
		for _, item := range v {
			s, ok := item.(string)
			if !ok || !Role(s).Valid() {
				continue
			}
			if Role(s).Privileged() {
				return s
			}
			role = s
		}
		return role
	}
	return ""
}
