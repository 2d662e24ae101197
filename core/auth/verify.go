package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/irsalhamdi/course-cache/config"
)

// Identity is what a verified identity-provider token says about the user.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)

	// TrustsRoleHint reports whether a role sent alongside the token may
	// stand in for one the token lacks.
	TrustsRoleHint() bool
}

type tokenClaims struct {
	Email          string `json:"email"`
	PublicMetadata struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

// OIDCVerifier checks identity-provider tokens and reads the role the
// provider keeps in the token's public metadata.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
	dev      bool
}

// Discover fetches the provider configuration and signing keys of
// cfg.Issuer. Without an issuer it returns a verifier that only decodes
// tokens, which is meant for local development against a stub API.
func Discover(ctx context.Context, cfg config.Auth) (*OIDCVerifier, error) {
	if cfg.Issuer == "" {
		return Unverified(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DiscoveryTimeout)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discovering identity provider %s: %w", cfg.Issuer, err)
	}

	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{
		ClientID:                   cfg.ClientID,
		SkipClientIDCheck:          cfg.ClientID == "",
		InsecureSkipSignatureCheck: cfg.SkipSignatureCheck,
	})}, nil
}

// NewOIDCVerifier builds a verifier from an explicit key set.
func NewOIDCVerifier(issuer string, keys oidc.KeySet, cfg *oidc.Config) *OIDCVerifier {
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keys, cfg)}
}

// Unverified decodes tokens without checking issuer, audience or
// signature. Expiry is still enforced. Role hints are trusted, since
// nothing else about the caller is.
func Unverified() *OIDCVerifier {
	v := NewOIDCVerifier("", nil, &oidc.Config{
		SkipClientIDCheck:          true,
		SkipIssuerCheck:            true,
		InsecureSkipSignatureCheck: true,
	})
	v.dev = true
	return v
}

func (v *OIDCVerifier) TrustsRoleHint() bool { return v.dev }

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, fmt.Errorf("verifying identity token: %w", err)
	}

	if tok.Subject == "" {
		return Identity{}, errors.New("identity token has no subject")
	}

	var c tokenClaims
	if err := tok.Claims(&c); err != nil {
		return Identity{}, fmt.Errorf("reading identity token claims: %w", err)
	}

	return Identity{
		UserID: tok.Subject,
		Email:  c.Email,
		Role:   c.PublicMetadata.Role,
	}, nil
}
