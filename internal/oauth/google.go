// Package oauth verifies third-party identity credentials.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"google.golang.org/api/idtoken"
)

var (
	// ErrInvalidCredential is returned when the provider rejects or cannot vouch for the credential
	ErrInvalidCredential = errors.New("oauth: invalid credential")
	// ErrNotConfigured is returned when no client id is set
	ErrNotConfigured = errors.New("oauth: client id is not configured")
)

// googleIssuers are the iss values Google signs ID tokens with
var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// Profile is the verified identity behind a credential
type Profile struct {
	Email string
	Name  string
}

// Verifier checks an external credential and returns who it belongs to
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Profile, error)
}

// validateFunc checks signature, expiry and audience of an ID token
type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Google verifies Google Sign-In ID tokens against Google's published certificates
type Google struct {
	clientID string
	validate validateFunc
	timeout  time.Duration
}

// NewGoogle builds a verifier for tokens issued to clientID
func NewGoogle(clientID string) *Google {
	return &Google{
		clientID: clientID,
		validate: idtoken.Validate,
		timeout:  10 * time.Second,
	}
}

// Verify validates the ID token, then checks issuer and email before trusting it
func (g *Google) Verify(ctx context.Context, credential string) (*Profile, error) {
	if g.clientID == "" {
		return nil, ErrNotConfigured
	}
	if credential == "" {
		return nil, ErrInvalidCredential
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	payload, err := g.validate(ctx, credential, g.clientID)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) || ctx.Err() != nil {
			return nil, fmt.Errorf("oauth: fetch google certificates: %w", err) // Provider unreachable
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !googleIssuers[payload.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredential, payload.Issuer)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" || !claimTrue(payload.Claims["email_verified"]) {
		return nil, fmt.Errorf("%w: email missing or unverified", ErrInvalidCredential)
	}
	name, _ := payload.Claims["name"].(string)
	return &Profile{Email: email, Name: name}, nil
}

// claimTrue accepts both the boolean and the string form of a JWT flag
func claimTrue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}
