package oauth

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func googleWith(payload *idtoken.Payload, err error) *Google {
	g := NewGoogle("client-1")
	g.validate = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "cred-1" || audience != "client-1" {
			return nil, errors.New("idtoken: audience provided does not match aud claim in the JWT")
		}
		return payload, err
	}
	return g
}

func payloadOf(issuer string, claims map[string]any) *idtoken.Payload {
	return &idtoken.Payload{Issuer: issuer, Audience: "client-1", Claims: claims}
}

func TestGoogle_Verify(t *testing.T) {
	g := googleWith(payloadOf("https://accounts.google.com", map[string]any{
		"email": "a@example.com", "email_verified": true, "name": "Ana",
	}), nil)

	p, err := g.Verify(context.Background(), "cred-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, "Ana", p.Name)
}

func TestGoogle_Verify_StringEmailVerified(t *testing.T) {
	g := googleWith(payloadOf("accounts.google.com", map[string]any{
		"email": "a@example.com", "email_verified": "true",
	}), nil)

	p, err := g.Verify(context.Background(), "cred-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Empty(t, p.Name)
}

func TestGoogle_Verify_Rejects(t *testing.T) {
	cases := map[string]struct {
		payload *idtoken.Payload
		err     error
		token   string
	}{
		"foreign issuer":   {payload: payloadOf("https://evil.example", map[string]any{"email": "a@example.com", "email_verified": true})},
		"unverified email": {payload: payloadOf("accounts.google.com", map[string]any{"email": "a@example.com", "email_verified": false})},
		"no email":         {payload: payloadOf("accounts.google.com", map[string]any{"email_verified": true})},
		"expired token":    {err: errors.New("idtoken: token expired")},
		"other audience":   {token: "cred-for-someone-else"},
		"empty credential": {token: ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			token := "cred-1"
			if tc.payload == nil && tc.err == nil {
				token = tc.token
			}
			_, err := googleWith(tc.payload, tc.err).Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestGoogle_Verify_ProviderUnreachable(t *testing.T) {
	unreachable := &url.Error{Op: "Get", URL: "https://www.googleapis.com/oauth2/v3/certs", Err: errors.New("connection refused")}

	_, err := googleWith(nil, unreachable).Verify(context.Background(), "cred-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
}

func TestGoogle_Verify_NotConfigured(t *testing.T) {
	_, err := NewGoogle("").Verify(context.Background(), "cred-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
