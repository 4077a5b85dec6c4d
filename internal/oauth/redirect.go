package oauth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/suicert/suicert/internal/config"
)

// Provider identifies an OpenID Connect login provider.
type Provider string

const (
	Google   Provider = "google"
	Facebook Provider = "facebook"
	Twitch   Provider = "twitch"
	Apple    Provider = "apple"
)

// ErrUnsupportedProvider marks a provider outside the registry. Fatal, not
// retryable.
var ErrUnsupportedProvider = errors.New("unsupported oauth provider")

type providerSpec struct {
	authURL      string
	scope        string
	responseType string
	responseMode string // empty unless the provider requires one
}

// One entry per supported provider. The redirect URI is shared and must match
// the provider's registered value exactly.
var providers = map[Provider]providerSpec{
	Google: {
		authURL:      "https://accounts.google.com/o/oauth2/v2/auth",
		scope:        "openid email",
		responseType: "id_token",
	},
	Facebook: {
		authURL:      "https://www.facebook.com/v17.0/dialog/oauth",
		scope:        "openid",
		responseType: "id_token",
	},
	Twitch: {
		authURL:      "https://id.twitch.tv/oauth2/authorize",
		scope:        "openid",
		responseType: "id_token",
	},
	Apple: {
		authURL:      "https://appleid.apple.com/auth/authorize",
		scope:        "email",
		responseType: "code id_token",
		responseMode: "form_post",
	},
}

// RedirectBuilder assembles provider authorization URLs with a bound nonce.
// Stateless; all provider specifics live in the table above.
type RedirectBuilder struct {
	cfg config.OAuthConfig
}

func NewRedirectBuilder(cfg config.OAuthConfig) *RedirectBuilder {
	return &RedirectBuilder{cfg: cfg}
}

func (b *RedirectBuilder) clientID(p Provider) string {
	switch p {
	case Google:
		return b.cfg.GoogleClientID
	case Facebook:
		return b.cfg.FacebookClientID
	case Twitch:
		return b.cfg.TwitchClientID
	case Apple:
		return b.cfg.AppleClientID
	}
	return ""
}

// BuildURL returns the authorization URL for the provider with the nonce
// embedded as an opaque query parameter.
func (b *RedirectBuilder) BuildURL(p Provider, nonce string) (string, error) {
	spec, ok := providers[p]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, p)
	}
	clientID := b.clientID(p)
	if clientID == "" {
		return "", fmt.Errorf("provider %s: missing client id", p)
	}

	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("response_type", spec.responseType)
	q.Set("redirect_uri", b.cfg.RedirectURL)
	q.Set("scope", spec.scope)
	q.Set("nonce", nonce)
	if spec.responseMode != "" {
		q.Set("response_mode", spec.responseMode)
	}
	return spec.authURL + "?" + q.Encode(), nil
}
