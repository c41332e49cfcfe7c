package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthConfig holds the credentials applied to outgoing requests
type AuthConfig struct {
	Type     AuthType `json:"type"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	Token    string   `json:"token,omitempty"`
}

type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
)

// Bearer returns an AuthConfig sending token as a bearer token.
func Bearer(token string) *AuthConfig {
	return &AuthConfig{Type: AuthTypeBearer, Token: token}
}

// OAuthSettings describes an OAuth 2.0 authorization-code client.
type OAuthSettings struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// OAuthClient wraps the authorization-code flow of an OAuth 2.0 provider.
type OAuthClient struct {
	config     *oauth2.Config
	httpClient *http.Client
}

type OAuthClientOption func(*OAuthClient)

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(client *http.Client) OAuthClientOption {
	return func(c *OAuthClient) {
		c.httpClient = client
	}
}

func NewOAuthClient(settings OAuthSettings, opts ...OAuthClientOption) (*OAuthClient, error) {
	if settings.ClientID == "" {
		return nil, fmt.Errorf("oauth client id cannot be empty")
	}
	if settings.AuthURL == "" || settings.TokenURL == "" {
		return nil, fmt.Errorf("oauth auth url and token url are required")
	}

	client := &OAuthClient{
		config: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			RedirectURL:  settings.RedirectURL,
			Scopes:       settings.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  settings.AuthURL,
				TokenURL: settings.TokenURL,
			},
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// AuthCodeURL returns the URL the user opens to grant access. state is
// echoed back on the redirect and must be checked by the callback.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("authorization code cannot be empty")
	}
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("got empty oauth token from the url: %s, and no error received", c.config.Endpoint.TokenURL)
	}
	return token.AccessToken, nil
}
