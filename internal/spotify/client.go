// Package spotify wraps the Spotify Web API for catalog search and playback
// links. The recommendation core never touches the network; this client only
// enriches presentation output and is constructed when credentials are
// configured.
package spotify

import (
	"context"
	"errors"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNoCredentials is returned when search is requested without an app id
// and secret.
var ErrNoCredentials = errors.New("spotify: client id and secret are required")

// Config carries the application credentials for the client-credentials
// flow. Search needs no user login, only an app token.
type Config struct {
	ClientID     string
	ClientSecret string
}

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// NewSearch authenticates with the client-credentials flow and returns a
// client ready for catalog search.
func NewSearch(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}

	conf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting app token: %w", err)
	}

	httpClient := spotifyauth.New().Client(ctx, token)
	return &Client{api: spotify.New(httpClient)}, nil
}
