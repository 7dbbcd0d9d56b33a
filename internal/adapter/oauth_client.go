// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/config"
	"golang.org/x/oauth2"
)

const (
	authorizePath = "/oauth/authorize"
	tokenPath     = "/oauth/token"
)

type oauthClient struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewOAuthClient builds the multi-account application's OAuth client.
// Endpoints default to the authorize and token paths under baseURL.
func NewOAuthClient(cfg config.MultiAccount, baseURL string, timeout time.Duration) OAuthClient {
	root := strings.TrimRight(baseURL, "/")

	authURL := cfg.AuthorizeURL
	if authURL == "" {
		authURL = root + authorizePath
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = root + tokenPath
	}

	return &oauthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       strings.Fields(cfg.Scopes),
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *oauthClient) AuthCodeURL(state string, forceLogin bool) string {
	if forceLogin {
		return c.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "login"))
	}
	return c.config.AuthCodeURL(state)
}

func (c *oauthClient) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return "", classifyExchangeError(err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenExchangeFailed)
	}

	return token.AccessToken, nil
}

func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err)
	}

	message := retrieveErr.ErrorDescription
	if message == "" {
		message = retrieveErr.ErrorCode
	}
	if message == "" {
		message = "failed to exchange the authorization code for a token"
	}

	if retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrTokenExchangeUnauthorized, message)
	}
	return fmt.Errorf("%w: %s", ErrTokenExchangeFailed, message)
}
