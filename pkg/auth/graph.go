package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/harrisonrobin/plannersync/pkg/model"
)

// DefaultAuthority is the Microsoft identity platform login endpoint.
const DefaultAuthority = "https://login.microsoftonline.com"

// GraphScope requests the application permissions granted to the app registration.
const GraphScope = "https://graph.microsoft.com/.default"

// GraphCredentials identifies an app registration using the client
// credentials grant.
type GraphCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Authority overrides DefaultAuthority.
	Authority string
}

func (c GraphCredentials) validate() error {
	var missing []string
	if c.TenantID == "" {
		missing = append(missing, "tenant id")
	}
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing graph %s", model.ErrAuthUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

func (c GraphCredentials) config() *clientcredentials.Config {
	authority := c.Authority
	if authority == "" {
		authority = DefaultAuthority
	}
	return &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(authority, "/"), c.TenantID),
		Scopes:       []string{GraphScope},
	}
}

// GraphClient returns an HTTP client that attaches a bearer credential for
// Microsoft Graph to every request. A token is acquired eagerly so that
// missing or rejected credentials fail with model.ErrAuthUnavailable before
// any remote call is made.
func GraphClient(ctx context.Context, creds GraphCredentials, timeout time.Duration) (*http.Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}

	base := &http.Client{Timeout: timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	src := creds.config().TokenSource(ctx)
	if _, err := src.Token(); err != nil {
		return nil, fmt.Errorf("%w: could not acquire graph token: %w", model.ErrAuthUnavailable, err)
	}

	client := oauth2.NewClient(ctx, src)
	client.Timeout = timeout
	return client, nil
}
