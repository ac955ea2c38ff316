package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// Cloud console, stored in the plannersync config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the Google OAuth token (access + refresh token).
	TokenFile = "token.json"

	// LocalhostAuthPort is the port the local web server listens on to capture
	// the OAuth redirect.
	LocalhostAuthPort = "6789"

	xdgAppName = "plannersync"
)

// SheetsScopes are the scopes required by the Sheets mirror.
var SheetsScopes = []string{sheets.SpreadsheetsScope}

// GetConfig creates an oauth2.Config from the client secrets file and specified scopes.
func GetConfig(scopes []string, logger log.Logger) (*oauth2.Config, error) {
	xdgConfigBase, err := GetXdgHome()
	if err != nil {
		return nil, err
	}

	clientSecretsFile := filepath.Join(xdgConfigBase, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read client secret file %s: %w", model.ErrAuthUnavailable, clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse client secret file to config: %w", model.ErrAuthUnavailable, err)
	}

	config.RedirectURL = normalizeRedirectURL(config.RedirectURL, logger)
	return config, nil
}

// normalizeRedirectURL forces localhost and out-of-band redirect URLs to the
// port our callback listener binds.
func normalizeRedirectURL(redirect string, logger log.Logger) string {
	if redirect == "urn:ietf:wg:oauth:2.0:oob" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
	}

	parsedURL, err := url.Parse(redirect)
	if err != nil {
		logger.Warningf("could not parse redirect URL %q: %v, using it as is", redirect, err)
		return redirect
	}
	if parsedURL.Hostname() != "localhost" && parsedURL.Hostname() != "127.0.0.1" {
		logger.Warningf("redirect URL %q is not a localhost callback, ensure this is correct for your setup", redirect)
		return redirect
	}
	if parsedURL.Port() != LocalhostAuthPort {
		parsedURL.Host = fmt.Sprintf("%s:%s", parsedURL.Hostname(), LocalhostAuthPort)
	}
	return parsedURL.String()
}

// GetClient retrieves an authenticated *http.Client for Google APIs. It loads
// the cached token, which oauth2 refreshes when expired. When no token is
// cached and interactive is true the browser authorization flow is started,
// otherwise model.ErrAuthUnavailable is returned.
func GetClient(ctx context.Context, scopes []string, interactive bool, logger log.Logger) (*http.Client, error) {
	if logger == nil {
		logger = log.Noop
	}

	config, err := GetConfig(scopes, logger)
	if err != nil {
		return nil, err
	}

	xdgConfigBase, err := GetXdgHome()
	if err != nil {
		return nil, err
	}

	tokenFile := filepath.Join(xdgConfigBase, TokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if !interactive {
			return nil, fmt.Errorf("%w: no cached Google token at %s, run 'plannersync auth google'", model.ErrAuthUnavailable, tokenFile)
		}
		logger.Infof("No existing token found at %s, initiating web authorization flow", tokenFile)
		tok, err = getTokenFromWeb(ctx, config, logger)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to get token from web: %w", model.ErrAuthUnavailable, err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	// Refresh now so an unusable refresh token fails here and not midway
	// through a sync. Persist the token if it changed.
	src := config.TokenSource(ctx, tok)
	currentTok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: could not refresh Google token: %w", model.ErrAuthUnavailable, err)
	}
	if currentTok.AccessToken != tok.AccessToken || currentTok.RefreshToken != tok.RefreshToken {
		logger.Debugf("Token was refreshed, saving new token to %s", tokenFile)
		if err := saveToken(tokenFile, currentTok); err != nil {
			logger.Warningf("could not save refreshed token: %v", err)
		}
	}

	return oauth2.NewClient(ctx, src), nil
}

// getTokenFromWeb runs the OAuth 2.0 authorization code flow, capturing the
// redirect on a local web server.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, logger log.Logger) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- fmt.Errorf("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	defer server.Shutdown(context.Background())

	go func() {
		logger.Debugf("Local server listening on %s for OAuth2 redirect", config.RedirectURL)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// AccessTypeOffline makes Google return a refresh token.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize plannersync:\n%s\n", authURL)
	logger.Infof("Waiting for authorization code...")

	select {
	case authCode := <-codeCh:
		exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exCtx, authCode)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out, please try again")
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken saves an oauth2.Token to a JSON file readable only by the owner.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// RemoveToken deletes the cached Google token so the next interactive run
// authorizes again.
func RemoveToken() error {
	xdgConfigBase, err := GetXdgHome()
	if err != nil {
		return err
	}
	tokenFile := filepath.Join(xdgConfigBase, TokenFile)
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token file %s: %w", tokenFile, err)
	}
	return nil
}

// GetSheetsService creates an authenticated Google Sheets service.
func GetSheetsService(ctx context.Context, interactive bool, logger log.Logger) (*sheets.Service, error) {
	client, err := GetClient(ctx, SheetsScopes, interactive, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Sheets API: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Google Sheets service: %w", err)
	}
	return srv, nil
}

// GetXdgHome returns the plannersync configuration directory.
func GetXdgHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, xdgAppName), nil
	}
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}
