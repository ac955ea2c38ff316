package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

func TestNormalizeRedirectURL(t *testing.T) {
	tests := map[string]struct {
		redirect string
		exp      string
	}{
		"Out of band redirects should use the local callback.": {
			redirect: "urn:ietf:wg:oauth:2.0:oob",
			exp:      "http://localhost:6789/oauth2callback",
		},
		"Localhost without port should get the callback port.": {
			redirect: "http://localhost",
			exp:      "http://localhost:6789",
		},
		"Localhost with another port should be forced to the callback port.": {
			redirect: "http://127.0.0.1:8080/cb",
			exp:      "http://127.0.0.1:6789/cb",
		},
		"Remote redirects should be kept.": {
			redirect: "https://example.com/cb",
			exp:      "https://example.com/cb",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, normalizeRedirectURL(test.redirect, log.Noop))
		})
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}

	require.NoError(saveToken(path, tok))
	got, err := tokenFromFile(path)
	require.NoError(err)
	assert.Equal(t, "a", got.AccessToken)
	assert.Equal(t, "r", got.RefreshToken)
}

func TestGetClientWithoutCredentials(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := GetClient(context.Background(), SheetsScopes, false, log.Noop)
	assert.ErrorIs(t, err, model.ErrAuthUnavailable)
}
