package auth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/plannersync/pkg/auth"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

func TestGraphClient(t *testing.T) {
	tests := map[string]struct {
		creds       func(authority string) auth.GraphCredentials
		tokenStatus int
		expErr      bool
	}{
		"Valid credentials should return an authenticated client.": {
			creds: func(authority string) auth.GraphCredentials {
				return auth.GraphCredentials{TenantID: "tenant", ClientID: "id", ClientSecret: "secret", Authority: authority}
			},
			tokenStatus: http.StatusOK,
		},
		"Missing credentials should fail without calling the authority.": {
			creds: func(authority string) auth.GraphCredentials {
				return auth.GraphCredentials{TenantID: "tenant", Authority: authority}
			},
			tokenStatus: http.StatusOK,
			expErr:      true,
		},
		"Rejected credentials should fail.": {
			creds: func(authority string) auth.GraphCredentials {
				return auth.GraphCredentials{TenantID: "tenant", ClientID: "id", ClientSecret: "bad", Authority: authority}
			},
			tokenStatus: http.StatusUnauthorized,
			expErr:      true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var gotAuth string
			mux := http.NewServeMux()
			mux.HandleFunc("/tenant/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(test.tokenStatus)
				if test.tokenStatus == http.StatusOK {
					fmt.Fprint(w, `{"access_token":"abc","token_type":"Bearer","expires_in":3600}`)
					return
				}
				fmt.Fprint(w, `{"error":"invalid_client"}`)
			})
			mux.HandleFunc("/resource", func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
			})
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			client, err := auth.GraphClient(context.Background(), test.creds(srv.URL), 5*time.Second)

			if test.expErr {
				assert.ErrorIs(err, model.ErrAuthUnavailable)
				return
			}
			require.NoError(err)

			resp, err := client.Get(srv.URL + "/resource")
			require.NoError(err)
			resp.Body.Close()
			assert.Equal("Bearer abc", gotAuth)
		})
	}
}
