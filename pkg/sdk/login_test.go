package sdk_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pallavilagisetti/admin-control-sub001/pkg/sdk"
)

// fakeIdP serves OIDC discovery plus a token endpoint that answers
// client_credentials and refresh_token grants.
func fakeIdP(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                        srv.URL,
			"authorization_endpoint":        srv.URL + "/authorize",
			"token_endpoint":                srv.URL + "/oauth/token",
			"device_authorization_endpoint": srv.URL + "/oauth/device/code",
			"jwks_uri":                      srv.URL + "/.well-known/jwks.json",
			"response_types_supported":      []string{"code", "token"},
			"grant_types_supported":         []string{"client_credentials", "refresh_token", "urn:ietf:params:oauth:grant-type:device_code"},
			"subject_types_supported":       []string{"public"},
		})
	})

	mux.HandleFunc("/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"keys": []any{}})
	})

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch r.PostForm.Get("grant_type") {
		case "client_credentials":
			if r.PostForm.Get("client_id") != "console-m2m" && r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "cc-access-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != "good-refresh" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "refreshed-access-token",
				"token_type":    "Bearer",
				"expires_in":    3600,
				"refresh_token": "next-refresh",
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	return srv
}

func TestLoginWithClientCredentials(t *testing.T) {
	idp := fakeIdP(t)

	creds, err := sdk.LoginWithClientCredentials(context.Background(), idp.URL, "console-m2m", "s3cret")

	require.NoError(t, err)
	assert.Equal(t, "cc-access-token", creds.Token)
	assert.Equal(t, "client:console-m2m", creds.Principal.ID)
	assert.False(t, creds.IsExpired())
	assert.WithinDuration(t, time.Now().Add(time.Hour), creds.ExpiresAt, time.Minute)
}

func TestLoginWithClientCredentials_BadIssuer(t *testing.T) {
	_, err := sdk.LoginWithClientCredentials(context.Background(), "http://127.0.0.1:1", "console-m2m", "s3cret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to discover OIDC provider")
}

func TestRefreshLogin(t *testing.T) {
	idp := fakeIdP(t)

	creds, err := sdk.RefreshLogin(context.Background(), idp.URL, "console-panel", "good-refresh")

	require.NoError(t, err)
	assert.Equal(t, "refreshed-access-token", creds.Token)
	assert.False(t, creds.IsExpired())
}

func TestRefreshLogin_RejectedToken(t *testing.T) {
	idp := fakeIdP(t)

	_, err := sdk.RefreshLogin(context.Background(), idp.URL, "console-panel", "stale-refresh")
	require.Error(t, err)
}

func TestEnvClientCredentials(t *testing.T) {
	t.Setenv("CONSOLE_CLIENT_ID", "")
	t.Setenv("CONSOLE_CLIENT_SECRET", "")
	_, _, ok := sdk.EnvClientCredentials()
	assert.False(t, ok)

	t.Setenv("CONSOLE_CLIENT_ID", "console-m2m")
	t.Setenv("CONSOLE_CLIENT_SECRET", "s3cret")
	id, secret, ok := sdk.EnvClientCredentials()
	require.True(t, ok)
	assert.Equal(t, "console-m2m", id)
	assert.Equal(t, "s3cret", secret)
}
