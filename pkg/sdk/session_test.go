package sdk_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pallavilagisetti/admin-control-sub001/pkg/sdk"
)

func loginServer(t *testing.T, expiresAt time.Time) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		decodeJSONBody(t, r, &body)
		if body["password"] != "hunter2hunter2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid email or password",
				"code":  "UNAUTHORIZED",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":     "minted-token",
			"expiresAt": expiresAt.Format(time.RFC3339),
			"user": map[string]any{
				"id":    "u1",
				"email": body["email"],
				"name":  "Admin One",
				"roles": []string{"admin"},
			},
		})
	})
	mux.HandleFunc("/api/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthSession_LoginStoresSession(t *testing.T) {
	srv := loginServer(t, time.Now().Add(time.Hour))

	client := sdk.NewClient(srv.URL)
	session := sdk.NewAuthSession(client, sdk.NewMemoryStore())

	var events []sdk.SessionEvent
	session.OnEvent(func(e sdk.SessionEvent) { events = append(events, e) })

	principal, apiErr := session.Login(context.Background(), "admin@resumatch.io", "hunter2hunter2")

	require.Nil(t, apiErr)
	require.NotNil(t, principal)
	assert.Equal(t, "u1", principal.ID)
	assert.Equal(t, []string{"admin"}, principal.Roles)
	assert.Equal(t, "minted-token", session.Token())
	assert.Equal(t, []sdk.SessionEvent{sdk.EventAuthChanged}, events)

	current := session.CurrentPrincipal()
	require.NotNil(t, current)
	assert.Equal(t, "u1", current.ID)
}

func TestAuthSession_FailedLoginClearsPriorSession(t *testing.T) {
	srv := loginServer(t, time.Now().Add(time.Hour))

	client := sdk.NewClient(srv.URL)
	session := sdk.NewAuthSession(client, sdk.NewMemoryStore())

	_, apiErr := session.Login(context.Background(), "admin@resumatch.io", "hunter2hunter2")
	require.Nil(t, apiErr)
	require.NotNil(t, session.CurrentPrincipal())

	_, apiErr = session.Login(context.Background(), "admin@resumatch.io", "wrong")
	require.NotNil(t, apiErr)
	assert.Equal(t, sdk.KindUnauthorized, apiErr.Kind)
	assert.Nil(t, session.CurrentPrincipal())
}

func TestAuthSession_ExpiredTokenClearedOnAccess(t *testing.T) {
	srv := loginServer(t, time.Now().Add(50*time.Millisecond))

	client := sdk.NewClient(srv.URL)
	session := sdk.NewAuthSession(client, sdk.NewMemoryStore())

	var events []sdk.SessionEvent
	session.OnEvent(func(e sdk.SessionEvent) { events = append(events, e) })

	_, apiErr := session.Login(context.Background(), "admin@resumatch.io", "hunter2hunter2")
	require.Nil(t, apiErr)

	time.Sleep(80 * time.Millisecond)

	assert.Nil(t, session.CurrentPrincipal())
	assert.Empty(t, session.Token())
	assert.Contains(t, events, sdk.EventAuthInvalid)
}

func TestAuthSession_LogoutClearsSession(t *testing.T) {
	srv := loginServer(t, time.Now().Add(time.Hour))

	client := sdk.NewClient(srv.URL)
	session := sdk.NewAuthSession(client, sdk.NewMemoryStore())

	_, apiErr := session.Login(context.Background(), "admin@resumatch.io", "hunter2hunter2")
	require.Nil(t, apiErr)

	var events []sdk.SessionEvent
	session.OnEvent(func(e sdk.SessionEvent) { events = append(events, e) })

	session.Logout(context.Background())

	assert.Nil(t, session.CurrentPrincipal())
	assert.Equal(t, []sdk.SessionEvent{sdk.EventAuthChanged}, events)
}

func TestAuthSession_ServerRejectionInvalidatesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Invalid or expired token",
			"code":  "UNAUTHORIZED",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := sdk.NewClient(srv.URL)
	store := sdk.NewMemoryStore()
	require.NoError(t, store.Save(&sdk.Credentials{
		Token:     "stale",
		ExpiresAt: time.Now().Add(time.Hour),
		Principal: sdk.Principal{ID: "u1"},
	}))
	session := sdk.NewAuthSession(client, store)

	var events []sdk.SessionEvent
	session.OnEvent(func(e sdk.SessionEvent) { events = append(events, e) })

	apiErr := client.Get(context.Background(), "/api/users", nil)

	require.NotNil(t, apiErr)
	assert.Equal(t, sdk.KindUnauthorized, apiErr.Kind)
	assert.Nil(t, session.CurrentPrincipal())
	assert.Equal(t, []sdk.SessionEvent{sdk.EventAuthInvalid}, events)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "creds.json")
	store, err := sdk.NewFileStore(path)
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	creds := &sdk.Credentials{
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		Principal: sdk.Principal{ID: "u1", Email: "a@b.c"},
	}
	require.NoError(t, store.Save(creds))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, creds.Token, loaded.Token)
	assert.Equal(t, creds.Principal.Email, loaded.Principal.Email)
	assert.True(t, creds.ExpiresAt.Equal(loaded.ExpiresAt))

	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Clearing an already-empty store is not an error.
	require.NoError(t, store.Clear())
}
