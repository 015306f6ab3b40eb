package sdk_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeJSONBody(t *testing.T, r *http.Request, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(out))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
