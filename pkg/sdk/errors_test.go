package sdk_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pallavilagisetti/admin-control-sub001/pkg/sdk"
)

func responseWithBody(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClassify_CancelledContext(t *testing.T) {
	apiErr := sdk.Classify(nil, context.Canceled)

	require.NotNil(t, apiErr)
	assert.Equal(t, sdk.KindTimeout, apiErr.Kind)
	assert.Equal(t, "cancelled", apiErr.Message)
}

func TestClassify_DeadlineExceeded(t *testing.T) {
	apiErr := sdk.Classify(nil, context.DeadlineExceeded)

	require.NotNil(t, apiErr)
	assert.Equal(t, sdk.KindTimeout, apiErr.Kind)
}

func TestClassify_TransportFailure(t *testing.T) {
	apiErr := sdk.Classify(nil, errors.New("dial tcp: connection refused"))

	require.NotNil(t, apiErr)
	assert.Equal(t, sdk.KindNetwork, apiErr.Kind)
	assert.True(t, apiErr.Retryable())
}

func TestClassify_CrossOriginRejection(t *testing.T) {
	apiErr := sdk.Classify(nil, errors.New("fetch failed: blocked by CORS policy"))

	require.NotNil(t, apiErr)
	assert.Equal(t, sdk.KindCORS, apiErr.Kind)
}

func TestClassify_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   sdk.ErrorKind
	}{
		{http.StatusUnauthorized, sdk.KindUnauthorized},
		{http.StatusForbidden, sdk.KindForbidden},
		{http.StatusNotFound, sdk.KindNotFound},
		{http.StatusTooManyRequests, sdk.KindRateLimited},
		{http.StatusInternalServerError, sdk.KindServer},
		{http.StatusBadGateway, sdk.KindServer},
	}

	for _, tc := range cases {
		apiErr := sdk.Classify(responseWithBody(tc.status, `{}`), nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, tc.kind, apiErr.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, apiErr.Status)
	}
}

func TestClassify_EnvelopeMessage(t *testing.T) {
	body := `{"error":"Access token required","code":"UNAUTHORIZED"}`
	apiErr := sdk.Classify(responseWithBody(http.StatusUnauthorized, body), nil)

	require.NotNil(t, apiErr)
	assert.Equal(t, "Access token required", apiErr.Message)
}

func TestClassify_RetryAfterFromBody(t *testing.T) {
	body := `{"error":"Too many requests","code":"RATE_LIMITED","retryAfter":30,"retryAfterMs":30000}`
	apiErr := sdk.Classify(responseWithBody(http.StatusTooManyRequests, body), nil)

	require.NotNil(t, apiErr)
	assert.Equal(t, sdk.KindRateLimited, apiErr.Kind)
	assert.Equal(t, 30*time.Second, apiErr.RetryAfter)
}

func TestClassify_RetryAfterFromHeader(t *testing.T) {
	resp := responseWithBody(http.StatusTooManyRequests, `not json`)
	resp.Header.Set("Retry-After", "12")

	apiErr := sdk.Classify(resp, nil)

	require.NotNil(t, apiErr)
	assert.Equal(t, 12*time.Second, apiErr.RetryAfter)
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), apiErr.Message)
}

func TestAPIError_ErrorString(t *testing.T) {
	apiErr := &sdk.APIError{Kind: sdk.KindForbidden, Message: "Insufficient role", Status: 403}
	assert.Equal(t, "forbidden (403): Insufficient role", apiErr.Error())

	transport := &sdk.APIError{Kind: sdk.KindNetwork, Message: "connection refused"}
	assert.Equal(t, "network: connection refused", transport.Error())
}
