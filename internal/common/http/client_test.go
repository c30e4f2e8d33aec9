// internal/common/http/client_test.go
package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Timeout(t *testing.T) {
	client := NewClient(3 * time.Second)
	assert.Equal(t, 3*time.Second, client.Timeout)
	assert.IsType(t, &limitedTransport{}, client.Transport)
}

func TestLimitedTransport_TruncatesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	client := &http.Client{Transport: &limitedTransport{base: http.DefaultTransport, limit: 16}}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, body, 16)
}

func TestLimitedTransport_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(time.Second).Get(url)
	assert.Error(t, err)
}
