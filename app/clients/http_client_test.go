package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDoRequestSendsJSONAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/things", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Equal(t, "crivo-thalam/test", r.Header.Get("User-Agent"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "value", body["key"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, time.Second, "crivo-thalam/test", zerolog.Nop())
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.DoRequest(context.Background(), http.MethodPost, "/api/things", map[string]string{"key": "value"}, http.StatusCreated,
		func(resp *http.Response) error {
			return json.NewDecoder(resp.Body).Decode(&out)
		})
	require.NoError(t, err)
	require.True(t, out.OK)
}

func TestDoRequestUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail": "quota exceeded"}`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, time.Second, "", zerolog.Nop())
	err := c.DoRequest(context.Background(), http.MethodGet, "/x", nil, http.StatusOK, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Equal(t, "quota exceeded", statusErr.Detail)
}

func TestDoRequestConnectionRefusedIsUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := NewHTTPClient("http://"+addr, time.Second, "", zerolog.Nop())
	err = c.DoRequest(context.Background(), http.MethodGet, "/x", nil, http.StatusOK, nil)
	require.ErrorIs(t, err, ErrServiceUnavailable)
	require.Contains(t, err.Error(), addr)
}

func TestDoRequestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewHTTPClient(server.URL, 50*time.Millisecond, "", zerolog.Nop())
	err := c.DoRequest(context.Background(), http.MethodGet, "/slow", nil, http.StatusOK, nil)
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestDoRequestBadSchemeIsTransportError(t *testing.T) {
	c := NewHTTPClient("gopher://example.invalid", time.Second, "", zerolog.Nop())
	err := c.DoRequest(context.Background(), http.MethodGet, "/x", nil, http.StatusOK, nil)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
	require.NotErrorIs(t, err, ErrServiceUnavailable)
}

func TestDoRequestHandlerFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, time.Second, "", zerolog.Nop())
	err := c.DoRequest(context.Background(), http.MethodGet, "/x", nil, http.StatusOK, func(resp *http.Response) error {
		var v map[string]any
		return json.NewDecoder(resp.Body).Decode(&v)
	})

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
}

func TestExtractDetail(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want string
	}{
		{name: "string detail", body: `{"detail": "quota exceeded"}`, want: "quota exceeded"},
		{name: "validation list", body: `{"detail": [{"msg": "field required"}, {"msg": "bad value"}]}`, want: "field required; bad value"},
		{name: "error field", body: `{"error": "invalid request body"}`, want: "invalid request body"},
		{name: "no detail", body: `{}`, want: ""},
		{name: "html", body: `<html>502</html>`, want: ""},
		{name: "empty", body: ``, want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractDetail([]byte(tc.body)))
		})
	}
}
