package cli

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	devsvc "crivo-thalam/devsvc/app"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// TestAgainstDevService drives the CLI against the real dev authorization
// service, including approving the auth link the way a browser would.
func TestAgainstDevService(t *testing.T) {
	server := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + server.Listener.Addr().String()

	svc, err := devsvc.New(&devsvc.Config{
		PublicURL:    baseURL,
		JWTSecret:    "e2e-secret",
		TokenTTL:     time.Hour,
		DBPath:       ":memory:",
		AllowOrigins: []string{"http://localhost:3000"},
	}, zerolog.Nop())
	require.NoError(t, err)
	defer svc.Storage.Close()

	server.Config.Handler = svc.Router
	server.Start()
	defer server.Close()

	t.Setenv("CRIVO_CONFIG_DIR", t.TempDir())
	t.Setenv("CRIVO_API_URL", baseURL)
	t.Setenv("CRIVO_REQUEST_TIMEOUT", "5")
	t.Setenv("CRIVO_LOG_LEVEL", "")
	t.Setenv("CRIVO_JOURNAL", "")

	out := run(t, "setup")
	require.Contains(t, out, "Device registered successfully!")

	var authLink string
	for _, field := range strings.Fields(out) {
		if strings.HasPrefix(field, baseURL+"/auth/") {
			authLink = field
			break
		}
	}
	require.NotEmpty(t, authLink, out)

	out = run(t, "status")
	require.Contains(t, out, "Pending Authorization")

	resp, err := http.PostForm(authLink, url.Values{"authorized_by": {"alice"}})
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out = run(t, "status")
	require.Contains(t, out, "Authorized")
	require.Contains(t, out, "alice")

	out = run(t, "info")
	require.Contains(t, out, `"is_authorized": true`)
	require.Contains(t, out, `"authorized_by": "alice"`)
}
