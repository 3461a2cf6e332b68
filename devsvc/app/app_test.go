package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"crivo-thalam/devsvc/app/dto"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(&Config{
		PublicURL:    "http://devsvc.test",
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		DBPath:       ":memory:",
		AllowOrigins: []string{"http://localhost:3000"},
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Storage.Close() })
	return a
}

func do(t *testing.T, a *App, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, a *App) dto.RegisterDeviceResponse {
	t.Helper()
	rec := do(t, a, http.MethodPost, "/api/devices/register", "application/json",
		`{"device_name": "laptop", "platform": "Linux", "platform_version": "6.1", "machine": "x86_64", "processor": "", "device_id": "1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.RegisterDeviceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func tokenFrom(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.Path, "/auth/"))
	return strings.TrimPrefix(u.Path, "/auth/")
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())
}

func TestRegisterAssignsNewIDs(t *testing.T) {
	a := newTestApp(t)

	first := register(t, a)
	second := register(t, a)

	require.NotEmpty(t, first.DeviceID)
	require.NotEqual(t, first.DeviceID, second.DeviceID)
	require.True(t, strings.HasPrefix(first.AuthLink, "http://devsvc.test/auth/"))
}

func TestRegisterValidation(t *testing.T) {
	a := newTestApp(t)

	testCases := []struct {
		name string
		body string
		want string
	}{
		{name: "missing name", body: `{"platform": "Linux", "device_id": "1"}`, want: "device_name is required"},
		{name: "missing hardware id", body: `{"device_name": "x", "platform": "Linux"}`, want: "device_id is required"},
		{name: "not json", body: `nope`, want: "invalid request body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, a, http.MethodPost, "/api/devices/register", "application/json", tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Contains(t, resp.Detail, tc.want)
		})
	}
}

func TestStatusUnknownDevice(t *testing.T) {
	a := newTestApp(t)
	rec := do(t, a, http.MethodGet, "/api/devices/nope/status", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"detail": "Device not found"}`, rec.Body.String())
}

func TestAuthorizeFlow(t *testing.T) {
	a := newTestApp(t)
	reg := register(t, a)
	token := tokenFrom(t, reg.AuthLink)

	rec := do(t, a, http.MethodGet, "/api/devices/"+reg.DeviceID+"/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"device_id": "`+reg.DeviceID+`", "is_authorized": false, "authorized_by": null, "authorized_at": null}`, rec.Body.String())

	rec = do(t, a, http.MethodGet, "/auth/"+token, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "laptop")
	require.Contains(t, rec.Body.String(), `name="authorized_by"`)

	rec = do(t, a, http.MethodPost, "/auth/"+token, "application/x-www-form-urlencoded", "authorized_by=alice")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Authorized by alice")

	rec = do(t, a, http.MethodGet, "/api/devices/"+reg.DeviceID+"/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status dto.DeviceStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.True(t, status.IsAuthorized)
	require.Equal(t, "alice", *status.AuthorizedBy)
	_, err := time.Parse(time.RFC3339, *status.AuthorizedAt)
	require.NoError(t, err)

	// a second approval keeps the first approver
	do(t, a, http.MethodPost, "/auth/"+token, "application/x-www-form-urlencoded", "authorized_by=bob")
	rec = do(t, a, http.MethodGet, "/api/devices/"+reg.DeviceID+"/status", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "alice", *status.AuthorizedBy)
}

func TestAuthorizeRequiresName(t *testing.T) {
	a := newTestApp(t)
	token := tokenFrom(t, register(t, a).AuthLink)

	rec := do(t, a, http.MethodPost, "/auth/"+token, "application/x-www-form-urlencoded", "authorized_by=")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	a := newTestApp(t)

	rec := do(t, a, http.MethodGet, "/auth/not-a-token", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid or has expired")
}

func TestListDevices(t *testing.T) {
	a := newTestApp(t)
	reg := register(t, a)

	rec := do(t, a, http.MethodGet, "/api/devices", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ListDevicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Devices, 1)
	require.Equal(t, reg.DeviceID, resp.Devices[0].DeviceID)
	require.Equal(t, "laptop", resp.Devices[0].DeviceName)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DEVSVC_PORT", "")
	t.Setenv("DEVSVC_PUBLIC_URL", "")
	t.Setenv("DEVSVC_JWT_SECRET", "")
	t.Setenv("DEVSVC_TOKEN_TTL_SEC", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8000", cfg.ServerPort)
	require.Equal(t, "http://localhost:8000", cfg.PublicURL)
	require.True(t, cfg.GeneratedSecret)
	require.NotEmpty(t, cfg.JWTSecret)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)

	t.Setenv("DEVSVC_TOKEN_TTL_SEC", "0")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestNewWithoutAllowOrigins(t *testing.T) {
	for _, origins := range [][]string{nil, {"", " "}} {
		var a *App
		require.NotPanics(t, func() {
			var err error
			a, err = New(&Config{
				PublicURL:    "http://devsvc.test",
				JWTSecret:    "test-secret",
				TokenTTL:     time.Hour,
				DBPath:       ":memory:",
				AllowOrigins: origins,
			}, zerolog.Nop())
			require.NoError(t, err)
		})

		rec := do(t, a, http.MethodGet, "/health", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, a.Storage.Close())
	}
}

func TestLoadConfigAllowOrigins(t *testing.T) {
	t.Setenv("DEVSVC_ALLOW_ORIGINS", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowOrigins)

	t.Setenv("DEVSVC_ALLOW_ORIGINS", "http://a, http://b,, ")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"http://a", "http://b"}, cfg.AllowOrigins)

	a, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Storage.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://b")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://b", rec.Header().Get("Access-Control-Allow-Origin"))
}
