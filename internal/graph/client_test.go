package graph

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeGMS(t *testing.T, config map[string]any) *httptest.Server {
	t.Helper()

	e := echo.New()
	e.HideBanner = true
	e.GET("/config", func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") == "Bearer bad" {
			return c.NoContent(http.StatusUnauthorized)
		}
		return c.JSON(http.StatusOK, config)
	})
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "GOOD")
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func refusedAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr
}

func TestNewGraph_FetchesServerConfig(t *testing.T) {
	srv := newFakeGMS(t, map[string]any{
		DatasetURNNameCasingKey: true,
		"versions": map[string]any{
			"linkedin/datahub": map[string]any{"version": "v0.10.0"},
		},
	})

	g, err := NewGraph(context.Background(), ClientConfig{Server: srv.URL, Token: "abc"})
	require.NoError(t, err)

	sc, err := g.Config(context.Background())
	require.NoError(t, err)
	assert.True(t, sc.Flag(DatasetURNNameCasingKey))
	assert.Equal(t, "v0.10.0", sc.Version())
	assert.Equal(t, srv.URL, g.Endpoint())
	assert.True(t, g.Healthy(context.Background()))
}

func TestNewGraph_ConnectionRefused(t *testing.T) {
	endpoint := refusedAddress(t)

	g, err := NewGraph(context.Background(), ClientConfig{Server: endpoint, Timeout: 2 * time.Second})
	require.Error(t, err)
	assert.Nil(t, g)

	var ce *apperr.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, endpoint, ce.Endpoint)
	assert.NotNil(t, ce.Unwrap())
	assert.Contains(t, err.Error(), endpoint)
}

func TestNewGraph_InvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		endpoint string
	}{
		{name: "empty", server: "", endpoint: "<unset>"},
		{name: "bad scheme", server: "ftp://example.com", endpoint: "ftp://example.com"},
		{name: "unparsable", server: "http://[::1", endpoint: "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(context.Background(), ClientConfig{Server: tt.server})
			var ce *apperr.ConnectionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.endpoint, ce.Endpoint)
			assert.Contains(t, err.Error(), "at "+tt.endpoint+":")
			var ve *apperr.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestNewGraph_Unauthorized(t *testing.T) {
	srv := newFakeGMS(t, map[string]any{})

	_, err := NewGraph(context.Background(), ClientConfig{Server: srv.URL, Token: "bad"})
	var ce *apperr.ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestServerConfig_Flag(t *testing.T) {
	sc := ServerConfig{
		"bool_true":   true,
		"bool_false":  false,
		"str_true":    "True",
		"str_no":      "no",
		"num":         float64(1),
		"zero":        float64(0),
		"nil":         nil,
		"object":      map[string]any{"a": 1},
		"emptyObject": map[string]any{},
	}

	assert.True(t, sc.Flag("bool_true"))
	assert.False(t, sc.Flag("bool_false"))
	assert.True(t, sc.Flag("str_true"))
	assert.False(t, sc.Flag("str_no"))
	assert.True(t, sc.Flag("num"))
	assert.False(t, sc.Flag("zero"))
	assert.False(t, sc.Flag("nil"))
	assert.True(t, sc.Flag("object"))
	assert.False(t, sc.Flag("emptyObject"))
	assert.False(t, sc.Flag("missing"))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DATAHUB_GMS_URL", "http://gms:8080/")
	t.Setenv("DATAHUB_GMS_TOKEN", "secret")
	t.Setenv("DATAHUB_GMS_TIMEOUT", "5")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://gms:8080", cfg.Server)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv("DATAHUB_GMS_TIMEOUT", "abc")
	cfg, err = LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, cfg.Timeout)

	t.Setenv("DATAHUB_GMS_URL", "")
	_, err = LoadConfigFromEnv()
	assert.Error(t, err)
}
