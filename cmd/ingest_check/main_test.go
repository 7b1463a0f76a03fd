package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/graph"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/server"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/urn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	assert.True(t, strings.HasPrefix(newRunID("mysql"), "mysql-"))
	assert.True(t, strings.HasPrefix(newRunID(""), "ingest-"))
	assert.NotEqual(t, newRunID("x"), newRunID("x"))
}

func TestProbePipeline(t *testing.T) {
	pctx, err := ingest.NewPipelineContext(context.Background(), "probe-run", ingest.WithCasing(urn.NewCasing(true)))
	require.NoError(t, err)

	sink := &logSink{}
	p := ingest.NewPipeline(pctx, newProbeSource([]string{"hive:Db.Orders", "broken", "kafka:Events"}), sink)
	require.NoError(t, p.Run(context.Background()))

	summary := p.Report().Summary(pctx)
	assert.Equal(t, 2, summary.WorkUnits)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 2, sink.written)

	res := newProbeSource(nil).workUnit(pctx, "hive:Db.Orders")
	require.NoError(t, res.Err)
	wu, ok := res.Envelope.Record()
	require.True(t, ok)
	assert.Equal(t, "urn:li:dataset:(urn:li:dataPlatform:hive,db.orders,PROD)-status", wu.ID())
}

func TestRun_WithInMemoryReporter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline_name: check
run_id: check-1
reporting:
  - type: in_mem
    name: runs
`), 0o600))

	err := run(context.Background(), &IngestCheckConfig{
		RecipePath: path,
		Datasets:   []string{"postgres:public.users"},
		Server:     &server.Config{Port: "8085"},
	})
	require.NoError(t, err)
}

func TestRun_MissingRecipe(t *testing.T) {
	err := run(context.Background(), &IngestCheckConfig{
		RecipePath: filepath.Join(t.TempDir(), "missing.yml"),
		Server:     &server.Config{},
	})
	assert.ErrorContains(t, err, "failed to open recipe")
}

func TestRun_FallsBackToEnvironmentGraph(t *testing.T) {
	var configCalls int
	e := echo.New()
	e.GET("/config", func(c echo.Context) error {
		configCalls++
		return c.JSON(http.StatusOK, map[string]any{})
	})
	gms := httptest.NewServer(e)
	t.Cleanup(gms.Close)

	path := filepath.Join(t.TempDir(), "recipe.yml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline_name: check\n"), 0o600))

	err := run(context.Background(), &IngestCheckConfig{
		RecipePath: path,
		Graph:      &graph.ClientConfig{Server: gms.URL},
		Server:     &server.Config{},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, configCalls)
}

func TestAppConfig_LoadGraphFromEnv(t *testing.T) {
	t.Setenv("ENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("ENV", "test")
	t.Setenv("RECIPE_PATH", "recipe.yml")
	t.Setenv("REPORT_TYPE", "")
	t.Setenv("STATUS_PORT", "")
	t.Setenv("DATAHUB_GMS_URL", "http://gms:8080/")

	cfg, err := NewAppConfig().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Graph)
	assert.Equal(t, "http://gms:8080", cfg.Graph.Server)
	assert.Nil(t, cfg.Reporter)

	t.Setenv("DATAHUB_GMS_URL", "")
	cfg, err = NewAppConfig().Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Graph)
}
