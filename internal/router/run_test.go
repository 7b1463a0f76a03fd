package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/in_mem"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/urn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, opts ...RunRouterOption) (*echo.Echo, *ingest.PipelineContext) {
	t.Helper()

	pctx, err := ingest.NewPipelineContext(context.Background(), "run-42",
		ingest.WithPipelineName("mysql-prod"),
		ingest.WithDryRun(true),
		ingest.WithCasing(urn.NewCasing(true)),
	)
	require.NoError(t, err)

	require.NoError(t, pctx.RegisterCheckpointer(in_mem.NewReporter(in_mem.WithName("runs"))))
	require.NoError(t, pctx.RegisterCheckpointer(in_mem.NewReporter(
		in_mem.WithName("strict-runs"),
		in_mem.WithPolicy(ingest.CommitOnNoErrorsAndNoWarnings),
	)))

	e := echo.New()
	e.HTTPErrorHandler = apperr.GlobalErrorHandler()
	NewRunRouter(e, pctx, opts...).Bind()
	return e, pctx
}

func TestRunRouter_Run(t *testing.T) {
	e, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/run", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view RunView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "run-42", view.RunID)
	assert.Equal(t, "mysql-prod", view.PipelineName)
	assert.True(t, view.DryRun)
	assert.False(t, view.Connected)
	assert.True(t, view.LowerCaseURNs)
	assert.Nil(t, view.Summary)
	assert.Equal(t, []CommittableView{
		{Name: "runs", Policy: "ALWAYS"},
		{Name: "strict-runs", Policy: "ON_NO_ERRORS_AND_NO_WARNINGS"},
	}, view.Committables)
}

func TestRunRouter_RunWithReport(t *testing.T) {
	e, _ := setupRouter(t, WithReport(&ingest.Report{}))

	req := httptest.NewRequest(http.MethodGet, "/run", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var view RunView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Summary)
	assert.Equal(t, ingest.StatusRunning, view.Summary.Status)
	assert.Equal(t, "run-42", view.Summary.RunID)
}

func TestRunRouter_Committable(t *testing.T) {
	e, _ := setupRouter(t)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/run/committables/strict-runs", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var view CommittableView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "strict-runs", view.Name)
		assert.False(t, view.Committed)
	})

	t.Run("not registered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/run/committables/unknown", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown is not registered")
	})
}
