package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report"
	pkgtesting "github.com/DjordjeVuckovic/metadata-ingest/pkg/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var (
	testCtx  context.Context
	testPool *ConnectionPool
)

func TestMain(m *testing.M) {
	testCtx = context.Background()

	if pkgtesting.SkipContainers() {
		os.Exit(0)
	}

	pg, err := pkgtesting.NewPGContainer(testCtx, pkgtesting.PGConfig{
		Database: "ingest_test_db",
		Username: "test",
		Password: "test",
	})
	if err != nil {
		panic(err)
	}

	testPool, err = NewConnectionPool(testCtx, PoolConfig{ConnStr: pg.ConnString})
	if err != nil {
		_ = testcontainers.TerminateContainer(pg.Container)
		panic(err)
	}

	code := m.Run()

	testPool.Close()
	_ = testcontainers.TerminateContainer(pg.Container)
	os.Exit(code)
}

func truncateTable(t *testing.T) {
	t.Helper()
	_, err := testPool.GetConn().Exec(testCtx, "TRUNCATE TABLE ingestion_runs")
	if err != nil {
		t.Fatalf("failed to truncate table: %v", err)
	}
}

func TestReporter_CommitAndLastRun(t *testing.T) {
	truncateTable(t)
	defer truncateTable(t)

	r := NewReporter(testPool, WithName("pg-runs"))
	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)

	r.RecordSummary(ingest.RunSummary{
		RunID:        "run-1",
		PipelineName: "mysql",
		StartedAt:    started,
		FinishedAt:   started.Add(30 * time.Second),
		WorkUnits:    10,
		Failures:     1,
		Status:       ingest.StatusFailure,
	})
	require.NoError(t, r.Commit(testCtx))
	assert.True(t, r.Committed())

	last, err := r.LastRun(testCtx, "mysql")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "run-1", last.RunID)
	assert.Equal(t, 10, last.WorkUnits)
	assert.Equal(t, ingest.StatusFailure, last.Status)
	assert.True(t, started.Equal(last.StartedAt))
}

func TestReporter_CommitIsIdempotentPerRun(t *testing.T) {
	truncateTable(t)
	defer truncateTable(t)

	r := NewReporter(testPool)
	summary := ingest.RunSummary{RunID: "run-2", PipelineName: "kafka", StartedAt: time.Now(), Status: ingest.StatusRunning}

	r.RecordSummary(summary)
	require.NoError(t, r.Commit(testCtx))

	summary.Status = ingest.StatusSuccess
	summary.WorkUnits = 7
	r.RecordSummary(summary)
	require.NoError(t, r.Commit(testCtx))

	var count int
	require.NoError(t, testPool.GetConn().QueryRow(testCtx, "SELECT count(*) FROM ingestion_runs WHERE run_id = $1", "run-2").Scan(&count))
	assert.Equal(t, 1, count)

	last, err := r.LastRun(testCtx, "kafka")
	require.NoError(t, err)
	assert.Equal(t, ingest.StatusSuccess, last.Status)
	assert.Equal(t, 7, last.WorkUnits)
}

func TestReporter_LastRun_None(t *testing.T) {
	truncateTable(t)

	last, err := NewReporter(testPool).LastRun(testCtx, "missing")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestReporter_CommitWithoutSummary(t *testing.T) {
	err := NewReporter(testPool).Commit(testCtx)
	assert.ErrorIs(t, err, report.ErrNoSummary)
}

func TestHealthChecker(t *testing.T) {
	assert.True(t, NewHealthChecker(testPool).Healthy(testCtx))
	assert.False(t, NewHealthChecker(nil).Healthy(testCtx))
	assert.True(t, NewReporter(testPool).Healthy(testCtx))
}
