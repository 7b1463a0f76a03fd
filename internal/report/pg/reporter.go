package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const defaultName = "pg_run_reporter"

// Reporter writes run summaries to the ingestion_runs table.
type Reporter struct {
	*report.Base
	pool *ConnectionPool
}

type Option func(r *Reporter)

func WithName(name string) Option {
	return func(r *Reporter) {
		r.Base = report.NewBase(name, r.CommitPolicy())
	}
}

func WithPolicy(policy ingest.CommitPolicy) Option {
	return func(r *Reporter) {
		r.Base = report.NewBase(r.Name(), policy)
	}
}

func NewReporter(pool *ConnectionPool, opts ...Option) *Reporter {
	r := &Reporter{
		Base: report.NewBase(defaultName, ingest.CommitAlways),
		pool: pool,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reporter) Commit(ctx context.Context) error {
	summary, err := r.Summary()
	if err != nil {
		return err
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	var finishedAt *time.Time
	if !summary.FinishedAt.IsZero() {
		finishedAt = &summary.FinishedAt
	}

	cmd := `
        INSERT INTO ingestion_runs (id, run_id, reporter, pipeline_name, status, started_at, finished_at,
                                    work_units, failures, warnings, control_records, dry_run, summary)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (run_id, reporter) DO UPDATE SET
            status = EXCLUDED.status,
            finished_at = EXCLUDED.finished_at,
            work_units = EXCLUDED.work_units,
            failures = EXCLUDED.failures,
            warnings = EXCLUDED.warnings,
            control_records = EXCLUDED.control_records,
            summary = EXCLUDED.summary,
            reported_at = now()
        RETURNING id;
    `
	var id uuid.UUID
	err = r.pool.GetConn().QueryRow(
		ctx,
		cmd,
		uuid.New(),
		summary.RunID,
		r.Name(),
		summary.PipelineName,
		string(summary.Status),
		summary.StartedAt,
		finishedAt,
		summary.WorkUnits,
		summary.Failures,
		summary.Warnings,
		summary.ControlRecords,
		summary.DryRun,
		summaryJSON,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}

	r.MarkCommitted()
	slog.Info("Run summary saved to PostgreSQL", "id", id, "run_id", summary.RunID, "status", summary.Status)
	return nil
}

// LastRun returns the most recent summary reported for pipelineName, nil if none.
func (r *Reporter) LastRun(ctx context.Context, pipelineName string) (*ingest.RunSummary, error) {
	query := `
        SELECT summary
        FROM ingestion_runs
        WHERE pipeline_name = $1 AND reporter = $2
        ORDER BY started_at DESC
        LIMIT 1;
    `
	var raw []byte
	err := r.pool.GetConn().QueryRow(ctx, query, pipelineName, r.Name()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}

	var summary ingest.RunSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}

func (r *Reporter) Close() {
	r.pool.Close()
}

func (r *Reporter) Healthy(ctx context.Context) bool {
	return NewHealthChecker(r.pool).Healthy(ctx)
}
