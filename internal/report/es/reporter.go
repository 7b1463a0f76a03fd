package es

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report"
	"github.com/DjordjeVuckovic/metadata-ingest/pkg/utils"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/refresh"
	"github.com/google/uuid"
)

const defaultName = "es_run_reporter"

// Reporter indexes run summaries into an Elasticsearch index, one document per run.
type Reporter struct {
	*report.Base
	client    *elasticsearch.TypedClient
	indexName string
	refresh   bool
}

// Document represents the run summary document stored in Elasticsearch
type Document struct {
	ID              string    `json:"id"`
	RunID           string    `json:"run_id"`
	Reporter        string    `json:"reporter"`
	PipelineName    string    `json:"pipeline_name"`
	Status          string    `json:"status"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at,omitzero"`
	DurationMillis  int64     `json:"duration_ms"`
	WorkUnitsPerSec float64   `json:"work_units_per_sec"`
	WorkUnits       int       `json:"work_units"`
	Failures        int       `json:"failures"`
	Warnings        int       `json:"warnings"`
	ControlRecords  int       `json:"control_records"`
	DryRun          bool      `json:"dry_run"`
	ReportedAt      time.Time `json:"reported_at"`
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

// WithRefresh makes each commit visible to search immediately.
func WithRefresh() Option {
	return func(r *Reporter) {
		r.refresh = true
	}
}

func NewReporter(ctx context.Context, config ClientConfig, opts ...Option) (*Reporter, error) {
	if len(config.Addresses) == 0 || config.IndexName == "" {
		return nil, errors.New("elasticsearch configuration is incomplete: addresses or index name is missing")
	}

	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	r := &Reporter{
		Base:      report.NewBase(defaultName, ingest.CommitAlways),
		client:    client,
		indexName: config.IndexName,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return r, nil
}

func (r *Reporter) Commit(ctx context.Context) error {
	summary, err := r.Summary()
	if err != nil {
		return err
	}

	doc := r.summaryToDocument(summary)

	req := r.client.Index(r.indexName).Id(doc.ID).Document(doc)
	if r.refresh {
		req = req.Refresh(refresh.True)
	}

	res, err := req.Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index run summary: %w", err)
	}

	r.MarkCommitted()
	slog.Info("Run summary indexed successfully", "id", doc.ID, "index", r.indexName, "result", res.Result)
	return nil
}

// Get fetches the summary document stored for runID, nil when missing.
func (r *Reporter) Get(ctx context.Context, runID string) (*Document, error) {
	res, err := r.client.Get(r.indexName, r.documentID(runID)).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}
	if !res.Found {
		return nil, nil
	}

	var doc Document
	if err := json.Unmarshal(res.Source_, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &doc, nil
}

// documentID is stable per (reporter, run) so re-commits overwrite.
func (r *Reporter) documentID(runID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(r.Name()+"/"+runID)).String()
}

func (r *Reporter) summaryToDocument(s ingest.RunSummary) Document {
	return Document{
		ID:              r.documentID(s.RunID),
		RunID:           s.RunID,
		Reporter:        r.Name(),
		PipelineName:    s.PipelineName,
		Status:          string(s.Status),
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		DurationMillis:  s.Duration().Milliseconds(),
		WorkUnitsPerSec: throughput(s),
		WorkUnits:       s.WorkUnits,
		Failures:        s.Failures,
		Warnings:        s.Warnings,
		ControlRecords:  s.ControlRecords,
		DryRun:          s.DryRun,
		ReportedAt:      time.Now(),
	}
}

// throughput is work units per second of run time, rounded to two places.
func throughput(s ingest.RunSummary) float64 {
	d := s.Duration().Seconds()
	if d <= 0 {
		return 0
	}
	return utils.RoundDecimal(float64(s.WorkUnits)/d, 2)
}

func (r *Reporter) EnsureIndex(ctx context.Context) error {
	existsRes, err := r.client.Indices.Exists(r.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}

	if existsRes {
		slog.Info("Index already exists", "index", r.indexName)
		return nil
	}

	mappings := types.TypeMapping{
		Properties: map[string]types.Property{
			"id":                 types.NewKeywordProperty(),
			"run_id":             types.NewKeywordProperty(),
			"reporter":           types.NewKeywordProperty(),
			"pipeline_name":      types.NewKeywordProperty(),
			"status":             types.NewKeywordProperty(),
			"started_at":         types.NewDateProperty(),
			"finished_at":        types.NewDateProperty(),
			"duration_ms":        types.NewLongNumberProperty(),
			"work_units":         types.NewIntegerNumberProperty(),
			"work_units_per_sec": types.NewFloatNumberProperty(),
			"failures":           types.NewIntegerNumberProperty(),
			"warnings":           types.NewIntegerNumberProperty(),
			"control_records":    types.NewIntegerNumberProperty(),
			"dry_run":            types.NewBooleanProperty(),
			"reported_at":        types.NewDateProperty(),
		},
	}

	createRes, err := r.client.Indices.Create(r.indexName).
		Mappings(&mappings).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if !createRes.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("Index created successfully", "index", r.indexName)
	return nil
}

// Healthy reports whether the cluster answers a ping.
func (r *Reporter) Healthy(ctx context.Context) bool {
	ok, err := r.client.Ping().Do(ctx)
	return err == nil && ok
}

func (r *Reporter) Close() {}
