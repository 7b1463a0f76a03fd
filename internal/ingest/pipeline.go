package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
)

// ErrDataAfterEndOfStream marks data a source emitted after its EndOfStream.
// Such work units are dropped and counted as failures.
var ErrDataAfterEndOfStream = errors.New("data received after end of stream")

var errNilWorkUnit = errors.New("nil work unit")

const (
	defaultBatchSize        = 1000
	defaultPreviewWorkUnits = 10
)

// BulkOptions defines bulk processing configuration
type BulkOptions struct {
	Enabled bool
	Size    int
}

// PipelineConfig defines configuration for pipelines
type PipelineConfig struct {
	Name             string
	Bulk             *BulkOptions
	PreviewWorkUnits int
}

// Pipeline drives one run: stage setup, streaming from source to sink, and
// the final commit pass over the context's committables.
type Pipeline struct {
	pctx   *PipelineContext
	source Source
	sink   Sink
	config *PipelineConfig
	report *Report

	mu     sync.Mutex
	cancel context.CancelFunc
}

type PipelineOption func(pipeline *Pipeline)

// WithBulk batches writes when the sink supports bulk writes.
func WithBulk(size int) PipelineOption {
	return func(pipeline *Pipeline) {
		if pipeline.config.Bulk == nil {
			pipeline.config.Bulk = &BulkOptions{}
		}
		pipeline.config.Bulk.Enabled = true
		pipeline.config.Bulk.Size = size
	}
}

// WithConfig sets custom pipeline configuration
func WithConfig(config *PipelineConfig) PipelineOption {
	return func(pipeline *Pipeline) {
		pipeline.config = config
	}
}

func NewPipeline(pctx *PipelineContext, source Source, sink Sink, opts ...PipelineOption) *Pipeline {
	name := pctx.PipelineName()
	if name == "" {
		name = "ingest-pipeline"
	}

	p := &Pipeline{
		pctx:   pctx,
		source: source,
		sink:   sink,
		report: &Report{},
		config: &PipelineConfig{
			Name: name,
			Bulk: &BulkOptions{
				Enabled: false,
				Size:    defaultBatchSize,
			},
			PreviewWorkUnits: defaultPreviewWorkUnits,
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.config.Bulk != nil && p.config.Bulk.Enabled {
		if bw, ok := sink.(BulkWriter); ok {
			p.sink = &bulkSink{BufferedSink: NewBufferedSink(bw, p.config.Bulk.Size), closer: sink}
		} else {
			slog.Warn("Sink does not support bulk writes, writing one by one", "sink", sink.Name(), "pipeline", p.config.Name)
		}
	}

	return p
}

func (p *Pipeline) Context() *PipelineContext {
	return p.pctx
}

func (p *Pipeline) Report() *Report {
	return p.report
}

// Run executes the pipeline. Setup errors and commit errors are returned;
// per-record errors are counted in the report.
func (p *Pipeline) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	start := time.Now()
	p.report.start(start)
	slog.Info("Starting pipeline run",
		"pipeline", p.config.Name,
		"run_id", p.pctx.RunID(),
		"bulk_enabled", p.config.Bulk != nil && p.config.Bulk.Enabled,
		"dry_run", p.pctx.DryRun(),
		"preview", p.pctx.PreviewMode(),
		"time", start,
	)

	if err := p.setup(); err != nil {
		slog.Error("Error setting up pipeline stages", "error", err, "pipeline", p.config.Name)
		return err
	}

	results, err := p.source.Collect(ctx, p.pctx)
	if err != nil {
		slog.Error("Error collecting work units", "error", err, "pipeline", p.config.Name)
		return fmt.Errorf("source %s: %w", p.source.Name(), err)
	}

	runErr := p.process(ctx, results)
	if closeErr := p.sink.Close(context.WithoutCancel(ctx)); closeErr != nil {
		slog.Error("Error closing sink", "error", closeErr, "sink", p.sink.Name())
		p.report.failure(closeErr)
	}

	p.report.finish(time.Now())

	commitErr := p.commit(context.WithoutCancel(ctx))

	summary := p.report.Summary(p.pctx)
	slog.Info("Pipeline run completed",
		"pipeline", p.config.Name,
		"run_id", summary.RunID,
		"duration", summary.Duration(),
		"work_units", summary.WorkUnits,
		"failures", summary.Failures,
		"warnings", summary.Warnings,
		"status", summary.Status,
		"error", runErr,
	)

	return errors.Join(runErr, commitErr)
}

func (p *Pipeline) setup() error {
	for _, stage := range []any{p.source, p.sink} {
		if bs, ok := stage.(*bulkSink); ok {
			stage = bs.closer
		}
		r, ok := stage.(Registrar)
		if !ok {
			continue
		}
		if err := r.RegisterCommittables(p.pctx); err != nil {
			return err
		}
	}

	p.pctx.Seal()
	slog.Debug("Pipeline setup completed", "pipeline", p.config.Name, "committables", p.pctx.Len())
	return nil
}

func (p *Pipeline) process(ctx context.Context, results <-chan Result) error {
	sawEndOfStream := false

	for {
		select {
		case <-ctx.Done():
			p.report.cancel()
			slog.Info("Pipeline context cancelled, stopping collection",
				"pipeline", p.config.Name,
				"processed", p.report.Summary(p.pctx).WorkUnits,
			)
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				slog.Info("Collection channel closed, stopping collection", "pipeline", p.config.Name)
				if !sawEndOfStream {
					p.write(ctx, NewControlEnvelope[WorkUnit](EndOfStream{}, map[string]any{"run_id": p.pctx.RunID()}))
				}
				return nil
			}

			if res.Err != nil {
				p.recordError(res.Err, "Error collecting work unit")
				continue
			}

			if ctrl, ok := res.Envelope.Control(); ok {
				if _, eos := ctrl.(EndOfStream); eos {
					sawEndOfStream = true
				}
				p.write(ctx, res.Envelope)
				continue
			}

			wu, _ := res.Envelope.Record()
			if wu == nil {
				p.recordError(apperr.NewMalformedWorkUnit("", errNilWorkUnit), "Dropping malformed work unit")
				continue
			}
			if sawEndOfStream {
				p.recordError(fmt.Errorf("work unit %s: %w", wu.ID(), ErrDataAfterEndOfStream), "Dropping work unit received after end of stream")
				continue
			}

			p.write(ctx, res.Envelope)

			if p.pctx.PreviewMode() && p.report.Summary(p.pctx).WorkUnits >= p.config.PreviewWorkUnits {
				slog.Info("Preview limit reached, stopping collection",
					"pipeline", p.config.Name,
					"limit", p.config.PreviewWorkUnits,
				)
				if !sawEndOfStream {
					p.write(ctx, NewControlEnvelope[WorkUnit](EndOfStream{}, map[string]any{"run_id": p.pctx.RunID()}))
				}
				return nil
			}
		}
	}
}

func (p *Pipeline) write(ctx context.Context, envelope RecordEnvelope[WorkUnit]) {
	err := Match(envelope,
		func(wu WorkUnit, _ map[string]any) error {
			p.report.workUnit()
			if err := p.sink.Write(ctx, envelope); err != nil {
				return fmt.Errorf("work unit %s: %w", wu.ID(), err)
			}
			slog.Debug("Work unit written", "id", wu.ID(), "sink", p.sink.Name())
			return nil
		},
		func(ctrl ControlRecord, _ map[string]any) error {
			p.report.controlRecord()
			slog.Debug("Control record received", "record", ctrl.String(), "pipeline", p.config.Name)
			return p.sink.Write(ctx, envelope)
		},
	)
	if err != nil {
		p.recordError(err, "Error writing to sink")
	}
}

func (p *Pipeline) recordError(err error, msg string) {
	if isWarning(err) {
		slog.Warn(msg, "error", err, "pipeline", p.config.Name)
		p.report.warning()
		return
	}
	slog.Error(msg, "error", err, "pipeline", p.config.Name)
	p.report.failure(err)
}

// commit runs each committable's commit in registration order, honouring its
// commit policy. A failing commit aborts the pass.
func (p *Pipeline) commit(ctx context.Context) error {
	if p.pctx.DryRun() {
		slog.Info("Dry run, skipping commits", "pipeline", p.config.Name, "committables", p.pctx.Len())
		return nil
	}

	hasFailures := p.report.HasFailures()
	hasWarnings := p.report.HasWarnings()
	summary := p.report.Summary(p.pctx)

	for name, committable := range p.pctx.Committables() {
		policy := committable.CommitPolicy()
		if !policy.Allows(hasFailures, hasWarnings) {
			slog.Warn("Skipping commit request",
				"committable", name,
				"policy", policy.String(),
				"failures", hasFailures,
				"warnings", hasWarnings,
			)
			continue
		}

		if rec, ok := committable.(SummaryRecorder); ok {
			rec.RecordSummary(summary)
		}

		slog.Info("Processing commit request", "committable", name, "policy", policy.String())
		if err := committable.Commit(ctx); err != nil {
			slog.Error("Commit failed", "committable", name, "error", err)
			return fmt.Errorf("failed to commit %s: %w", name, err)
		}
		slog.Info("Successfully committed changes", "committable", name)
	}

	return nil
}

// Stop cancels a running pipeline. Committables still get their commit pass.
func (p *Pipeline) Stop() {
	slog.Info("Stopping pipeline...", "pipeline", p.config.Name)

	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	slog.Info("Pipeline stopped", "pipeline", p.config.Name)
}

// bulkSink forwards Close to the wrapped sink after the final flush.
type bulkSink struct {
	*BufferedSink
	closer Sink
}

func (s *bulkSink) Close(ctx context.Context) error {
	if err := s.BufferedSink.Close(ctx); err != nil {
		return err
	}
	return s.closer.Close(ctx)
}
