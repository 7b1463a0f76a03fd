package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/urn"
)

// probeSource emits one status aspect per configured "platform:name" dataset.
type probeSource struct {
	datasets []string
}

func newProbeSource(datasets []string) *probeSource {
	return &probeSource{datasets: datasets}
}

func (s *probeSource) Name() string {
	return "probe"
}

func (s *probeSource) Collect(ctx context.Context, pctx *ingest.PipelineContext) (<-chan ingest.Result, error) {
	out := make(chan ingest.Result)

	go func() {
		defer close(out)
		for _, ds := range s.datasets {
			res := s.workUnit(pctx, ds)
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *probeSource) workUnit(pctx *ingest.PipelineContext, dataset string) ingest.Result {
	platform, name, ok := strings.Cut(dataset, ":")
	if !ok || platform == "" || name == "" {
		return ingest.Result{Err: apperr.NewMalformedWorkUnit(dataset, apperr.NewValidation("expected platform:name"))}
	}

	datasetURN := urn.MakeDatasetURN(pctx.Casing(), platform, name, urn.DefaultEnv)
	wu, err := ingest.NewMetadataWorkUnit("", datasetURN, "status", map[string]any{"removed": false})
	if err != nil {
		return ingest.Result{Err: err}
	}
	return ingest.Result{Envelope: ingest.NewEnvelope[ingest.WorkUnit](wu, map[string]any{"source": s.Name()})}
}

// logSink writes every envelope to the log instead of the metadata service.
type logSink struct {
	written int
}

func (s *logSink) Name() string {
	return "log"
}

func (s *logSink) Write(ctx context.Context, envelope ingest.RecordEnvelope[ingest.WorkUnit]) error {
	if ctrl, ok := envelope.Control(); ok {
		slog.Info("Control record", "control", ctrl.String(), "written", s.written)
		return nil
	}

	wu, _ := envelope.Record()
	s.written++
	slog.Info("Work unit", "id", wu.ID(), "metadata", wu.Metadata())
	return nil
}

func (s *logSink) Close(ctx context.Context) error {
	return nil
}
