package ingest

import (
	"context"
	"errors"
	"log/slog"
)

// Result is one item produced by a Source: an envelope or a collection error.
type Result struct {
	Envelope RecordEnvelope[WorkUnit]
	Err      error
}

type Source interface {
	Name() string
	Collect(ctx context.Context, pctx *PipelineContext) (<-chan Result, error)
}

// Sink consumes envelopes. Write receives control envelopes too and must
// flush buffered state on EndOfStream.
type Sink interface {
	Name() string
	Write(ctx context.Context, envelope RecordEnvelope[WorkUnit]) error
	Close(ctx context.Context) error
}

// BulkWriter writes a batch of data envelopes at once.
type BulkWriter interface {
	Name() string
	WriteBulk(ctx context.Context, envelopes []RecordEnvelope[WorkUnit]) error
}

// Warning marks a stage error that should be reported but not fail the run.
type Warning struct {
	Err error
}

func (w *Warning) Error() string {
	return "warning: " + w.Err.Error()
}

func (w *Warning) Unwrap() error {
	return w.Err
}

func NewWarning(err error) *Warning {
	return &Warning{Err: err}
}

func isWarning(err error) bool {
	var w *Warning
	return errors.As(err, &w)
}

// BufferedSink batches data envelopes for a BulkWriter and flushes when the
// batch is full or when an EndOfStream arrives.
type BufferedSink struct {
	writer  BulkWriter
	size    int
	pending []RecordEnvelope[WorkUnit]
	batches int
}

func NewBufferedSink(writer BulkWriter, size int) *BufferedSink {
	if size <= 0 {
		size = defaultBatchSize
	}
	return &BufferedSink{
		writer:  writer,
		size:    size,
		pending: make([]RecordEnvelope[WorkUnit], 0, size),
	}
}

func (s *BufferedSink) Name() string {
	return s.writer.Name()
}

func (s *BufferedSink) Write(ctx context.Context, envelope RecordEnvelope[WorkUnit]) error {
	return Match(envelope,
		func(_ WorkUnit, _ map[string]any) error {
			s.pending = append(s.pending, envelope)
			if len(s.pending) >= s.size {
				return s.flush(ctx)
			}
			return nil
		},
		func(ctrl ControlRecord, _ map[string]any) error {
			switch ctrl.(type) {
			case EndOfStream:
				return s.flush(ctx)
			default:
				return nil
			}
		},
	)
}

func (s *BufferedSink) Close(ctx context.Context) error {
	return s.flush(ctx)
}

func (s *BufferedSink) Batches() int {
	return s.batches
}

func (s *BufferedSink) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	batch := s.pending
	s.pending = make([]RecordEnvelope[WorkUnit], 0, s.size)

	if err := s.writer.WriteBulk(ctx, batch); err != nil {
		slog.Error("Error writing bulk of work units",
			"error", err,
			"count", len(batch),
			"sink", s.writer.Name(),
		)
		return err
	}

	s.batches++
	slog.Info("Bulk work units written successfully",
		"count", len(batch),
		"sink", s.writer.Name(),
		"batch", s.batches,
	)
	return nil
}
