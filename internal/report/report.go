package report

import (
	"errors"
	"sync"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
)

// ErrNoSummary is returned by Commit when the driver never recorded a summary.
var ErrNoSummary = errors.New("no run summary recorded")

// Reporter persists the run summary of a pipeline run at commit time.
type Reporter interface {
	ingest.Committable
	ingest.SummaryRecorder
	Close()
}

type Type string

const (
	ES    Type = "es"
	PG    Type = "pg"
	InMem Type = "in_mem"
)

type ReporterError string

const (
	ErrUnsupportedReporter ReporterError = "unsupported reporter type: %s"
)

func (e ReporterError) Error() string {
	return string(e)
}

// Base holds the bookkeeping shared by all reporters.
type Base struct {
	name   string
	policy ingest.CommitPolicy

	mu        sync.Mutex
	summary   *ingest.RunSummary
	committed bool
}

func NewBase(name string, policy ingest.CommitPolicy) *Base {
	return &Base{name: name, policy: policy}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) CommitPolicy() ingest.CommitPolicy {
	return b.policy
}

func (b *Base) RecordSummary(summary ingest.RunSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = &summary
}

// Summary returns the recorded summary, or ErrNoSummary.
func (b *Base) Summary() (ingest.RunSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.summary == nil {
		return ingest.RunSummary{}, ErrNoSummary
	}
	return *b.summary, nil
}

func (b *Base) Committed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

func (b *Base) MarkCommitted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = true
}
