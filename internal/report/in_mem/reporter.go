package in_mem

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report"
)

const defaultName = "in_mem_run_reporter"

type Reporter struct {
	*report.Base

	storageLock sync.RWMutex
	storage     map[string]ingest.RunSummary
	order       []string
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

func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{
		Base:    report.NewBase(defaultName, ingest.CommitAlways),
		storage: make(map[string]ingest.RunSummary),
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

	r.storageLock.Lock()
	if _, ok := r.storage[summary.RunID]; !ok {
		r.order = append(r.order, summary.RunID)
	}
	r.storage[summary.RunID] = summary
	r.storageLock.Unlock()

	r.MarkCommitted()
	slog.Info("Run summary saved to in-memory storage", "run_id", summary.RunID, "status", summary.Status)
	return nil
}

func (r *Reporter) Get(runID string) (ingest.RunSummary, bool) {
	r.storageLock.RLock()
	defer r.storageLock.RUnlock()
	s, ok := r.storage[runID]
	return s, ok
}

// Runs returns the stored summaries in commit order.
func (r *Reporter) Runs() []ingest.RunSummary {
	r.storageLock.RLock()
	defer r.storageLock.RUnlock()

	runs := make([]ingest.RunSummary, 0, len(r.order))
	for _, id := range r.order {
		runs = append(runs, r.storage[id])
	}
	return runs
}

func (r *Reporter) Close() {}
