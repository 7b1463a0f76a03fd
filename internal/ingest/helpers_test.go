package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fakeCommittable struct {
	name      string
	policy    CommitPolicy
	commitErr error

	mu        sync.Mutex
	commits   int
	summaries []RunSummary
}

func newFakeCommittable(name string) *fakeCommittable {
	return &fakeCommittable{name: name, policy: CommitAlways}
}

func (f *fakeCommittable) Name() string {
	return f.name
}

func (f *fakeCommittable) CommitPolicy() CommitPolicy {
	return f.policy
}

func (f *fakeCommittable) Commit(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	return nil
}

func (f *fakeCommittable) Committed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits > 0
}

func (f *fakeCommittable) RecordSummary(s RunSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s)
}

type sliceSource struct {
	results     []Result
	committable Committable
}

func (s *sliceSource) Name() string {
	return "slice"
}

func (s *sliceSource) RegisterCommittables(pctx *PipelineContext) error {
	if s.committable == nil {
		return nil
	}
	return pctx.RegisterCheckpointer(s.committable)
}

func (s *sliceSource) Collect(ctx context.Context, _ *PipelineContext) (<-chan Result, error) {
	out := make(chan Result)
	go func() {
		defer close(out)
		for _, r := range s.results {
			select {
			case <-ctx.Done():
				return
			case out <- r:
			}
		}
	}()
	return out, nil
}

type failingSource struct{}

func (failingSource) Name() string {
	return "failing"
}

func (failingSource) Collect(context.Context, *PipelineContext) (<-chan Result, error) {
	return nil, errors.New("cannot open source")
}

type memorySink struct {
	writeErr func(wu WorkUnit) error

	data     []WorkUnit
	controls []ControlRecord
	bulks    [][]RecordEnvelope[WorkUnit]
	closed   bool
}

func (s *memorySink) Name() string {
	return "memory"
}

func (s *memorySink) Write(_ context.Context, env RecordEnvelope[WorkUnit]) error {
	if ctrl, ok := env.Control(); ok {
		s.controls = append(s.controls, ctrl)
		return nil
	}
	wu, _ := env.Record()
	if s.writeErr != nil {
		if err := s.writeErr(wu); err != nil {
			return err
		}
	}
	s.data = append(s.data, wu)
	return nil
}

func (s *memorySink) Close(context.Context) error {
	s.closed = true
	return nil
}

type bulkMemorySink struct {
	memorySink
}

func (s *bulkMemorySink) WriteBulk(_ context.Context, envs []RecordEnvelope[WorkUnit]) error {
	batch := append([]RecordEnvelope[WorkUnit](nil), envs...)
	s.bulks = append(s.bulks, batch)
	for _, env := range envs {
		wu, _ := env.Record()
		s.data = append(s.data, wu)
	}
	return nil
}

func mustWorkUnit(t *testing.T, entity string) *MetadataWorkUnit {
	t.Helper()
	wu, err := NewMetadataWorkUnit("", entity, "status", map[string]any{"removed": false})
	require.NoError(t, err)
	return wu
}

func dataResult(wu WorkUnit) Result {
	return Result{Envelope: NewEnvelope[WorkUnit](wu, map[string]any{"source": "test"})}
}

func newFakeGMS(t *testing.T, config map[string]any) *httptest.Server {
	t.Helper()

	e := echo.New()
	e.HideBanner = true
	e.GET("/config", func(c echo.Context) error {
		return c.JSON(http.StatusOK, config)
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}
