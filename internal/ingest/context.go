package ingest

import (
	"context"
	"iter"
	"log/slog"
	"sync"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/graph"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/recipe"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/urn"
)

// PipelineContext is the run-scoped coordinator shared by all stages of one
// run. It holds the metadata service handle and the committable registry.
type PipelineContext struct {
	runID          string
	pipelineName   string
	dryRun         bool
	previewMode    bool
	pipelineConfig *recipe.Recipe
	graph          *graph.Graph
	casing         *urn.Casing

	mu            sync.Mutex
	sealed        bool
	order         []string
	checkpointers map[string]Committable
}

type contextOptions struct {
	graphConfig    *graph.ClientConfig
	graphOpts      []graph.Option
	pipelineName   string
	dryRun         bool
	previewMode    bool
	pipelineConfig *recipe.Recipe
	casing         *urn.Casing
}

type ContextOption func(o *contextOptions)

// WithGraphConfig makes the context connect to the metadata service. Without
// it the run operates disconnected.
func WithGraphConfig(cfg *graph.ClientConfig, opts ...graph.Option) ContextOption {
	return func(o *contextOptions) {
		o.graphConfig = cfg
		o.graphOpts = opts
	}
}

func WithPipelineName(name string) ContextOption {
	return func(o *contextOptions) {
		o.pipelineName = name
	}
}

func WithDryRun(dryRun bool) ContextOption {
	return func(o *contextOptions) {
		o.dryRun = dryRun
	}
}

func WithPreviewMode(preview bool) ContextOption {
	return func(o *contextOptions) {
		o.previewMode = preview
	}
}

func WithPipelineConfig(r *recipe.Recipe) ContextOption {
	return func(o *contextOptions) {
		o.pipelineConfig = r
	}
}

// WithCasing overrides the casing settings the server config is applied to.
// Defaults to urn.DefaultCasing.
func WithCasing(c *urn.Casing) ContextOption {
	return func(o *contextOptions) {
		o.casing = c
	}
}

// FromRecipe derives context options from a recipe, including the back-reference.
func FromRecipe(r *recipe.Recipe) ContextOption {
	return func(o *contextOptions) {
		o.pipelineName = r.PipelineName
		o.dryRun = r.DryRun
		o.previewMode = r.Preview
		o.pipelineConfig = r
		if cfg := r.GraphConfig(); cfg != nil {
			o.graphConfig = cfg
		}
	}
}

// NewPipelineContext builds the context for run runID. When a metadata
// service is configured it is connected and its config applied before the
// context is returned; any failure yields a nil context and an
// *apperr.ConnectionError.
func NewPipelineContext(ctx context.Context, runID string, opts ...ContextOption) (*PipelineContext, error) {
	if runID == "" {
		return nil, apperr.NewValidation("run id is required")
	}

	o := contextOptions{casing: urn.DefaultCasing()}
	for _, opt := range opts {
		opt(&o)
	}

	pctx := &PipelineContext{
		runID:          runID,
		pipelineName:   o.pipelineName,
		dryRun:         o.dryRun,
		previewMode:    o.previewMode,
		pipelineConfig: o.pipelineConfig,
		casing:         o.casing,
		checkpointers:  make(map[string]Committable),
	}

	if o.graphConfig != nil {
		slog.Info("Connecting to metadata service", "server", o.graphConfig.Server, "run_id", runID)

		g, err := graph.NewGraph(ctx, *o.graphConfig, o.graphOpts...)
		if err != nil {
			slog.Error("Failed to connect to metadata service", "error", err, "server", o.graphConfig.Server)
			return nil, err
		}
		pctx.graph = g

		if err := pctx.applyServerConfig(ctx); err != nil {
			return nil, apperr.NewConnection(g.Endpoint(), err)
		}
	}

	slog.Debug("Pipeline context created",
		"run_id", runID,
		"pipeline", pctx.pipelineName,
		"dry_run", pctx.dryRun,
		"preview", pctx.previewMode,
		"connected", pctx.graph != nil,
	)

	return pctx, nil
}

// applyServerConfig turns on dataset name lower casing if the server asks for it.
func (c *PipelineContext) applyServerConfig(ctx context.Context) error {
	sc, err := c.graph.Config(ctx)
	if err != nil {
		return err
	}
	if sc.Flag(graph.DatasetURNNameCasingKey) {
		c.casing.SetLower(true)
	}
	return nil
}

func (c *PipelineContext) RunID() string {
	return c.runID
}

func (c *PipelineContext) PipelineName() string {
	return c.pipelineName
}

func (c *PipelineContext) DryRun() bool {
	return c.dryRun
}

func (c *PipelineContext) PreviewMode() bool {
	return c.previewMode
}

func (c *PipelineContext) PipelineConfig() *recipe.Recipe {
	return c.pipelineConfig
}

func (c *PipelineContext) Casing() *urn.Casing {
	return c.casing
}

// Graph returns the metadata service handle, nil when the run is disconnected.
func (c *PipelineContext) Graph() *graph.Graph {
	return c.graph
}

// RegisterCheckpointer adds committable to the registry under its name. A
// name can be registered once; a second attempt leaves the first entry in
// place and fails with *apperr.DuplicateRegistrationError.
func (c *PipelineContext) RegisterCheckpointer(committable Committable) error {
	if committable == nil {
		return apperr.NewValidation("committable is nil")
	}
	name := committable.Name()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return apperr.ErrRegistrationClosed
	}
	if _, ok := c.checkpointers[name]; ok {
		return apperr.NewDuplicateRegistration(name)
	}

	c.checkpointers[name] = committable
	c.order = append(c.order, name)

	slog.Debug("Checkpointer registered", "name", name, "run_id", c.runID)
	return nil
}

// Committables yields the registered committables in registration order.
// Each call enumerates the registry as it is at that moment.
func (c *PipelineContext) Committables() iter.Seq2[string, Committable] {
	return func(yield func(string, Committable) bool) {
		c.mu.Lock()
		names := make([]string, len(c.order))
		copy(names, c.order)
		entries := make([]Committable, len(names))
		for i, name := range names {
			entries[i] = c.checkpointers[name]
		}
		c.mu.Unlock()

		for i, name := range names {
			if !yield(name, entries[i]) {
				return
			}
		}
	}
}

// Checkpointer looks up a registered committable by name.
func (c *PipelineContext) Checkpointer(name string) (Committable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cm, ok := c.checkpointers[name]
	return cm, ok
}

func (c *PipelineContext) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Seal ends the setup phase. Later registrations fail with
// apperr.ErrRegistrationClosed.
func (c *PipelineContext) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
}

func (c *PipelineContext) Sealed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sealed
}
