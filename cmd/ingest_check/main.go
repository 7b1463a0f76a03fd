package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/recipe"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/factory"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/router"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/server"
	pkgserver "github.com/DjordjeVuckovic/metadata-ingest/pkg/server"
	"github.com/google/uuid"
)

func main() {
	appSettings := NewAppConfig()

	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("ingest check failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *IngestCheckConfig) error {
	file, err := os.Open(cfg.RecipePath)
	if err != nil {
		return fmt.Errorf("failed to open recipe: %w", err)
	}
	defer file.Close()

	r, err := recipe.NewYAMLLoader(file).Load(true)
	if err != nil {
		return fmt.Errorf("failed to load recipe: %w", err)
	}

	runID := r.RunID
	if runID == "" {
		runID = newRunID(r.PipelineName)
	}

	ctxOpts := []ingest.ContextOption{ingest.FromRecipe(r)}
	if r.GraphConfig() == nil && cfg.Graph != nil {
		slog.Info("Recipe has no datahub_api, using metadata service from environment", "server", cfg.Graph.Server)
		ctxOpts = append(ctxOpts, ingest.WithGraphConfig(cfg.Graph))
	}

	pctx, err := ingest.NewPipelineContext(ctx, runID, ctxOpts...)
	if err != nil {
		return err
	}

	reporters, err := newReporters(ctx, cfg, r)
	defer func() {
		for _, rep := range reporters {
			rep.Close()
		}
	}()
	if err != nil {
		return err
	}

	for _, rep := range reporters {
		if err := pctx.RegisterCheckpointer(rep); err != nil {
			return err
		}
	}

	printRegistry(pctx)

	var opts []ingest.PipelineOption
	if r.Bulk != nil && r.Bulk.Enabled {
		opts = append(opts, ingest.WithBulk(r.Bulk.Size))
	}
	pipeline := ingest.NewPipeline(pctx, newProbeSource(cfg.Datasets), &logSink{}, opts...)

	if cfg.Server.Enabled {
		s := newStatusServer(cfg.Server, pipeline, reporters)
		serverCtx, stopServer := context.WithCancel(ctx)
		defer stopServer()
		go func() {
			if err := s.Start(serverCtx); err != nil {
				slog.Error("Status server failed", "error", err)
			}
		}()
	}

	if err := pipeline.Run(ctx); err != nil {
		return err
	}

	summary := pipeline.Report().Summary(pctx)
	slog.Info("Ingest check finished",
		"run_id", summary.RunID,
		"status", summary.Status,
		"work_units", summary.WorkUnits,
		"failures", summary.Failures,
		"duration", summary.Duration(),
	)
	if summary.Status != ingest.StatusSuccess {
		return errors.New("run finished with status " + string(summary.Status))
	}
	return nil
}

func newRunID(pipelineName string) string {
	if pipelineName == "" {
		pipelineName = "ingest"
	}
	return pipelineName + "-" + uuid.NewString()
}

func newReporters(ctx context.Context, cfg *IngestCheckConfig, r *recipe.Recipe) ([]report.Reporter, error) {
	configs := make([]factory.ReporterConfig, 0, len(r.Reporting)+1)
	for _, rep := range r.Reporting {
		configs = append(configs, factory.FromRecipe(rep))
	}
	if cfg.Reporter != nil {
		configs = append(configs, *cfg.Reporter)
	}

	var reporters []report.Reporter
	for _, rc := range configs {
		rep, err := factory.NewReporter(ctx, rc)
		if err != nil {
			slog.Error("Failed to create reporter", "type", rc.Type, "name", rc.Name, "error", err)
			return reporters, err
		}
		reporters = append(reporters, rep)
	}
	return reporters, nil
}

func newStatusServer(cfg *server.Config, pipeline *ingest.Pipeline, reporters []report.Reporter) *server.Server {
	pctx := pipeline.Context()

	checker := pkgserver.NewCompositeHealthChecker()
	if g := pctx.Graph(); g != nil {
		checker.Add(g)
	}
	for _, rep := range reporters {
		if hc, ok := rep.(pkgserver.HealthChecker); ok {
			checker.Add(hc)
		}
	}

	s := server.New(cfg, checker).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health")

	router.NewRunRouter(s.Echo, pctx, router.WithReport(pipeline.Report())).Bind()
	return s
}

func printRegistry(pctx *ingest.PipelineContext) {
	fmt.Printf("run %s (pipeline=%q dry_run=%t preview=%t connected=%t)\n",
		pctx.RunID(), pctx.PipelineName(), pctx.DryRun(), pctx.PreviewMode(), pctx.Graph() != nil)
	fmt.Printf("lower case dataset urns: %t\n", pctx.Casing().Lower())
	fmt.Printf("committables (%d):\n", pctx.Len())
	for name, cm := range pctx.Committables() {
		fmt.Printf("  %-32s %s\n", name, cm.CommitPolicy())
	}
}
