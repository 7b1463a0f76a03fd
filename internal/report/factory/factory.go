package factory

import (
	"context"
	"fmt"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/report"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/es"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/in_mem"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/pg"
)

// NewReporter creates a report.Reporter based on the reporter type
func NewReporter(ctx context.Context, cfg ReporterConfig) (report.Reporter, error) {
	switch cfg.Type {
	case report.PG:
		if cfg.Pg == nil {
			return nil, fmt.Errorf("missing PostgreSQL configuration for reporter %q", cfg.Name)
		}

		pool, err := pg.NewConnectionPool(ctx, *cfg.Pg)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
		}

		var opts []pg.Option
		if cfg.Name != "" {
			opts = append(opts, pg.WithName(cfg.Name))
		}
		return pg.NewReporter(pool, opts...), nil

	case report.ES:
		if cfg.Es == nil {
			return nil, fmt.Errorf("missing Elasticsearch configuration for reporter %q", cfg.Name)
		}

		var opts []es.Option
		if cfg.Name != "" {
			opts = append(opts, es.WithName(cfg.Name))
		}
		return es.NewReporter(ctx, *cfg.Es, opts...)

	case report.InMem:
		var opts []in_mem.Option
		if cfg.Name != "" {
			opts = append(opts, in_mem.WithName(cfg.Name))
		}
		return in_mem.NewReporter(opts...), nil

	default:
		return nil, fmt.Errorf(string(report.ErrUnsupportedReporter), cfg.Type)
	}
}
