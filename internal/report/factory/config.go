package factory

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/recipe"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/es"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/pg"
	"github.com/DjordjeVuckovic/metadata-ingest/pkg/utils"
)

type ReporterConfig struct {
	report.Type
	Name string
	Pg   *pg.PoolConfig
	Es   *es.ClientConfig
}

func LoadEnv() (*ReporterConfig, error) {
	reporterType := (report.Type)(os.Getenv("REPORT_TYPE"))
	if reporterType == "" {
		slog.Error("REPORT_TYPE environment variable is not set")
		return nil, fmt.Errorf("REPORT_TYPE environment variable is not set")
	}
	if reporterType != report.ES && reporterType != report.PG && reporterType != report.InMem {
		slog.Error("Invalid REPORT_TYPE environment variable value", "value", reporterType)
		return nil, fmt.Errorf(
			"invalid REPORT_TYPE environment variable value: %s, expected one of %v",
			reporterType,
			[]report.Type{report.ES, report.PG, report.InMem})
	}

	var esCfg *es.ClientConfig
	if reporterType == report.ES {
		esCfg = &es.ClientConfig{
			Addresses: utils.RemoveEmptyStrings(strings.Split(os.Getenv("ES_ADDRESSES"), ",")),
			IndexName: os.Getenv("ES_INDEX_NAME"),
			Username:  os.Getenv("ES_USERNAME"),
			Password:  os.Getenv("ES_PASSWORD"),
		}
		if len(esCfg.Addresses) == 0 || esCfg.IndexName == "" {
			slog.Error("Elasticsearch configuration is incomplete", "addresses", esCfg.Addresses, "indexName", esCfg.IndexName)
			return nil, fmt.Errorf("elasticsearch configuration is incomplete: addresses or index name is missing")
		}
	}

	var pgCfg *pg.PoolConfig
	if reporterType == report.PG {
		pgCfg = &pg.PoolConfig{
			ConnStr: os.Getenv("PG_CONNECTION_STRING"),
		}
		if pgCfg.ConnStr == "" {
			slog.Error("PostgreSQL connection string is not set")
			return nil, fmt.Errorf("PostgreSQL connection string is not set")
		}
	}

	return &ReporterConfig{
		Type: reporterType,
		Name: os.Getenv("REPORT_NAME"),
		Pg:   pgCfg,
		Es:   esCfg,
	}, nil
}

// FromRecipe converts a validated recipe reporting entry.
func FromRecipe(rep recipe.Reporting) ReporterConfig {
	cfg := ReporterConfig{
		Type: report.Type(rep.Type),
		Name: rep.Name,
	}
	if rep.Pg != nil {
		cfg.Pg = &pg.PoolConfig{ConnStr: rep.Pg.ConnectionString}
	}
	if rep.Es != nil {
		cfg.Es = &es.ClientConfig{
			Addresses: rep.Es.Addresses,
			IndexName: rep.Es.IndexName,
			Username:  rep.Es.Username,
			Password:  rep.Es.Password,
		}
	}
	return cfg
}
