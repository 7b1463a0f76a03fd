package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/graph"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/report/factory"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/server"
	"github.com/DjordjeVuckovic/metadata-ingest/pkg/config/env"
	"github.com/DjordjeVuckovic/metadata-ingest/pkg/utils"
)

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type AppConfig struct {
	ENV string
}

type IngestCheckConfig struct {
	RecipePath string
	// Datasets are "platform:name" pairs emitted as probe work units.
	Datasets []string
	// Graph is used when the recipe has no datahub_api section.
	Graph    *graph.ClientConfig
	Reporter *factory.ReporterConfig
	Server   *server.Config
}

func (as *AppConfig) Load() (*IngestCheckConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/ingest_check/.env")
	if err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}

	recipePath := os.Getenv("RECIPE_PATH")
	if recipePath == "" {
		slog.Error("RECIPE_PATH environment variable is not set")
		return nil, fmt.Errorf("RECIPE_PATH environment variable is not set")
	}

	var reporterCfg *factory.ReporterConfig
	if os.Getenv("REPORT_TYPE") != "" {
		reporterCfg, err = factory.LoadEnv()
		if err != nil {
			slog.Error("Failed to load reporter configuration from environment", "error", err)
			return nil, err
		}
	}

	var graphCfg *graph.ClientConfig
	if os.Getenv("DATAHUB_GMS_URL") != "" {
		graphCfg, err = graph.LoadConfigFromEnv()
		if err != nil {
			return nil, err
		}
	}

	serverCfg, err := server.LoadConfig()
	if err != nil {
		return nil, err
	}

	return &IngestCheckConfig{
		RecipePath: recipePath,
		Datasets:   utils.RemoveEmptyStrings(strings.Split(os.Getenv("CHECK_DATASETS"), ",")),
		Graph:      graphCfg,
		Reporter:   reporterCfg,
		Server:     serverCfg,
	}, nil
}
