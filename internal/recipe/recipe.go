package recipe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
	"github.com/DjordjeVuckovic/metadata-ingest/internal/graph"
)

// Recipe is the pipeline configuration a run is started from.
type Recipe struct {
	PipelineName string        `yaml:"pipeline_name"`
	RunID        string        `yaml:"run_id"`
	DatahubAPI   *DatahubAPI   `yaml:"datahub_api,omitempty"`
	DryRun       bool          `yaml:"dry_run"`
	Preview      bool          `yaml:"preview"`
	Reporting    []Reporting   `yaml:"reporting,omitempty"`
	Bulk         *BulkSettings `yaml:"bulk,omitempty"`
}

type DatahubAPI struct {
	Server                 string            `yaml:"server"`
	Token                  string            `yaml:"token,omitempty"`
	TimeoutSec             int               `yaml:"timeout_sec,omitempty"`
	ExtraHeaders           map[string]string `yaml:"extra_headers,omitempty"`
	DisableSSLVerification bool              `yaml:"disable_ssl_verification,omitempty"`
}

type Reporting struct {
	Type string       `yaml:"type"`
	Name string       `yaml:"name,omitempty"`
	Pg   *PgReporting `yaml:"pg,omitempty"`
	Es   *EsReporting `yaml:"es,omitempty"`
}

type PgReporting struct {
	ConnectionString string `yaml:"connection_string"`
}

type EsReporting struct {
	Addresses []string `yaml:"addresses"`
	IndexName string   `yaml:"index_name"`
	Username  string   `yaml:"username,omitempty"`
	Password  string   `yaml:"password,omitempty"`
}

type BulkSettings struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

// GraphConfig converts the datahub_api section, nil when the recipe runs disconnected.
func (r *Recipe) GraphConfig() *graph.ClientConfig {
	if r.DatahubAPI == nil {
		return nil
	}
	cfg := &graph.ClientConfig{
		Server:                 strings.TrimRight(r.DatahubAPI.Server, "/"),
		Token:                  r.DatahubAPI.Token,
		ExtraHeaders:           r.DatahubAPI.ExtraHeaders,
		DisableSSLVerification: r.DatahubAPI.DisableSSLVerification,
	}
	if r.DatahubAPI.TimeoutSec > 0 {
		cfg.Timeout = time.Duration(r.DatahubAPI.TimeoutSec) * time.Second
	}
	return cfg
}

func (r *Recipe) Validate() error {
	var errs []error

	if r.DatahubAPI != nil && strings.TrimSpace(r.DatahubAPI.Server) == "" {
		errs = append(errs, apperr.NewValidation("datahub_api.server is required when datahub_api is set"))
	}
	if r.Bulk != nil && r.Bulk.Enabled && r.Bulk.Size <= 0 {
		errs = append(errs, apperr.NewValidation("bulk.size must be positive when bulk is enabled"))
	}

	names := make(map[string]struct{}, len(r.Reporting))
	for i, rep := range r.Reporting {
		switch rep.Type {
		case "pg":
			if rep.Pg == nil || rep.Pg.ConnectionString == "" {
				errs = append(errs, apperr.NewValidation(fmt.Sprintf("reporting[%d]: pg.connection_string is required", i)))
			}
		case "es":
			if rep.Es == nil || len(rep.Es.Addresses) == 0 || rep.Es.IndexName == "" {
				errs = append(errs, apperr.NewValidation(fmt.Sprintf("reporting[%d]: es.addresses and es.index_name are required", i)))
			}
		case "in_mem":
		default:
			errs = append(errs, apperr.NewValidation(fmt.Sprintf("reporting[%d]: unsupported type %q", i, rep.Type)))
		}

		name := rep.Name
		if name == "" {
			name = rep.Type
		}
		if _, ok := names[name]; ok {
			errs = append(errs, apperr.NewValidation(fmt.Sprintf("reporting[%d]: duplicate reporter name %q", i, name)))
		}
		names[name] = struct{}{}
	}

	return errors.Join(errs...)
}
