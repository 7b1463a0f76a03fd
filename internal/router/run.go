package router

import (
	"net/http"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/ingest"
	"github.com/labstack/echo/v4"
)

type RunView struct {
	RunID         string             `json:"run_id"`
	PipelineName  string             `json:"pipeline_name"`
	DryRun        bool               `json:"dry_run"`
	Preview       bool               `json:"preview"`
	Connected     bool               `json:"connected"`
	Server        string             `json:"server,omitempty"`
	LowerCaseURNs bool               `json:"lower_case_urns"`
	Sealed        bool               `json:"sealed"`
	Committables  []CommittableView  `json:"committables"`
	Summary       *ingest.RunSummary `json:"summary,omitempty"`
}

type CommittableView struct {
	Name      string `json:"name"`
	Policy    string `json:"policy"`
	Committed bool   `json:"committed"`
}

type RunRouter struct {
	e      *echo.Echo
	pctx   *ingest.PipelineContext
	report *ingest.Report
}

type RunRouterOption func(r *RunRouter)

// WithReport attaches the live report of the pipeline driving the context.
func WithReport(report *ingest.Report) RunRouterOption {
	return func(r *RunRouter) {
		r.report = report
	}
}

func NewRunRouter(e *echo.Echo, pctx *ingest.PipelineContext, opts ...RunRouterOption) *RunRouter {
	r := &RunRouter{
		e:    e,
		pctx: pctx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RunRouter) Bind() {
	r.e.GET("/run", r.runHandler)
	r.e.GET("/run/committables/:name", r.committableHandler)
}

func (r *RunRouter) runHandler(c echo.Context) error {
	view := RunView{
		RunID:         r.pctx.RunID(),
		PipelineName:  r.pctx.PipelineName(),
		DryRun:        r.pctx.DryRun(),
		Preview:       r.pctx.PreviewMode(),
		LowerCaseURNs: r.pctx.Casing().Lower(),
		Sealed:        r.pctx.Sealed(),
		Committables:  make([]CommittableView, 0, r.pctx.Len()),
	}
	if g := r.pctx.Graph(); g != nil {
		view.Connected = true
		view.Server = g.Endpoint()
	}
	for _, cm := range r.pctx.Committables() {
		view.Committables = append(view.Committables, toCommittableView(cm))
	}
	if r.report != nil {
		summary := r.report.Summary(r.pctx)
		view.Summary = &summary
	}

	return c.JSON(http.StatusOK, view)
}

func (r *RunRouter) committableHandler(c echo.Context) error {
	name := c.Param("name")

	cm, ok := r.pctx.Checkpointer(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "committable "+name+" is not registered")
	}

	return c.JSON(http.StatusOK, toCommittableView(cm))
}

func toCommittableView(cm ingest.Committable) CommittableView {
	return CommittableView{
		Name:      cm.Name(),
		Policy:    cm.CommitPolicy().String(),
		Committed: cm.Committed(),
	}
}
