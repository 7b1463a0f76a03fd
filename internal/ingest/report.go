package ingest

import (
	"sync"
	"time"
)

type RunStatus string

const (
	StatusRunning   RunStatus = "RUNNING"
	StatusSuccess   RunStatus = "SUCCESS"
	StatusFailure   RunStatus = "FAILURE"
	StatusCancelled RunStatus = "CANCELLED"
)

// RunSummary is a point-in-time copy of a run's report.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	PipelineName   string    `json:"pipeline_name"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	WorkUnits      int       `json:"work_units"`
	Failures       int       `json:"failures"`
	Warnings       int       `json:"warnings"`
	ControlRecords int       `json:"control_records"`
	DryRun         bool      `json:"dry_run"`
	Status         RunStatus `json:"status"`
}

func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Report accumulates run counters. It is written by the driver and may be read
// concurrently, e.g. by the status server.
type Report struct {
	mu sync.RWMutex

	startedAt      time.Time
	finishedAt     time.Time
	workUnits      int
	failures       int
	warnings       int
	controlRecords int
	cancelled      bool
	failureSamples []string
}

const maxFailureSamples = 10

func (r *Report) start(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startedAt = now
}

func (r *Report) finish(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishedAt = now
}

func (r *Report) workUnit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workUnits++
}

func (r *Report) controlRecord() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controlRecords++
}

func (r *Report) failure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	if len(r.failureSamples) < maxFailureSamples {
		r.failureSamples = append(r.failureSamples, err.Error())
	}
}

func (r *Report) warning() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings++
}

func (r *Report) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = true
}

func (r *Report) HasFailures() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failures > 0 || r.cancelled
}

func (r *Report) HasWarnings() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.warnings > 0
}

func (r *Report) FailureSamples() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.failureSamples...)
}

func (r *Report) Summary(pctx *PipelineContext) RunSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := StatusRunning
	switch {
	case r.cancelled:
		status = StatusCancelled
	case r.finishedAt.IsZero():
	case r.failures > 0:
		status = StatusFailure
	default:
		status = StatusSuccess
	}

	return RunSummary{
		RunID:          pctx.RunID(),
		PipelineName:   pctx.PipelineName(),
		StartedAt:      r.startedAt,
		FinishedAt:     r.finishedAt,
		WorkUnits:      r.workUnits,
		Failures:       r.failures,
		Warnings:       r.warnings,
		ControlRecords: r.controlRecords,
		DryRun:         pctx.DryRun(),
		Status:         status,
	}
}
