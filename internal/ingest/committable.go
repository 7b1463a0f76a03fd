package ingest

import "context"

// CommitPolicy decides whether a committable commits given the run outcome.
type CommitPolicy int

const (
	CommitAlways CommitPolicy = iota
	CommitOnNoErrors
	CommitOnNoErrorsAndNoWarnings
)

func (p CommitPolicy) String() string {
	switch p {
	case CommitAlways:
		return "ALWAYS"
	case CommitOnNoErrors:
		return "ON_NO_ERRORS"
	case CommitOnNoErrorsAndNoWarnings:
		return "ON_NO_ERRORS_AND_NO_WARNINGS"
	default:
		return "UNKNOWN"
	}
}

// Allows reports whether a run with the given outcome may commit.
func (p CommitPolicy) Allows(hasFailures, hasWarnings bool) bool {
	switch p {
	case CommitAlways:
		return true
	case CommitOnNoErrors:
		return !hasFailures
	case CommitOnNoErrorsAndNoWarnings:
		return !hasFailures && !hasWarnings
	default:
		return false
	}
}

// Committable is a named participant whose progress is persisted at run end.
// Name must be stable for the lifetime of the value.
type Committable interface {
	Name() string
	CommitPolicy() CommitPolicy
	Commit(ctx context.Context) error
	Committed() bool
}

// Registrar is implemented by stages that register committables during setup.
type Registrar interface {
	RegisterCommittables(pctx *PipelineContext) error
}

// SummaryRecorder is implemented by committables that persist the run summary.
// The driver hands over the summary right before Commit.
type SummaryRecorder interface {
	RecordSummary(summary RunSummary)
}
