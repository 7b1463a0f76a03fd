package ingest

import "maps"

// RecordEnvelope pairs a record with free-form metadata as it moves between
// pipeline stages. An envelope carries either a data record or a control
// record, never both. Stages treat it as read-only; use Rewrap to derive a
// new envelope.
type RecordEnvelope[T any] struct {
	record   T
	control  ControlRecord
	metadata map[string]any
}

// NewEnvelope wraps a data record. The metadata map is copied.
func NewEnvelope[T any](record T, metadata map[string]any) RecordEnvelope[T] {
	return RecordEnvelope[T]{
		record:   record,
		metadata: cloneMetadata(metadata),
	}
}

// NewControlEnvelope wraps a control record on a stream of T.
func NewControlEnvelope[T any](ctrl ControlRecord, metadata map[string]any) RecordEnvelope[T] {
	if ctrl == nil {
		ctrl = EndOfStream{}
	}
	return RecordEnvelope[T]{
		control:  ctrl,
		metadata: cloneMetadata(metadata),
	}
}

// Record returns the data record; ok is false for control envelopes.
func (e RecordEnvelope[T]) Record() (record T, ok bool) {
	if e.control != nil {
		var zero T
		return zero, false
	}
	return e.record, true
}

// Control returns the control record; ok is false for data envelopes.
func (e RecordEnvelope[T]) Control() (ctrl ControlRecord, ok bool) {
	return e.control, e.control != nil
}

func (e RecordEnvelope[T]) IsControl() bool {
	return e.control != nil
}

// Metadata returns a copy of the envelope metadata.
func (e RecordEnvelope[T]) Metadata() map[string]any {
	return cloneMetadata(e.metadata)
}

// Rewrap returns a new envelope with the same record and metadata merged
// with extra. Keys in extra win.
func (e RecordEnvelope[T]) Rewrap(extra map[string]any) RecordEnvelope[T] {
	md := cloneMetadata(e.metadata)
	maps.Copy(md, extra)
	return RecordEnvelope[T]{
		record:   e.record,
		control:  e.control,
		metadata: md,
	}
}

// Match dispatches on the envelope variant.
func Match[T, R any](
	e RecordEnvelope[T],
	onData func(record T, metadata map[string]any) R,
	onControl func(ctrl ControlRecord, metadata map[string]any) R,
) R {
	if ctrl, ok := e.Control(); ok {
		return onControl(ctrl, e.Metadata())
	}
	return onData(e.record, e.Metadata())
}

func cloneMetadata(md map[string]any) map[string]any {
	if md == nil {
		return map[string]any{}
	}
	return maps.Clone(md)
}
