package ingest

// ControlRecord is a stream signal carried on the same channel as data. The
// set of variants is closed; EndOfStream is the only one.
type ControlRecord interface {
	controlRecord()
	String() string
}

// EndOfStream means no further data records arrive on the stream. Consumers
// flush buffered state when they see it.
type EndOfStream struct{}

func (EndOfStream) controlRecord() {}

func (EndOfStream) String() string { return "EndOfStream" }
