package types

// MetricGroup is one kind's ordered slice of readings from a single payload.
// Rows keep their original payload index so that error messages can point the
// client at the offending entry.
type MetricGroup struct {
	Kind Kind
	Rows []Row
}

// Row pairs a metric with its index in the original payload.
type Row struct {
	Index  int
	Metric Metric
}

// ParsedPayload is the pipeline's inbound shape: the already-deserialized,
// already-authenticated payload, grouped by kind, plus the raw bytes for
// archival.
type ParsedPayload struct {
	Groups []MetricGroup
	Raw    []byte
}

// TotalRows returns the number of readings across all groups.
func (p *ParsedPayload) TotalRows() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Rows)
	}
	return n
}
