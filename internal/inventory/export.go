package inventory

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoRecords is returned by RunExport when the inventory is empty.
var ErrNoRecords = errors.New("no records found to export")

// RecordSink receives the exported records.
type RecordSink interface {
	WriteRecords(records []Record) error
}

// Exporter fetches the full inventory and hands it to a sink.
type Exporter struct {
	sync *Sync
	sink RecordSink
}

// NewExporter returns an Exporter.
func NewExporter(sync *Sync, sink RecordSink) *Exporter {
	return &Exporter{sync: sync, sink: sink}
}

// RunExport syncs the inventory and writes it. An interrupted sync still
// writes the records fetched so far.
func (e *Exporter) RunExport(ctx context.Context) (Result, error) {
	result, err := e.sync.FetchAll(ctx)
	if err != nil {
		return result, err
	}
	if len(result.Records) == 0 {
		return result, ErrNoRecords
	}

	if err = e.sink.WriteRecords(result.Records); err != nil {
		return result, fmt.Errorf("writing export: %w", err)
	}
	return result, nil
}
