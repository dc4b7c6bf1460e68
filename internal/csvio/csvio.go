// Package csvio reads task lists from and writes inventory exports to CSV.
// Both directions use the same header so an export can be fed straight back
// as a reboot task list.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rshade/apreboot/internal/engine/batch"
	"github.com/rshade/apreboot/internal/inventory"
)

// Column names, in export order.
const (
	ColSerial    = "serial_number"
	ColMAC       = "mac_address"
	ColModel     = "model"
	ColFirmware  = "firmware_version"
	ColName      = "name"
	ColVenueID   = "venue_id"
	ColVenueName = "venue_name"
	ColIPAddress = "ip_address"
	ColStatus    = "status"
)

// Header is the export column order.
//
//nolint:gochecknoglobals // Fixed column layout.
var Header = []string{
	ColSerial, ColMAC, ColModel, ColFirmware, ColName,
	ColVenueID, ColVenueName, ColIPAddress, ColStatus,
}

// ErrMissingColumn is returned when a task list lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// DefaultExportFilename returns ap_export_YYYYMMDD_HHMMSS.csv for now.
func DefaultExportFilename(now time.Time) string {
	return fmt.Sprintf("ap_export_%s.csv", now.Format("20060102_150405"))
}

// WriteRecords writes the header and one row per record.
func WriteRecords(w io.Writer, records []inventory.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range records {
		row := []string{
			rec.Serial, rec.MAC, rec.Model, rec.Firmware, rec.Name,
			rec.VenueID, rec.VenueName, rec.IPAddress, rec.Status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileSink writes an export to a file path. It implements
// inventory.RecordSink.
type FileSink struct {
	Path string
}

// WriteRecords creates the file (and its directory) and writes records.
func (s FileSink) WriteRecords(records []inventory.Record) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err = WriteRecords(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadTasks reads a task list. Columns are matched by header name, so order
// and extra columns do not matter; only serial_number is required. Rows with
// an empty serial number are dropped.
func ReadTasks(r io.Reader) ([]batch.Task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := cols[ColSerial]; !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingColumn, ColSerial)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var tasks []batch.Task
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		serial := field(row, ColSerial)
		if serial == "" {
			continue
		}
		tasks = append(tasks, batch.Task{
			Identity: serial,
			GroupKey: field(row, ColVenueID),
			Name:     field(row, ColName),
			Status:   field(row, ColStatus),
		})
	}
	return tasks, nil
}

// ReadTaskFile opens path and reads its tasks into a batch.Source keyed by
// the file stem.
func ReadTaskFile(path string) (batch.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return batch.Source{}, err
	}
	defer f.Close()

	tasks, err := ReadTasks(f)
	if err != nil {
		return batch.Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return batch.Source{Key: batch.CheckpointKey(path), Tasks: tasks}, nil
}
