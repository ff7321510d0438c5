package session

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/telemetry"
)

// CurrentLogName is the filename of the live flight log inside the log dir.
const CurrentLogName = "current.csv"

// Flight is the single ongoing recording: an in-memory record buffer plus
// the live CSV log. Data is flushed and synced on every append so a crash
// never loses acknowledged records.
type Flight struct {
	startTime time.Time
	buffer    []telemetry.Record

	path string
	file *os.File
	w    *csv.Writer
}

func newFlight(logDir string) (*Flight, error) {
	path := filepath.Join(logDir, CurrentLogName)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	f := &Flight{
		startTime: time.Now(),
		path:      path,
		file:      file,
		w:         csv.NewWriter(file),
	}
	if err := f.writeRow(telemetry.LogHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return f, nil
}

func (f *Flight) append(rec telemetry.Record, receivedAt time.Time) error {
	if err := f.writeRow(telemetry.LogRow(rec, receivedAt)); err != nil {
		return fmt.Errorf("append %s: %w", f.path, err)
	}
	f.buffer = append(f.buffer, rec)
	return nil
}

// writeRow writes one CSV row and forces it to disk before returning.
func (f *Flight) writeRow(row []string) error {
	if err := f.w.Write(row); err != nil {
		return err
	}
	f.w.Flush()
	if err := f.w.Error(); err != nil {
		return err
	}
	return f.file.Sync()
}

func (f *Flight) flush() error {
	f.w.Flush()
	if err := f.w.Error(); err != nil {
		return err
	}
	return f.file.Sync()
}

func (f *Flight) close() error {
	f.w.Flush()
	if err := f.w.Error(); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}
