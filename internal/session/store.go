package session

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/telemetry"
)

// ErrNoDataYet is returned when takeoff is marked before any record has
// been received: there is no producer clock to anchor T+0 to.
var ErrNoDataYet = errors.New("no telemetry received yet")

// Store owns the single active flight, its live CSV log, and the takeoff
// clock. It is not safe for concurrent use: the pipeline driver is its only
// caller, and control operations reach it through the driver's goroutine.
type Store struct {
	logDir     string
	archiveDir string
	backupDir  string

	current *Flight

	// Takeoff clock. lastProducerTime is the producer clock (seconds since
	// boot) of the most recent record; marking takeoff pins it as T+0.
	lastProducerTime float64
	seenRecord       bool
	takeoffOffset    float64
	takeoffSet       bool
	takeoffWall      time.Time
}

// ClearResult reports a completed mark-takeoff operation.
type ClearResult struct {
	BackupFile    string    `json:"backup_file"`
	TakeoffOffset float64   `json:"takeoff_offset"`
	TakeoffTime   time.Time `json:"takeoff_time"`
}

// SaveResult reports a completed archive operation.
type SaveResult struct {
	Filename string `json:"filename"`
}

// Info is the current session metadata payload.
type Info struct {
	StartTime       time.Time  `json:"start_time"`
	PacketCount     int        `json:"packet_count"`
	DurationSeconds float64    `json:"duration_seconds"`
	TakeoffOffset   *float64   `json:"takeoff_offset"`
	TakeoffTime     *time.Time `json:"takeoff_time"`
}

// NewStore creates the three log trees, relocates any flight log left behind
// by a previous run, and opens a fresh session. Any failure here means the
// process cannot record safely and must not start.
func NewStore(logDir, archiveDir, backupDir string) (*Store, error) {
	for _, dir := range []string{logDir, archiveDir, backupDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}

	s := &Store{logDir: logDir, archiveDir: archiveDir, backupDir: backupDir}

	// A current.csv on disk means the previous run did not shut down
	// cleanly. Preserve it under the backup tree before opening a new log.
	currentPath := filepath.Join(logDir, CurrentLogName)
	if _, err := os.Stat(currentPath); err == nil {
		recovered := uniquePath(filepath.Join(backupDir, "recovery_"+generation()+".csv"))
		if err := os.Rename(currentPath, recovered); err != nil {
			return nil, fmt.Errorf("recover previous flight log: %w", err)
		}
		log.Printf("recovered previous flight log: %s", recovered)
	}

	flight, err := newFlight(logDir)
	if err != nil {
		return nil, err
	}
	s.current = flight

	log.Printf("flight session started: %s", flight.path)
	return s, nil
}

// Append records one sample: it advances the producer clock, buffers the
// record, and durably writes one log row before returning.
func (s *Store) Append(rec telemetry.Record) error {
	s.lastProducerTime = float64(rec.CurTime) / 1000
	s.seenRecord = true
	return s.current.append(rec, time.Now())
}

// Offset returns the takeoff offset in producer-clock seconds, zero when
// takeoff has not been marked.
func (s *Store) Offset() float64 {
	if !s.takeoffSet {
		return 0
	}
	return s.takeoffOffset
}

// CurrentData returns the current session's buffer expanded into chart
// points with the takeoff offset applied. Archived sessions are not
// reachable from here.
func (s *Store) CurrentData() []telemetry.Point {
	points := make([]telemetry.Point, 0, len(s.current.buffer)*telemetry.ChannelCount)
	for _, rec := range s.current.buffer {
		points = append(points, telemetry.Points(rec, s.Offset())...)
	}
	return points
}

// ClearAndMarkTakeoff relocates the live log into the backup tree, pins the
// takeoff clock to the last seen producer time, and starts a fresh empty
// session. The relocated log is never deleted. Fails with ErrNoDataYet when
// no record has been received, leaving all state untouched.
func (s *Store) ClearAndMarkTakeoff() (ClearResult, error) {
	if !s.seenRecord {
		return ClearResult{}, ErrNoDataYet
	}

	if err := s.current.flush(); err != nil {
		return ClearResult{}, fmt.Errorf("clear: flush live log: %w", err)
	}
	backup := uniquePath(filepath.Join(s.backupDir, "preflight_"+generation()+".csv"))
	// Rename before closing: if the relocation fails the live session is
	// still open and untouched.
	if err := os.Rename(s.current.path, backup); err != nil {
		return ClearResult{}, fmt.Errorf("clear: relocate live log: %w", err)
	}
	if err := s.current.close(); err != nil {
		log.Printf("clear: closing relocated log: %v", err)
	}

	flight, err := newFlight(s.logDir)
	if err != nil {
		return ClearResult{}, fmt.Errorf("clear: reopen session: %w", err)
	}
	s.current = flight

	s.takeoffOffset = s.lastProducerTime
	s.takeoffSet = true
	s.takeoffWall = time.Now()

	log.Printf("takeoff marked at T+%.3fs, previous log backed up: %s", s.takeoffOffset, backup)
	return ClearResult{
		BackupFile:    filepath.Base(backup),
		TakeoffOffset: s.takeoffOffset,
		TakeoffTime:   s.takeoffWall,
	}, nil
}

// Save copies the live log into both the archive and backup trees under a
// shared generation timestamp. The live session continues unchanged.
func (s *Store) Save() (SaveResult, error) {
	if err := s.current.flush(); err != nil {
		return SaveResult{}, fmt.Errorf("save: flush live log: %w", err)
	}

	name := filepath.Base(uniquePath(filepath.Join(s.archiveDir, "flight_"+generation()+".csv")))
	if err := copyFile(s.current.path, filepath.Join(s.archiveDir, name)); err != nil {
		return SaveResult{}, fmt.Errorf("save: archive copy: %w", err)
	}
	if err := copyFile(s.current.path, filepath.Join(s.backupDir, name)); err != nil {
		return SaveResult{}, fmt.Errorf("save: backup copy: %w", err)
	}

	log.Printf("flight archived: %s", name)
	return SaveResult{Filename: name}, nil
}

// SaveAndClear archives the live log (copy to backup, move to archive),
// resets the takeoff clock, and starts a fresh empty session. This is the
// end-flight operation.
func (s *Store) SaveAndClear() (SaveResult, error) {
	if err := s.current.flush(); err != nil {
		return SaveResult{}, fmt.Errorf("save-and-clear: flush live log: %w", err)
	}

	name := filepath.Base(uniquePath(filepath.Join(s.archiveDir, "flight_"+generation()+".csv")))
	if err := copyFile(s.current.path, filepath.Join(s.backupDir, name)); err != nil {
		return SaveResult{}, fmt.Errorf("save-and-clear: backup copy: %w", err)
	}
	if err := os.Rename(s.current.path, filepath.Join(s.archiveDir, name)); err != nil {
		return SaveResult{}, fmt.Errorf("save-and-clear: archive move: %w", err)
	}
	if err := s.current.close(); err != nil {
		log.Printf("save-and-clear: closing archived log: %v", err)
	}

	flight, err := newFlight(s.logDir)
	if err != nil {
		return SaveResult{}, fmt.Errorf("save-and-clear: reopen session: %w", err)
	}
	s.current = flight

	s.takeoffSet = false
	s.takeoffOffset = 0
	s.takeoffWall = time.Time{}

	log.Printf("flight saved and cleared: %s", name)
	return SaveResult{Filename: name}, nil
}

// SessionInfo reports metadata for the current session.
func (s *Store) SessionInfo() Info {
	info := Info{
		StartTime:       s.current.startTime,
		PacketCount:     len(s.current.buffer),
		DurationSeconds: time.Since(s.current.startTime).Seconds(),
	}
	if s.takeoffSet {
		offset := s.takeoffOffset
		wall := s.takeoffWall
		info.TakeoffOffset = &offset
		info.TakeoffTime = &wall
	}
	return info
}

// Takeoff returns the takeoff offset and wall time, nil when unset.
func (s *Store) Takeoff() (*float64, *time.Time) {
	if !s.takeoffSet {
		return nil, nil
	}
	offset := s.takeoffOffset
	wall := s.takeoffWall
	return &offset, &wall
}

// Close flushes and closes the live log. The log stays at the current path
// for recovery on next startup.
func (s *Store) Close() error {
	if err := s.current.close(); err != nil {
		return fmt.Errorf("close live log: %w", err)
	}
	log.Printf("flight session closed")
	return nil
}

func generation() string {
	return time.Now().Format("2006-01-02_15-04-05")
}

// uniquePath suffixes the candidate path until it does not collide with an
// existing file, so repeated operations within one generation timestamp
// never overwrite an earlier artifact.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
