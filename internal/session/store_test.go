package session

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/telemetry"
)

const sampleLine = "12000,401234567,-1051234567,1523000,15.2,0.3,-0.1,0.05,-0.02,0.1,98.1,152.3,25.4,24.8,1013.25,22.5,300.0,1,45.5,12.3,1,1,0,0,1,1,0,12.6,2"

func newTestStore(t *testing.T) (*Store, string, string, string) {
	t.Helper()
	root := t.TempDir()
	logDir := filepath.Join(root, "logs")
	archiveDir := filepath.Join(root, "archive")
	backupDir := filepath.Join(root, "backup")
	store, err := NewStore(logDir, archiveDir, backupDir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, logDir, archiveDir, backupDir
}

func sampleRecord(t *testing.T, curTimeMS int64) telemetry.Record {
	t.Helper()
	rec, err := telemetry.Decode(sampleLine)
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	rec.CurTime = curTimeMS
	return rec
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNewStoreCreatesDirectoriesAndLog(t *testing.T) {
	_, logDir, archiveDir, backupDir := newTestStore(t)

	for _, dir := range []string{logDir, archiveDir, backupDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}

	rows := readCSV(t, filepath.Join(logDir, CurrentLogName))
	if len(rows) != 1 {
		t.Fatalf("expected header-only log, got %d rows", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][len(rows[0])-1] != "flight_stage" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
}

func TestNewStoreRecoversAbandonedLog(t *testing.T) {
	root := t.TempDir()
	logDir := filepath.Join(root, "logs")
	backupDir := filepath.Join(root, "backup")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	abandoned := filepath.Join(logDir, CurrentLogName)
	if err := os.WriteFile(abandoned, []byte("leftover data\n"), 0o644); err != nil {
		t.Fatalf("write abandoned log: %v", err)
	}

	store, err := NewStore(logDir, filepath.Join(root, "archive"), backupDir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	names := dirEntries(t, backupDir)
	if len(names) != 1 || !strings.HasPrefix(names[0], "recovery_") {
		t.Fatalf("expected one recovery file, got %v", names)
	}
	data, err := os.ReadFile(filepath.Join(backupDir, names[0]))
	if err != nil {
		t.Fatalf("read recovery file: %v", err)
	}
	if string(data) != "leftover data\n" {
		t.Fatalf("recovery file content changed: %q", data)
	}
}

func TestAppendWritesRowAndBuffers(t *testing.T) {
	store, logDir, _, _ := newTestStore(t)

	if err := store.Append(sampleRecord(t, 1000)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(sampleRecord(t, 1500)); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := readCSV(t, filepath.Join(logDir, CurrentLogName))
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "1000" || rows[2][1] != "1500" {
		t.Fatalf("unexpected cur_time columns: %s %s", rows[1][1], rows[2][1])
	}

	info := store.SessionInfo()
	if info.PacketCount != 2 {
		t.Fatalf("expected 2 packets, got %d", info.PacketCount)
	}
}

func TestCurrentDataAppliesOffset(t *testing.T) {
	store, _, _, _ := newTestStore(t)

	if err := store.Append(sampleRecord(t, 12000)); err != nil {
		t.Fatalf("append: %v", err)
	}
	points := store.CurrentData()
	if len(points) != telemetry.ChannelCount {
		t.Fatalf("expected %d points, got %d", telemetry.ChannelCount, len(points))
	}
	if points[0].Time != 12.0 {
		t.Fatalf("expected unshifted time 12.0, got %v", points[0].Time)
	}

	if _, err := store.ClearAndMarkTakeoff(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Append(sampleRecord(t, 17000)); err != nil {
		t.Fatalf("append: %v", err)
	}
	points = store.CurrentData()
	if len(points) != telemetry.ChannelCount {
		t.Fatalf("expected only current session points, got %d", len(points))
	}
	// takeoff was pinned at 12s, so 17s reads as T+5.
	if points[0].Time != 5.0 {
		t.Fatalf("expected shifted time 5.0, got %v", points[0].Time)
	}
}

func TestClearBeforeAnyAppend(t *testing.T) {
	store, logDir, _, backupDir := newTestStore(t)

	_, err := store.ClearAndMarkTakeoff()
	if !errors.Is(err, ErrNoDataYet) {
		t.Fatalf("expected ErrNoDataYet, got %v", err)
	}

	// State untouched: live log still present, no backup, no takeoff.
	if _, err := os.Stat(filepath.Join(logDir, CurrentLogName)); err != nil {
		t.Fatalf("live log missing: %v", err)
	}
	if names := dirEntries(t, backupDir); len(names) != 0 {
		t.Fatalf("unexpected backup files: %v", names)
	}
	if offset, wall := store.Takeoff(); offset != nil || wall != nil {
		t.Fatalf("takeoff state should be unset")
	}
}

func TestClearAndMarkTakeoff(t *testing.T) {
	store, logDir, _, backupDir := newTestStore(t)

	if err := store.Append(sampleRecord(t, 12000)); err != nil {
		t.Fatalf("append: %v", err)
	}
	before := readCSV(t, filepath.Join(logDir, CurrentLogName))

	res, err := store.ClearAndMarkTakeoff()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if res.TakeoffOffset != 12.0 {
		t.Fatalf("expected takeoff offset 12.0, got %v", res.TakeoffOffset)
	}
	if !strings.HasPrefix(res.BackupFile, "preflight_") {
		t.Fatalf("unexpected backup file name: %s", res.BackupFile)
	}

	// The old log survives unmodified under the backup tree.
	after := readCSV(t, filepath.Join(backupDir, res.BackupFile))
	if len(after) != len(before) {
		t.Fatalf("backup row count changed: %d != %d", len(after), len(before))
	}

	// The new session starts empty with a fresh header-only log.
	if store.SessionInfo().PacketCount != 0 {
		t.Fatalf("expected empty buffer after clear")
	}
	rows := readCSV(t, filepath.Join(logDir, CurrentLogName))
	if len(rows) != 1 {
		t.Fatalf("expected header-only live log, got %d rows", len(rows))
	}
	if store.Offset() != 12.0 {
		t.Fatalf("expected offset 12.0, got %v", store.Offset())
	}
}

func TestSaveCopiesWithoutDisturbingSession(t *testing.T) {
	store, logDir, archiveDir, backupDir := newTestStore(t)

	if err := store.Append(sampleRecord(t, 1000)); err != nil {
		t.Fatalf("append: %v", err)
	}

	res, err := store.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(res.Filename, "flight_") {
		t.Fatalf("unexpected archive name: %s", res.Filename)
	}

	for _, dir := range []string{archiveDir, backupDir} {
		if _, err := os.Stat(filepath.Join(dir, res.Filename)); err != nil {
			t.Fatalf("archive copy missing in %s: %v", dir, err)
		}
	}

	// Live session continues: log still there, buffer intact, appends work.
	if _, err := os.Stat(filepath.Join(logDir, CurrentLogName)); err != nil {
		t.Fatalf("live log missing after save: %v", err)
	}
	if store.SessionInfo().PacketCount != 1 {
		t.Fatalf("buffer disturbed by save")
	}
	if err := store.Append(sampleRecord(t, 1500)); err != nil {
		t.Fatalf("append after save: %v", err)
	}
}

func TestSaveAndClear(t *testing.T) {
	store, logDir, archiveDir, backupDir := newTestStore(t)

	if err := store.Append(sampleRecord(t, 12000)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.ClearAndMarkTakeoff(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Append(sampleRecord(t, 13000)); err != nil {
		t.Fatalf("append: %v", err)
	}
	liveRows := readCSV(t, filepath.Join(logDir, CurrentLogName))

	res, err := store.SaveAndClear()
	if err != nil {
		t.Fatalf("save-and-clear: %v", err)
	}

	archived := readCSV(t, filepath.Join(archiveDir, res.Filename))
	if len(archived) != len(liveRows) {
		t.Fatalf("archive row count changed: %d != %d", len(archived), len(liveRows))
	}
	if _, err := os.Stat(filepath.Join(backupDir, res.Filename)); err != nil {
		t.Fatalf("backup copy missing: %v", err)
	}

	// A fresh live log replaces the archived one and takeoff state resets.
	rows := readCSV(t, filepath.Join(logDir, CurrentLogName))
	if len(rows) != 1 {
		t.Fatalf("expected fresh header-only live log, got %d rows", len(rows))
	}
	if offset, wall := store.Takeoff(); offset != nil || wall != nil {
		t.Fatalf("takeoff state should reset after save-and-clear")
	}
	if store.SessionInfo().PacketCount != 0 {
		t.Fatalf("expected empty buffer after save-and-clear")
	}
}

func TestRepeatedSavesNeverOverwrite(t *testing.T) {
	store, _, archiveDir, _ := newTestStore(t)

	if err := store.Append(sampleRecord(t, 1000)); err != nil {
		t.Fatalf("append: %v", err)
	}

	first, err := store.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.Filename == second.Filename {
		t.Fatalf("expected distinct archive names, got %s twice", first.Filename)
	}
	if len(dirEntries(t, archiveDir)) != 2 {
		t.Fatalf("expected two archive files")
	}
}

func TestSessionInfoTakeoffFields(t *testing.T) {
	store, _, _, _ := newTestStore(t)

	info := store.SessionInfo()
	if info.TakeoffOffset != nil || info.TakeoffTime != nil {
		t.Fatalf("takeoff fields should be nil before marking")
	}

	if err := store.Append(sampleRecord(t, 8000)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.ClearAndMarkTakeoff(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	info = store.SessionInfo()
	if info.TakeoffOffset == nil || *info.TakeoffOffset != 8.0 {
		t.Fatalf("unexpected takeoff offset: %v", info.TakeoffOffset)
	}
	if info.TakeoffTime == nil || info.TakeoffTime.IsZero() {
		t.Fatalf("expected takeoff wall time")
	}
}
