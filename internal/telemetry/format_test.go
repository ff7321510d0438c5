package telemetry

import (
	"math"
	"testing"
	"time"
)

func pointValue(t *testing.T, points []Point, source string) Point {
	t.Helper()
	for _, p := range points {
		if p.Source == source {
			return p
		}
	}
	t.Fatalf("channel %s missing from batch", source)
	return Point{}
}

func TestPointsSampleLine(t *testing.T) {
	rec, err := Decode(sampleLine)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	points := Points(rec, 0)
	if len(points) != ChannelCount {
		t.Fatalf("expected %d points, got %d", ChannelCount, len(points))
	}

	alt := pointValue(t, points, "altitude")
	if alt.Time != 12.0 || alt.Value != 152.3 {
		t.Fatalf("unexpected altitude point: %+v", alt)
	}

	lat := pointValue(t, points, "lat")
	if math.Abs(lat.Value-40.1234567) > 1e-7 {
		t.Fatalf("unexpected lat point: %+v", lat)
	}

	stage := pointValue(t, points, "stage")
	if stage.Value != 2 {
		t.Fatalf("unexpected stage point: %+v", stage)
	}
}

func TestPointsTakeoffOffset(t *testing.T) {
	rec, err := Decode(sampleLine)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	points := Points(rec, 5.0)
	for _, p := range points {
		if p.Time != 7.0 {
			t.Fatalf("offset not applied to %s: %v", p.Source, p.Time)
		}
	}
}

func TestPointsChannelNames(t *testing.T) {
	rec, err := Decode(sampleLine)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	want := []string{
		"altitude", "velocity", "smooth_vel", "battery_voltage",
		"accelx", "accely", "accelz", "gyrox", "gyroy", "gyroz",
		"hg_accel", "temp", "pressure", "lat", "long", "gps_alt",
		"stage", "ab_servo", "cnrd_servo",
		"drogue_cont_1", "drogue_cont_2", "main_cont_1", "main_cont_2",
		"airbrake_cont",
	}
	points := Points(rec, 0)
	if len(points) != len(want) {
		t.Fatalf("expected %d channels, got %d", len(want), len(points))
	}
	for i, name := range want {
		if points[i].Source != name {
			t.Fatalf("channel %d: expected %s, got %s", i, name, points[i].Source)
		}
	}
}

func TestLogRowShape(t *testing.T) {
	rec, err := Decode(sampleLine)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	now := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)
	row := LogRow(rec, now)
	if len(row) != len(LogHeader) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(LogHeader))
	}
	if row[0] != now.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp column: %s", row[0])
	}
	if row[1] != "12000" {
		t.Fatalf("unexpected cur_time column: %s", row[1])
	}
	if row[18] != "1" {
		t.Fatalf("airbrake continuity should log as 1, got %s", row[18])
	}
	if row[23] != "0" {
		t.Fatalf("main continuity 1 should log as 0, got %s", row[23])
	}
	if row[29] != "2" {
		t.Fatalf("unexpected flight_stage column: %s", row[29])
	}
}
