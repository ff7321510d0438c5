package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldCount is the number of comma-separated values in one downlink line.
const FieldCount = 29

// maxGeoScaled bounds |lat| and |lng| in 10^7-scaled degrees (180 degrees).
const maxGeoScaled = 1_800_000_000

// FieldCountError reports a line with the wrong number of fields.
type FieldCountError struct {
	Got int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("expected %d fields, got %d", FieldCount, e.Got)
}

// FieldFormatError reports a field that failed type coercion.
type FieldFormatError struct {
	Index int
	Name  string
	Err   error
}

func (e *FieldFormatError) Error() string {
	return fmt.Sprintf("field %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *FieldFormatError) Unwrap() error { return e.Err }

// RangeError reports a field whose value is outside its allowed domain.
type RangeError struct {
	Name  string
	Value int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of range: %d", e.Name, e.Value)
}

// fieldScanner coerces positional fields, remembering the first failure so
// Decode either produces a fully valid Record or exactly one error.
type fieldScanner struct {
	fields []string
	err    error
}

func (s *fieldScanner) fail(i int, name string, err error) {
	if s.err == nil {
		s.err = &FieldFormatError{Index: i, Name: name, Err: err}
	}
}

func (s *fieldScanner) int64(i int, name string) int64 {
	if s.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s.fields[i]), 10, 64)
	if err != nil {
		s.fail(i, name, err)
		return 0
	}
	return v
}

func (s *fieldScanner) float64(i int, name string) float64 {
	if s.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.fields[i]), 64)
	if err != nil {
		s.fail(i, name, err)
		return 0
	}
	return v
}

// bool01 parses the 0/1 flag encoding. Any nonzero integer reads as true.
func (s *fieldScanner) bool01(i int, name string) bool {
	return s.int64(i, name) != 0
}

// Decode parses one raw downlink line into a Record. It fails with
// *FieldCountError, *FieldFormatError or *RangeError; on failure no
// partially populated Record is returned.
func Decode(line string) (Record, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != FieldCount {
		return Record{}, &FieldCountError{Got: len(fields)}
	}

	s := &fieldScanner{fields: fields}
	r := Record{
		CurTime:         s.int64(0, "cur_time"),
		GPSLat:          s.int64(1, "gps_lat"),
		GPSLng:          s.int64(2, "gps_lng"),
		GPSAlt:          s.int64(3, "gps_alt"),
		AccelX:          s.float64(4, "accel_x"),
		AccelY:          s.float64(5, "accel_y"),
		AccelZ:          s.float64(6, "accel_z"),
		GyroX:           s.float64(7, "gyro_x"),
		GyroY:           s.float64(8, "gyro_y"),
		GyroZ:           s.float64(9, "gyro_z"),
		HGAccel:         s.float64(10, "hg_accel"),
		Altitude:        s.float64(11, "altitude"),
		Velocity:        s.float64(12, "velocity"),
		SmoothVel:       s.float64(13, "smooth_vel"),
		Pressure:        s.float64(14, "pressure"),
		Temperature:     s.float64(15, "temperature"),
		LaunchsiteMSL:   s.float64(16, "launchsite_msl"),
		AirbrakeCont:    s.bool01(17, "airbrake_cont"),
		ABServoPct:      s.float64(18, "ab_servo_pct"),
		CnrdServoPct:    s.float64(19, "cnrd_servo_pct"),
		DroguePyroCont1: s.bool01(20, "drogue_pyro_cont_1"),
		DroguePyroCont2: s.bool01(21, "drogue_pyro_cont_2"),
		MainPyroCont1:   s.bool01(22, "main_pyro_cont_1"),
		MainPyroCont2:   s.bool01(23, "main_pyro_cont_2"),
		FlightIndex:     s.int64(24, "flight_index"),
		EllipseOn:       s.bool01(25, "ellipse_on"),
		CamerasOn:       s.bool01(26, "cameras_on"),
		BatteryVoltage:  s.float64(27, "battery_voltage"),
		FlightStage:     s.int64(28, "flight_stage"),
	}
	if s.err != nil {
		return Record{}, s.err
	}

	if r.GPSLat > maxGeoScaled || r.GPSLat < -maxGeoScaled {
		return Record{}, &RangeError{Name: "gps_lat", Value: r.GPSLat}
	}
	if r.GPSLng > maxGeoScaled || r.GPSLng < -maxGeoScaled {
		return Record{}, &RangeError{Name: "gps_lng", Value: r.GPSLng}
	}
	if r.FlightStage < 0 || r.FlightStage > 6 {
		return Record{}, &RangeError{Name: "flight_stage", Value: r.FlightStage}
	}
	return r, nil
}
