package telemetry

import (
	"strconv"
	"time"
)

// Point is one chart sample sent to dashboard clients.
type Point struct {
	Time   float64 `json:"time"` // seconds, takeoff offset already applied
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

// ChannelCount is the number of chart channels emitted per record.
const ChannelCount = 24

// Points expands a Record into the fixed batch of named channel samples the
// dashboard charts consume. takeoffOffset is producer-clock seconds marking
// T+0 (zero when takeoff has not been marked).
func Points(r Record, takeoffOffset float64) []Point {
	t := float64(r.CurTime)/1000 - takeoffOffset

	return []Point{
		{t, "altitude", r.Altitude},
		{t, "velocity", r.Velocity},
		{t, "smooth_vel", r.SmoothVel},
		{t, "battery_voltage", r.BatteryVoltage},
		{t, "accelx", r.AccelX},
		{t, "accely", r.AccelY},
		{t, "accelz", r.AccelZ},
		{t, "gyrox", r.GyroX},
		{t, "gyroy", r.GyroY},
		{t, "gyroz", r.GyroZ},
		{t, "hg_accel", r.HGAccel},
		{t, "temp", r.Temperature},
		{t, "pressure", r.Pressure},
		{t, "lat", r.LatDegrees()},
		{t, "long", r.LngDegrees()},
		{t, "gps_alt", r.GPSAltMeters()},
		{t, "stage", float64(r.FlightStage)},
		{t, "ab_servo", r.ABServoPct},
		{t, "cnrd_servo", r.CnrdServoPct},
		{t, "drogue_cont_1", flag(r.DroguePyroCont1)},
		{t, "drogue_cont_2", flag(r.DroguePyroCont2)},
		{t, "main_cont_1", flag(r.MainPyroCont1)},
		{t, "main_cont_2", flag(r.MainPyroCont2)},
		{t, "airbrake_cont", flag(r.AirbrakeCont)},
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// LogHeader is the header row of every flight log CSV: receive timestamp
// first, then the 29 record fields in downlink order.
var LogHeader = []string{
	"timestamp",
	"cur_time",
	"gps_lat",
	"gps_lng",
	"gps_alt",
	"accel_x",
	"accel_y",
	"accel_z",
	"gyro_x",
	"gyro_y",
	"gyro_z",
	"hg_accel",
	"altitude",
	"velocity",
	"smooth_vel",
	"pressure",
	"temperature",
	"launchsite_msl",
	"airbrake_cont",
	"ab_servo_pct",
	"cnrd_servo_pct",
	"drogue_pyro_cont_1",
	"drogue_pyro_cont_2",
	"main_pyro_cont_1",
	"main_pyro_cont_2",
	"flight_index",
	"ellipse_on",
	"cameras_on",
	"battery_voltage",
	"flight_stage",
}

// LogRow renders a Record as one flight log CSV row. receivedAt is the
// ground-station wall-clock time the record arrived.
func LogRow(r Record, receivedAt time.Time) []string {
	return []string{
		receivedAt.Format(time.RFC3339Nano),
		strconv.FormatInt(r.CurTime, 10),
		strconv.FormatInt(r.GPSLat, 10),
		strconv.FormatInt(r.GPSLng, 10),
		strconv.FormatInt(r.GPSAlt, 10),
		formatFloat(r.AccelX),
		formatFloat(r.AccelY),
		formatFloat(r.AccelZ),
		formatFloat(r.GyroX),
		formatFloat(r.GyroY),
		formatFloat(r.GyroZ),
		formatFloat(r.HGAccel),
		formatFloat(r.Altitude),
		formatFloat(r.Velocity),
		formatFloat(r.SmoothVel),
		formatFloat(r.Pressure),
		formatFloat(r.Temperature),
		formatFloat(r.LaunchsiteMSL),
		formatFlag(r.AirbrakeCont),
		formatFloat(r.ABServoPct),
		formatFloat(r.CnrdServoPct),
		formatFlag(r.DroguePyroCont1),
		formatFlag(r.DroguePyroCont2),
		formatFlag(r.MainPyroCont1),
		formatFlag(r.MainPyroCont2),
		strconv.FormatInt(r.FlightIndex, 10),
		formatFlag(r.EllipseOn),
		formatFlag(r.CamerasOn),
		formatFloat(r.BatteryVoltage),
		strconv.FormatInt(r.FlightStage, 10),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
