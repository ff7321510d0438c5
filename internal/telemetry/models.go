package telemetry

// Record is one decoded sample from the flight computer's 29-field CSV
// downlink (2Hz). Immutable after decode.
type Record struct {
	// Time and position
	CurTime int64 `json:"cur_time"` // milliseconds since boot
	GPSLat  int64 `json:"gps_lat"`  // degrees x 10^7
	GPSLng  int64 `json:"gps_lng"`  // degrees x 10^7
	GPSAlt  int64 `json:"gps_alt"`  // millimeters

	// IMU
	AccelX float64 `json:"accel_x"` // m/s^2
	AccelY float64 `json:"accel_y"`
	AccelZ float64 `json:"accel_z"`
	GyroX  float64 `json:"gyro_x"` // rad/s
	GyroY  float64 `json:"gyro_y"`
	GyroZ  float64 `json:"gyro_z"`

	HGAccel float64 `json:"hg_accel"` // high-G accelerometer, m/s^2

	// Altimeter
	Altitude      float64 `json:"altitude"` // AGL, meters
	Velocity      float64 `json:"velocity"`
	SmoothVel     float64 `json:"smooth_vel"`
	Pressure      float64 `json:"pressure"` // hPa
	Temperature   float64 `json:"temperature"`
	LaunchsiteMSL float64 `json:"launchsite_msl"`

	// Airbrake system
	AirbrakeCont bool    `json:"airbrake_cont"`
	ABServoPct   float64 `json:"ab_servo_pct"`
	CnrdServoPct float64 `json:"cnrd_servo_pct"`

	// Pyro continuity
	DroguePyroCont1 bool `json:"drogue_pyro_cont_1"`
	DroguePyroCont2 bool `json:"drogue_pyro_cont_2"`
	MainPyroCont1   bool `json:"main_pyro_cont_1"`
	MainPyroCont2   bool `json:"main_pyro_cont_2"`

	// Flight metadata
	FlightIndex    int64   `json:"flight_index"`
	EllipseOn      bool    `json:"ellipse_on"`
	CamerasOn      bool    `json:"cameras_on"`
	BatteryVoltage float64 `json:"battery_voltage"`
	FlightStage    int64   `json:"flight_stage"` // 0-6
}

// LatDegrees converts the scaled GPS latitude to degrees.
func (r Record) LatDegrees() float64 { return float64(r.GPSLat) / 1e7 }

// LngDegrees converts the scaled GPS longitude to degrees.
func (r Record) LngDegrees() float64 { return float64(r.GPSLng) / 1e7 }

// GPSAltMeters converts the GPS altitude from millimeters to meters.
func (r Record) GPSAltMeters() float64 { return float64(r.GPSAlt) / 1000 }
