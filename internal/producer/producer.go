// Package producer generates synthetic flight telemetry for bench testing
// the ground station without a radio link. It pushes the same 29-field CSV
// lines a real downlink would.
package producer

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"
)

// Run emits one synthetic line per interval until ctx is cancelled.
func Run(ctx context.Context, interval time.Duration, enqueue func(string)) {
	log.Printf("mock telemetry producer started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var flightTime int64
	for {
		select {
		case <-ctx.Done():
			log.Printf("mock telemetry producer stopped")
			return
		case <-ticker.C:
		}
		enqueue(Line(flightTime))
		flightTime += interval.Milliseconds()
	}
}

// Line builds one synthetic downlink line for the given flight time in
// milliseconds: a parabolic ascent with drifting IMU axes, slowly draining
// battery, and fixed GPS.
func Line(flightTime int64) string {
	t := float64(flightTime) / 1000

	altitude := 10 + 50*t - 2*t*t
	velocity := 50 - 4*t
	smoothVel := velocity + math.Sin(t)*2

	accelX := 15.2 + math.Sin(t*2)*5
	accelY := 0.3 + math.Cos(t*1.5)*2
	accelZ := -9.8 + math.Sin(t*3)*1
	gyroX := 0.05 + math.Sin(t)*0.1
	gyroY := -0.02 + math.Cos(t*1.2)*0.08
	gyroZ := 0.1 + math.Sin(t*0.8)*0.05

	abServo := 45.5 + math.Sin(t*0.5)*30
	cnrdServo := 12.3 + math.Cos(t*0.7)*10

	battery := 12.6 - t*0.01
	temp := 22.5 + t*0.1

	return fmt.Sprintf(
		"%d,"+ // cur_time
			"401234567,-1051234567,1523000,"+ // gps lat, lng, alt
			"%.1f,%.1f,%.1f,"+ // accel x, y, z
			"%.2f,%.2f,%.2f,"+ // gyro x, y, z
			"98.1,"+ // hg_accel
			"%.1f,%.1f,%.1f,"+ // altitude, velocity, smooth_vel
			"1013.25,%.1f,300.0,"+ // pressure, temp, launchsite_msl
			"1,%.1f,%.1f,"+ // airbrake_cont, ab_servo_pct, cnrd_servo_pct
			"1,1,0,0,"+ // drogue 1/2, main 1/2 continuity
			"1,1,0,"+ // flight_index, ellipse_on, cameras_on
			"%.1f,2", // battery_voltage, flight_stage
		flightTime,
		accelX, accelY, accelZ,
		gyroX, gyroY, gyroZ,
		altitude, velocity, smoothVel,
		temp,
		abServo, cnrdServo,
		battery,
	)
}
