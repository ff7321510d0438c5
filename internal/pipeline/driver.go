// Package pipeline runs the single goroutine that owns the telemetry
// stream: raw lines in, decoded records persisted and fanned out. Control
// operations post into the same goroutine, so a session swap can never
// interleave with an append.
package pipeline

import (
	"context"
	"encoding/json"
	"log"

	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/hub"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/session"
	"github.com/DavidHuang10/rocket-ground-station-25-26/internal/telemetry"
)

// queueSize bounds the inbound line queue. At the 2Hz downlink rate this is
// several minutes of headroom; producers block only if the driver has
// stalled completely.
const queueSize = 4096

type Driver struct {
	store *session.Store
	hub   *hub.Hub

	lines chan string
	ops   chan func()
}

func New(store *session.Store, h *hub.Hub) *Driver {
	return &Driver{
		store: store,
		hub:   h,
		lines: make(chan string, queueSize),
		ops:   make(chan func()),
	}
}

// Enqueue pushes one raw downlink line onto the inbound queue.
func (d *Driver) Enqueue(line string) {
	d.lines <- line
}

// QueueDepth reports the number of queued, unprocessed lines.
func (d *Driver) QueueDepth() int {
	return len(d.lines)
}

// Run processes lines and control operations until ctx is cancelled. A bad
// line is logged and dropped; nothing short of cancellation stops the loop.
func (d *Driver) Run(ctx context.Context) {
	log.Printf("telemetry pipeline started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("telemetry pipeline stopped")
			return
		case op := <-d.ops:
			op()
		case line := <-d.lines:
			d.process(line)
		}
	}
}

func (d *Driver) process(line string) {
	rec, err := telemetry.Decode(line)
	if err != nil {
		log.Printf("discarding telemetry line: %v", err)
		return
	}

	if err := d.store.Append(rec); err != nil {
		// The record still goes out live; only the durable copy failed.
		log.Printf("flight log append failed: %v", err)
	}

	points := telemetry.Points(rec, d.store.Offset())
	payload, err := json.Marshal(points)
	if err != nil {
		log.Printf("marshal telemetry batch: %v", err)
		return
	}
	d.hub.Publish(payload)
}

// do runs fn on the driver goroutine and waits for it to finish.
func (d *Driver) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case d.ops <- func() {
		fn()
		close(done)
	}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClearAndMarkTakeoff relocates the live log, pins T+0, opens a fresh
// session, and tells subscribers to reset with the new takeoff origin.
func (d *Driver) ClearAndMarkTakeoff(ctx context.Context) (session.ClearResult, error) {
	var res session.ClearResult
	var err error
	if derr := d.do(ctx, func() {
		res, err = d.store.ClearAndMarkTakeoff()
		if err == nil {
			d.hub.PublishReset(&res.TakeoffOffset, &res.TakeoffTime)
		}
	}); derr != nil {
		return session.ClearResult{}, derr
	}
	return res, err
}

// Save archives the live log without disturbing the session.
func (d *Driver) Save(ctx context.Context) (session.SaveResult, error) {
	var res session.SaveResult
	var err error
	if derr := d.do(ctx, func() {
		res, err = d.store.Save()
	}); derr != nil {
		return session.SaveResult{}, derr
	}
	return res, err
}

// SaveAndClear archives the live log, resets takeoff state, opens a fresh
// session, and tells subscribers to reset with no takeoff origin.
func (d *Driver) SaveAndClear(ctx context.Context) (session.SaveResult, error) {
	var res session.SaveResult
	var err error
	if derr := d.do(ctx, func() {
		res, err = d.store.SaveAndClear()
		if err == nil {
			d.hub.PublishReset(nil, nil)
		}
	}); derr != nil {
		return session.SaveResult{}, derr
	}
	return res, err
}

// CurrentData returns the current session's buffer as chart points.
func (d *Driver) CurrentData(ctx context.Context) ([]telemetry.Point, error) {
	var points []telemetry.Point
	if err := d.do(ctx, func() {
		points = d.store.CurrentData()
	}); err != nil {
		return nil, err
	}
	return points, nil
}

// SessionInfo returns current session metadata.
func (d *Driver) SessionInfo(ctx context.Context) (session.Info, error) {
	var info session.Info
	if err := d.do(ctx, func() {
		info = d.store.SessionInfo()
	}); err != nil {
		return session.Info{}, err
	}
	return info, nil
}
