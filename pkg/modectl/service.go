package modectl

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/windlab/weather_station/pkg/acquisition"
	"github.com/windlab/weather_station/pkg/eventdb"
	"github.com/windlab/weather_station/pkg/reading"
)

// Controller is the single writer of the acquisition mode. It serializes
// the stop-then-start handoff so that at most one loop ever holds the
// serial device: a new loop is not started until the previous one has
// confirmed release (or been forcibly released after the grace period).
type Controller struct {
	mu sync.Mutex

	base             acquisition.LoopConfig
	standardInterval time.Duration
	highFreqInterval time.Duration
	grace            time.Duration

	running bool
	mode    Mode
	loop    *acquisition.Loop

	// Lock-free label for status readers.
	modeLabel atomic.Value // string
}

func NewController(base acquisition.LoopConfig,
	standardInterval, highFreqInterval, grace time.Duration) *Controller {

	c := &Controller{
		base:             base,
		standardInterval: standardInterval,
		highFreqInterval: highFreqInterval,
		grace:            grace,
	}
	c.modeLabel.Store("idle")
	return c
}

// SetMode transitions to the requested mode, starting acquisition if idle.
// A request for the already-active mode is a no-op with no interruption.
func (c *Controller) SetMode(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running && c.mode == m {
		return nil
	}

	if c.running {
		c.stopLoopLocked()
	}
	return c.startLoopLocked(m)
}

// Stop releases the serial device and goes idle. No new loop starts until
// the next SetMode.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.stopLoopLocked()
	log.Printf("Acquisition stopped, mode controller idle")
	eventdb.InsertEvent(eventdb.EventModeChange, "stopped, now idle")
}

// Shutdown is Stop for process exit.
func (c *Controller) Shutdown() {
	c.Stop()
}

// Mode returns the active mode; ok is false when idle.
func (c *Controller) Mode() (m Mode, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode, c.running
}

// ModeString never blocks on a transition in progress.
func (c *Controller) ModeString() string {
	return c.modeLabel.Load().(string)
}

// Latest returns the most recent reading of the active loop, nil when idle.
func (c *Controller) Latest() *reading.Reading {
	c.mu.Lock()
	loop := c.loop
	c.mu.Unlock()
	if loop == nil {
		return nil
	}
	return loop.Latest()
}

func (c *Controller) intervalFor(m Mode) time.Duration {
	if m == HighFrequency {
		return c.highFreqInterval
	}
	return c.standardInterval
}

// stopLoopLocked blocks until the old loop has released the serial device.
func (c *Controller) stopLoopLocked() {
	if err := c.loop.Stop(c.grace); err != nil {
		// Device was forcibly released; operator-visible, not silent.
		log.Printf("Warning: %v, serial device forcibly released", err)
		eventdb.InsertEvent(eventdb.EventForcedStop, err.Error())
	}
	c.loop = nil
	c.running = false
	c.modeLabel.Store("idle")
}

func (c *Controller) startLoopLocked(m Mode) error {
	cfg := c.base
	cfg.Interval = c.intervalFor(m)

	var loop *acquisition.Loop
	userFatal := c.base.OnFatal
	cfg.OnFatal = func(err error) {
		c.loopFailed(loop, err)
		if userFatal != nil {
			userFatal(err)
		}
	}
	userTransient := c.base.OnTransient
	cfg.OnTransient = func(n int) {
		log.Printf("Transient device fault: %d consecutive read timeouts", n)
		eventdb.InsertEvent(eventdb.EventDeviceFault,
			fmt.Sprintf("transient: %d consecutive read timeouts", n))
		if userTransient != nil {
			userTransient(n)
		}
	}

	loop = acquisition.New(cfg)
	if err := loop.Start(); err != nil {
		return err
	}

	c.loop = loop
	c.mode = m
	c.running = true
	c.modeLabel.Store(m.String())
	log.Printf("Switched to %s data collection", m)
	eventdb.InsertEvent(eventdb.EventModeChange, "running at "+m.String())
	return nil
}

// loopFailed handles a fatal device fault reported by a loop. Stale reports
// from an already-replaced loop are ignored.
func (c *Controller) loopFailed(loop *acquisition.Loop, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop != loop {
		return
	}
	c.loop = nil
	c.running = false
	c.modeLabel.Store("idle")
	log.Printf("Fatal device fault, mode controller idle: %v", err)
	eventdb.InsertEvent(eventdb.EventDeviceFault, "fatal: "+err.Error())
}
