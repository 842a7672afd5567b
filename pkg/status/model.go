package status

import (
	"sync/atomic"
	"time"

	"github.com/windlab/weather_station/pkg/reading"
)

// Counters holds the cumulative health counters shared between the
// acquisition loop, the control listener and the status reporter. All
// fields are updated atomically; readers never block writers.
type Counters struct {
	Samples         atomic.Uint64
	ParseFailures   atomic.Uint64
	WriteFailures   atomic.Uint64
	PublishFailures atomic.Uint64
	ControlErrors   atomic.Uint64

	lastReadingMs atomic.Int64
}

// RecordReading notes a successfully accepted sample.
func (c *Counters) RecordReading(t time.Time) {
	c.Samples.Add(1)
	c.lastReadingMs.Store(t.UnixMilli())
}

// LastReading returns the timestamp of the most recent accepted sample,
// or the zero time if none has been seen.
func (c *Counters) LastReading() time.Time {
	ms := c.lastReadingMs.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Snapshot is the status datagram payload.
type Snapshot struct {
	Mode            string `json:"mode"`
	LastReading     string `json:"last_reading,omitempty"`
	Samples         uint64 `json:"samples"`
	ParseFailures   uint64 `json:"parse_failures"`
	WriteFailures   uint64 `json:"write_failures"`
	PublishFailures uint64 `json:"publish_failures"`
	ControlErrors   uint64 `json:"control_errors"`
	CurrentFile     string `json:"current_file,omitempty"`
	UptimeS         int64  `json:"uptime_s"`
}

func (c *Counters) snapshot() Snapshot {
	s := Snapshot{
		Samples:         c.Samples.Load(),
		ParseFailures:   c.ParseFailures.Load(),
		WriteFailures:   c.WriteFailures.Load(),
		PublishFailures: c.PublishFailures.Load(),
		ControlErrors:   c.ControlErrors.Load(),
	}
	if last := c.LastReading(); !last.IsZero() {
		s.LastReading = last.Format(reading.TimeLayout)
	}
	return s
}
