package acquisition

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/windlab/weather_station/pkg/reading"
	"github.com/windlab/weather_station/pkg/status"
)

// Appender receives each accepted reading for durable storage.
// Implemented by logwriter.DataLogger.
type Appender interface {
	Append(*reading.Reading) error
}

// Publisher receives each accepted reading for best-effort fan-out.
// Implemented by udpsender.Sender.
type Publisher interface {
	Publish(*reading.Reading) error
}

// PortOpener opens the serial device. Injected so tests can substitute a
// scripted port.
type PortOpener func() (io.ReadWriteCloser, error)

// SerialOpener returns a PortOpener for the real instrument. With
// MinimumReadSize 0 the InterCharacterTimeout bounds every read, which is
// what lets a stop request take effect within one timeout period.
func SerialOpener(device string, baudrate uint, timeout time.Duration) PortOpener {
	return func() (io.ReadWriteCloser, error) {
		return serial.Open(serial.OpenOptions{
			PortName:              device,
			BaudRate:              baudrate,
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       0,
			InterCharacterTimeout: uint(timeout / time.Millisecond),
		})
	}
}

// LoopConfig wires one acquisition loop.
type LoopConfig struct {
	Open     PortOpener
	Interval time.Duration // target sample interval for the active mode
	Checksum bool

	Log      Appender
	Publish  Publisher
	Counters *status.Counters

	// OnReading is called after a reading has been logged and published
	// (live stream fan-out). Optional.
	OnReading func(*reading.Reading)
	// OnTransient is called once when consecutive read timeouts reach the
	// transient threshold. The loop keeps retrying. Optional.
	OnTransient func(consecutive int)
	// OnFatal is called from its own goroutine when the loop exits on a
	// device fault. Optional.
	OnFatal func(error)
}

const (
	// Read timeouts tolerated before signalling a transient fault.
	transientTimeoutLimit = 3
	// Consecutive hard read errors tolerated before the loop gives up.
	maxConsecutiveErrors = 10
)

// ErrStopTimeout reports that a loop failed to acknowledge a stop request
// within the grace period and had its device forcibly released.
var ErrStopTimeout = errors.New("acquisition loop did not acknowledge stop in time")

// Loop owns the serial device while running. Exactly one loop may exist per
// device; the mode controller guarantees the previous loop has released the
// port before starting the next.
type Loop struct {
	cfg LoopConfig

	portMu     sync.Mutex
	port       io.ReadWriteCloser
	portClosed bool

	latestMu sync.RWMutex
	latest   *reading.Reading

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}
