package acquisition

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/windlab/weather_station/pkg/reading"
)

// New builds a loop; Start actually opens the device.
func New(cfg LoopConfig) *Loop {
	return &Loop{
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start opens the serial device and launches the read loop. An open failure
// is returned synchronously so the caller can decide whether the station
// should keep running without data.
func (l *Loop) Start() error {
	port, err := l.cfg.Open()
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	l.portMu.Lock()
	l.port = port
	l.portMu.Unlock()

	go l.run()
	return nil
}

// Stop asks the loop to exit and waits up to grace for the device to be
// released. On timeout the port is force-closed to unblock a stuck read and
// ErrStopTimeout is returned; the loop is still drained before returning so
// the device is guaranteed free either way.
func (l *Loop) Stop(grace time.Duration) error {
	l.stopOnce.Do(func() { close(l.stop) })

	select {
	case <-l.done:
		return nil
	case <-time.After(grace):
	}

	l.closePort()
	select {
	case <-l.done:
	case <-time.After(grace):
	}
	return ErrStopTimeout
}

// Latest returns the most recent accepted reading, or nil before the first.
func (l *Loop) Latest() *reading.Reading {
	l.latestMu.RLock()
	defer l.latestMu.RUnlock()
	return l.latest
}

func (l *Loop) run() {
	defer close(l.done)
	defer l.closePort()

	br := bufio.NewReader(l.portReader())
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	consecutiveTimeouts := 0
	consecutiveErrors := 0
	var lastErr error

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		line, err := readLine(br)
		if err != nil {
			if l.stopRequested() {
				return
			}
			if isTimeout(err) {
				consecutiveTimeouts++
				if consecutiveTimeouts == transientTimeoutLimit && l.cfg.OnTransient != nil {
					l.cfg.OnTransient(consecutiveTimeouts)
				}
				continue
			}

			consecutiveErrors++
			lastErr = err
			log.Printf("Error reading from serial port (%d/%d): %v",
				consecutiveErrors, maxConsecutiveErrors, err)
			if consecutiveErrors >= maxConsecutiveErrors {
				log.Printf("Too many consecutive errors, stopping acquisition: %v", lastErr)
				if l.cfg.OnFatal != nil {
					// Own goroutine: the fatal handler may be waiting on a
					// controller lock held by a concurrent stop request.
					go l.cfg.OnFatal(lastErr)
				}
				return
			}
			continue
		}
		consecutiveTimeouts = 0
		consecutiveErrors = 0

		r, err := reading.ParseLine(line, time.Now(), l.cfg.Checksum)
		if err != nil {
			// Malformed lines never terminate acquisition.
			l.cfg.Counters.ParseFailures.Add(1)
			continue
		}

		l.latestMu.Lock()
		l.latest = r
		l.latestMu.Unlock()
		l.cfg.Counters.RecordReading(r.TNow)

		// Durability before fan-out: append first, publish second.
		if err := l.cfg.Log.Append(r); err != nil {
			// One retry of the same row, then the reading is counted lost.
			if err2 := l.cfg.Log.Append(r); err2 != nil {
				l.cfg.Counters.WriteFailures.Add(1)
				log.Printf("Reading lost, log write failed twice: %v", err2)
			}
		}
		if err := l.cfg.Publish.Publish(r); err != nil {
			l.cfg.Counters.PublishFailures.Add(1)
			log.Printf("Error publishing reading: %v", err)
		}

		if l.cfg.OnReading != nil {
			l.cfg.OnReading(r)
		}
	}
}

func (l *Loop) portReader() io.Reader {
	l.portMu.Lock()
	defer l.portMu.Unlock()
	return l.port
}

func (l *Loop) closePort() {
	l.portMu.Lock()
	defer l.portMu.Unlock()
	if l.port != nil && !l.portClosed {
		l.port.Close()
		l.portClosed = true
	}
}

func (l *Loop) stopRequested() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// readLine collects bytes until CR or LF. The 81000V terminates records
// with CR; tolerating LF covers CRLF-configured units.
func readLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\r' || b == '\n' {
			if sb.Len() == 0 {
				// Terminator left over from the previous record.
				continue
			}
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}

// A timed-out read surfaces as EOF from the go-serial port (zero bytes in
// the inter-character window) or as ErrNoProgress from bufio when the port
// keeps returning empty reads.
func isTimeout(err error) bool {
	return err == io.EOF || err == io.ErrNoProgress
}
