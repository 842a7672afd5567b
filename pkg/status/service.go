package status

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"time"
)

// ModeSource reports the currently active acquisition mode label.
// Implemented by modectl.Controller.
type ModeSource interface {
	ModeString() string
}

// FileSource reports the actively written log file.
// Implemented by logwriter.DataLogger.
type FileSource interface {
	CurrentFile() string
}

// Reporter publishes a Snapshot datagram on a fixed cadence, independent of
// the acquisition rate. It only reads shared state, never mutates it.
type Reporter struct {
	counters *Counters
	modes    ModeSource
	files    FileSource
	conn     *net.UDPConn
	interval time.Duration
	started  time.Time
	stop     chan struct{}
	done     chan struct{}
}

func NewReporter(ip string, port int, interval time.Duration,
	counters *Counters, modes ModeSource, files FileSource) (*Reporter, error) {

	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
	if addr.IP == nil {
		return nil, fmt.Errorf("invalid status address: %s", ip)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open status socket to %s:%d: %w", ip, port, err)
	}

	return &Reporter{
		counters: counters,
		modes:    modes,
		files:    files,
		conn:     conn,
		interval: interval,
		started:  time.Now(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Snapshot assembles the current health view.
func (r *Reporter) Snapshot() Snapshot {
	s := r.counters.snapshot()
	s.Mode = r.modes.ModeString()
	if r.files != nil {
		s.CurrentFile = r.files.CurrentFile()
	}
	s.UptimeS = int64(time.Since(r.started).Seconds())
	return s
}

// Start launches the reporter goroutine.
func (r *Reporter) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if err := r.publish(); err != nil {
					log.Printf("Error sending status: %v", err)
				}
			}
		}
	}()
}

func (r *Reporter) publish() error {
	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		return err
	}
	_, err = r.conn.Write(data)
	return err
}

func (r *Reporter) Stop() {
	close(r.stop)
	<-r.done
	r.conn.Close()
}
