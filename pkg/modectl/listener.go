package modectl

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync/atomic"

	"github.com/windlab/weather_station/pkg/status"
)

// Listener binds the UDP control port and applies commands in arrival
// order. Malformed datagrams are counted and dropped; they never crash the
// listener or reach the controller.
type Listener struct {
	ctrl       *Controller
	reporter   *status.Reporter
	counters   *status.Counters
	statusPort int
	conn       *net.UDPConn
	closed     atomic.Bool
	done       chan struct{}
}

func NewListener(host string, port, statusPort int, ctrl *Controller,
	reporter *status.Reporter, counters *status.Counters) (*Listener, error) {

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("invalid control address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind control port: %w", err)
	}

	return &Listener{
		ctrl:       ctrl,
		reporter:   reporter,
		counters:   counters,
		statusPort: statusPort,
		conn:       conn,
		done:       make(chan struct{}),
	}, nil
}

// Start launches the listener goroutine.
func (l *Listener) Start() {
	log.Printf("Control listener on %s", l.conn.LocalAddr())
	go func() {
		defer close(l.done)
		buf := make([]byte, 4096)
		for {
			n, src, err := l.conn.ReadFromUDP(buf)
			if err != nil {
				if l.closed.Load() {
					return
				}
				log.Printf("Error reading control socket: %v", err)
				continue
			}
			l.handle(string(buf[:n]), src)
		}
	}()
}

func (l *Listener) handle(payload string, src *net.UDPAddr) {
	cmd, err := ParseCommand(payload)
	if err != nil {
		l.counters.ControlErrors.Add(1)
		log.Printf("Invalid control command from %s: %v", src, err)
		return
	}

	switch cmd {
	case CommandHigh:
		if err := l.ctrl.SetMode(HighFrequency); err != nil {
			log.Printf("Error switching to high frequency mode: %v", err)
		}
	case CommandLow:
		if err := l.ctrl.SetMode(Standard); err != nil {
			log.Printf("Error switching to standard mode: %v", err)
		}
	case CommandStop:
		l.ctrl.Stop()
	case CommandStatus:
		l.sendStatus(src)
	}
}

// sendStatus answers a status query on the requester's status port.
// Fire-and-forget like everything else on the control plane.
func (l *Listener) sendStatus(src *net.UDPAddr) {
	if l.reporter == nil {
		return
	}
	data, err := json.Marshal(l.reporter.Snapshot())
	if err != nil {
		return
	}
	dst := &net.UDPAddr{IP: src.IP, Port: l.statusPort}
	if _, err := l.conn.WriteToUDP(data, dst); err != nil {
		log.Printf("Error sending status response to %s: %v", dst, err)
	}
}

func (l *Listener) Close() error {
	l.closed.Store(true)
	err := l.conn.Close()
	<-l.done
	return err
}
