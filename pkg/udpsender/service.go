// Package udpsender pushes each accepted reading to the visualization
// server as one JSON datagram. Delivery is fire-and-forget: a lost sample
// must never stall or corrupt local logging.
package udpsender

import (
	"fmt"
	"net"

	"github.com/windlab/weather_station/pkg/reading"
)

type Sender struct {
	target *net.UDPAddr
	conn   *net.UDPConn
}

// NewSender resolves the destination and opens the socket. broadcast is
// informational only; Go datagram sockets have SO_BROADCAST set already,
// so a broadcast address works the same as a unicast one.
func NewSender(ip string, port int, broadcast bool) (*Sender, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
	if addr.IP == nil {
		return nil, fmt.Errorf("invalid UDP target address: %s", ip)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket to %s:%d: %w", ip, port, err)
	}

	return &Sender{target: addr, conn: conn}, nil
}

// Publish sends one datagram. Errors are returned for counting only;
// callers must not retry or abort acquisition over them.
func (s *Sender) Publish(r *reading.Reading) error {
	payload := r.ToJsonBytes()
	if payload == nil {
		return fmt.Errorf("could not serialize reading")
	}
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("udp send to %s: %w", s.target, err)
	}
	return nil
}

func (s *Sender) Target() string {
	return s.target.String()
}

func (s *Sender) Close() error {
	return s.conn.Close()
}
