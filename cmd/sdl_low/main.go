// Sends the control command that returns the station to standard (1 Hz)
// continuous logging.
package main

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/windlab/weather_station/pkg/config"
)

func main() {
	cfg, err := config.LoadStationConfig()
	if err != nil {
		log.Fatalf("Failed to load station config: %v", err)
	}

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: cfg.ControlPort}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.Fatalf("Failed to open control socket: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 3; i++ {
		if _, err := conn.Write([]byte("low")); err != nil {
			log.Fatalf("Failed to send command: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Printf("Standard (1 Hz) mode command sent to port %d\n", cfg.ControlPort)
}
