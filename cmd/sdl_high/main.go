// Sends the control command that starts short-term high-frequency (32 Hz)
// data logging, then waits briefly for a status datagram to confirm the
// mode change took effect.
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

	// Command datagrams are fire-and-forget; send a few in case one is lost.
	for i := 0; i < 3; i++ {
		if _, err := conn.Write([]byte("high")); err != nil {
			log.Fatalf("Failed to send command: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Printf("High-frequency (32 Hz) mode command sent to port %d\n", cfg.ControlPort)

	verifyModeChange(cfg, conn)
}

// verifyModeChange requests a status datagram and prints it. Verification
// is optional; the mode command already went out.
func verifyModeChange(cfg *config.StationConfig, control *net.UDPConn) {
	statusAddr := &net.UDPAddr{IP: net.IPv4zero, Port: cfg.StatusPort}
	statusConn, err := net.ListenUDP("udp", statusAddr)
	if err != nil {
		fmt.Printf("Could not bind status port for confirmation: %v\n", err)
		return
	}
	defer statusConn.Close()

	if _, err := control.Write([]byte("status")); err != nil {
		fmt.Printf("Could not request status: %v\n", err)
		return
	}

	fmt.Println("Waiting for mode change confirmation...")
	statusConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := statusConn.ReadFromUDP(buf)
	if err != nil {
		fmt.Println("No status response; check that weather_station is running.")
		return
	}
	fmt.Printf("Station status: %s\n", buf[:n])
}
