// Debug tool: listens on the UDP data channel and prints each reading
// datagram as it arrives.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/windlab/weather_station/pkg/reading"
)

func main() {
	listen := flag.String("listen", "0.0.0.0:5555", "UDP address to listen on")
	rawMode := flag.Bool("raw", false, "Print raw datagrams instead of decoded readings")
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *listen)
	if err != nil {
		log.Fatalf("Invalid listen address %q: %v", *listen, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.Fatalf("Failed to bind %s: %v", *listen, err)
	}
	defer conn.Close()
	log.Printf("Listening for readings on %s", *listen)

	buf := make([]byte, 4096)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			log.Fatalf("Read error: %v", err)
		}

		if *rawMode {
			fmt.Printf("[%s] %s\n", src, buf[:n])
			continue
		}

		r := reading.ReadingFromJsonBytes(buf[:n])
		if r == nil {
			log.Printf("Undecodable datagram from %s: %q", src, buf[:n])
			continue
		}
		mark := ""
		if r.Flagged() {
			mark = "  [FLAGGED]"
		}
		fmt.Printf("[%s] %s  u=%.2f v=%.2f w=%.2f  2d=%.2f m/s  az=%.1f deg  elev=%.1f deg%s\n",
			src, r.TNow.Format(reading.TimeLayout), r.U, r.V, r.W, r.Speed2D, r.Azimuth, r.Elev, mark)
	}
}
