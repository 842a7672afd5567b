// Weather station daemon: reads the sonic anemometer over serial, logs to
// rotating daily CSV files, republishes readings over UDP and serves a live
// websocket stream. Acquisition rate is switchable at runtime through the
// UDP control port.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/windlab/weather_station/pkg/acquisition"
	"github.com/windlab/weather_station/pkg/config"
	"github.com/windlab/weather_station/pkg/eventdb"
	"github.com/windlab/weather_station/pkg/logwriter"
	"github.com/windlab/weather_station/pkg/modectl"
	"github.com/windlab/weather_station/pkg/pathing"
	"github.com/windlab/weather_station/pkg/reading"
	"github.com/windlab/weather_station/pkg/status"
	"github.com/windlab/weather_station/pkg/udpsender"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// ws clients for broadcasting live readings
var (
	wsClients                   = make(map[*websocket.Conn]bool)
	wsClientsMutex sync.RWMutex = sync.RWMutex{}
)

func main() {
	cfg, err := config.LoadStationConfig()
	if err != nil {
		log.Fatalf("Failed to load station config: %v", err)
	}

	if err := eventdb.Initialize(pathing.GetEventDbPath(cfg.LogDir)); err != nil {
		log.Printf("Warning: event journal unavailable: %v", err)
	}
	eventdb.InsertEvent(eventdb.EventStartup, "weather station starting")

	// An unusable log directory is the one unrecoverable error here.
	dataLogger, err := logwriter.NewDataLogger(cfg.LogDir, cfg.DoFlush)
	if err != nil {
		log.Fatalf("Log directory unusable, cannot continue: %v", err)
	}

	sender, err := udpsender.NewSender(cfg.UdpIp, cfg.UdpPort, cfg.UdpBroadcast)
	if err != nil {
		log.Fatalf("Failed to set up UDP data channel: %v", err)
	}
	log.Printf("UDP data sender initialized, target %s", sender.Target())

	counters := &status.Counters{}

	serialTimeout := time.Duration(cfg.SerialTimeoutMs) * time.Millisecond
	base := acquisition.LoopConfig{
		Open:     acquisition.SerialOpener(cfg.SerialDevice, cfg.Baudrate, serialTimeout),
		Checksum: cfg.SerialChecksum,
		Log:      dataLogger,
		Publish:  sender,
		Counters: counters,
		OnReading: func(r *reading.Reading) {
			BroadcastToWebSockets(r)
		},
	}

	ctrl := modectl.NewController(base,
		rateToInterval(cfg.StandardRateHz),
		rateToInterval(cfg.HighFreqRateHz),
		3*serialTimeout)

	// Start in standard mode; like the rest of the control plane, a missing
	// instrument leaves the station up so it can be fixed without a redeploy.
	if err := ctrl.SetMode(modectl.Standard); err != nil {
		log.Printf("Failed to start acquisition: %v", err)
		log.Printf("Station will run idle; send a mode command to retry")
	}

	statusInterval := time.Duration(cfg.StatusIntervalS) * time.Second
	reporter, err := status.NewReporter(cfg.UdpIp, cfg.StatusPort, statusInterval,
		counters, ctrl, dataLogger)
	if err != nil {
		log.Fatalf("Failed to set up status channel: %v", err)
	}
	reporter.Start()

	listener, err := modectl.NewListener(cfg.ListenAddress, cfg.ControlPort,
		cfg.StatusPort, ctrl, reporter, counters)
	if err != nil {
		log.Fatalf("Failed to bind control port: %v", err)
	}
	listener.Start()

	// Setup HTTP handlers
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]string{
			"message": "Weather Station API",
			"status":  "running",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	http.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		latest := ctrl.Latest()
		w.Header().Set("Content-Type", "application/json")
		if latest == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "No readings available yet",
			})
			return
		}
		w.Write(latest.ToJsonBytes())
	})

	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reporter.Snapshot())
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		AddWebSocketClient(conn)

		// Send current reading immediately if available
		if latest := ctrl.Latest(); latest != nil {
			conn.WriteMessage(websocket.TextMessage, latest.ToJsonBytes())
		}

		// Keep connection alive
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				RemoveWebSocketClient(conn)
				break
			}
		}
	})

	httpListener := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.HttpPort)
	go func() {
		log.Printf("Starting Weather Station API on %s", httpListener)
		log.Fatal(http.ListenAndServe(httpListener, nil))
	}()

	// Block until asked to exit, then flush everything.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down, closing logfiles")
	listener.Close()
	reporter.Stop()
	ctrl.Shutdown()
	if err := dataLogger.Close(); err != nil {
		log.Printf("Error closing log file: %v", err)
	}
	sender.Close()
	eventdb.InsertEvent(eventdb.EventShutdown, "clean shutdown")
	eventdb.Close()
}

func rateToInterval(rateHz float64) time.Duration {
	if rateHz <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / rateHz)
}

func BroadcastToWebSockets(r *reading.Reading) {
	wsClientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(wsClients))
	for client := range wsClients {
		clients = append(clients, client)
	}
	wsClientsMutex.RUnlock()

	if len(clients) == 0 {
		return
	}
	data := r.ToJsonBytes()
	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			RemoveWebSocketClient(client)
		}
	}
}

func AddWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	wsClients[conn] = true
	wsClientsMutex.Unlock()
}

func RemoveWebSocketClient(conn *websocket.Conn) {
	wsClientsMutex.Lock()
	delete(wsClients, conn)
	wsClientsMutex.Unlock()
	conn.Close()
}
