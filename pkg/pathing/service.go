package pathing

import (
	"log"
	"os"
	"path/filepath"
)

// Ensure directories exist on startup
func init() {
	// Directories that must exist:
	dirs := []string{
		GetDefaultLogDir(),
	}

	// Create all directories
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			err := os.MkdirAll(dir, 0755)
			if err != nil {
				log.Fatal(err)
			}
		}
	}
}

func GetEventDbPath(logDir string) string {
	// Join path
	return filepath.Join(logDir, "weather_station_events.db")
}

func GetDefaultLogDir() string {
	return "/var/tmp/wx"
}

func GetConfigDir() string {
	return "/etc/weather_station"
}
