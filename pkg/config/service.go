package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/windlab/weather_station/pkg/pathing"
)

// Env var that overrides the default config file location.
const ConfigPathEnv = "WEATHER_STATION_CONFIG"

func DefaultStationConfig() *StationConfig {
	return &StationConfig{
		SerialDevice:    "/dev/ttyUSB0",
		Baudrate:        38400,
		SerialTimeoutMs: 1000,
		SerialChecksum:  false,
		LogDir:          pathing.GetDefaultLogDir(),
		DoFlush:         true,
		UdpIp:           "127.0.0.1",
		UdpPort:         5555,
		UdpBroadcast:    false,
		ListenAddress:   "0.0.0.0",
		ControlPort:     8250,
		StatusPort:      8251,
		HttpPort:        9039,
		StandardRateHz:  1.0,
		HighFreqRateHz:  32.0,
		StatusIntervalS: 10,
	}
}

// Loaded once at startup; components receive the resolved struct and never
// re-read configuration while running.
func LoadStationConfig() (*StationConfig, error) {
	configPath := os.Getenv(ConfigPathEnv)
	if configPath == "" {
		configPath = filepath.Join(pathing.GetConfigDir(), "weather_station.toml")
	}

	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultStationConfig()
		// Create file
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return nil, err
		}
		defer cfgFile.Close()
		toml.NewEncoder(cfgFile).Encode(cfg)
		return cfg, nil
	}

	// Load existing config
	var cfg StationConfig
	_, err := toml.DecodeFile(configPath, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
