package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_station.toml")
	t.Setenv(ConfigPathEnv, path)

	cfg, err := LoadStationConfig()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialDevice)
	assert.Equal(t, uint(38400), cfg.Baudrate)
	assert.Equal(t, 8250, cfg.ControlPort)
	assert.Equal(t, 8251, cfg.StatusPort)
	assert.Equal(t, 5555, cfg.UdpPort)
	assert.Equal(t, 1.0, cfg.StandardRateHz)
	assert.Equal(t, 32.0, cfg.HighFreqRateHz)

	// The default file was written so operators can edit it.
	_, err = os.Stat(path)
	assert.NoError(t, err)

	// A second load reads the file back identically.
	again, err := LoadStationConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather_station.toml")
	t.Setenv(ConfigPathEnv, path)

	body := `
serial_device = "/dev/ttyS1"
baudrate = 9600
serial_timeout_ms = 500
serial_checksum = true
log_dir = "/data/wx"
do_flush = false
udp_ip = "192.168.1.50"
udp_port = 6000
listen_address = "127.0.0.1"
control_port = 9000
status_port = 9001
http_port = 8080
standard_rate_hz = 2.0
high_freq_rate_hz = 16.0
status_interval_s = 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadStationConfig()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS1", cfg.SerialDevice)
	assert.Equal(t, uint(9600), cfg.Baudrate)
	assert.True(t, cfg.SerialChecksum)
	assert.Equal(t, "/data/wx", cfg.LogDir)
	assert.False(t, cfg.DoFlush)
	assert.Equal(t, "192.168.1.50", cfg.UdpIp)
	assert.Equal(t, 9000, cfg.ControlPort)
	assert.Equal(t, 2.0, cfg.StandardRateHz)
	assert.Equal(t, 16.0, cfg.HighFreqRateHz)
}
