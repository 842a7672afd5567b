package config

type StationConfig struct {
	SerialDevice    string `toml:"serial_device"`
	Baudrate        uint   `toml:"baudrate"`
	SerialTimeoutMs uint   `toml:"serial_timeout_ms"`
	// Validate a trailing *XXXX CRC16/ARC suffix on each line.
	// Only enable when the instrument is configured to emit one.
	SerialChecksum bool `toml:"serial_checksum"`

	LogDir  string `toml:"log_dir"`
	DoFlush bool   `toml:"do_flush"`

	UdpIp        string `toml:"udp_ip"`
	UdpPort      int    `toml:"udp_port"`
	UdpBroadcast bool   `toml:"udp_broadcast"`

	ListenAddress string `toml:"listen_address"`
	ControlPort   int    `toml:"control_port"`
	StatusPort    int    `toml:"status_port"`
	HttpPort      int    `toml:"http_port"`

	StandardRateHz  float64 `toml:"standard_rate_hz"`
	HighFreqRateHz  float64 `toml:"high_freq_rate_hz"`
	StatusIntervalS int     `toml:"status_interval_s"`
}
