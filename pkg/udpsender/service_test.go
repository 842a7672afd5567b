package udpsender

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/windlab/weather_station/pkg/reading"
)

func TestPublishDeliversDatagram(t *testing.T) {
	ln, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer ln.Close()
	port := ln.LocalAddr().(*net.UDPAddr).Port

	s, err := NewSender("127.0.0.1", port, false)
	require.NoError(t, err)
	defer s.Close()

	r := &reading.Reading{
		TNow:    time.Date(2025, 3, 1, 10, 0, 0, 250e6, time.Local),
		U:       1.2,
		V:       -0.5,
		W:       0.1,
		Speed2D: 1.3,
		Speed3D: 1.31,
		Azimuth: 202.6,
		Elev:    4.5,
		Press:   101325,
		Temp:    15.2,
		Hum:     45.0,
	}
	require.NoError(t, s.Publish(r))

	buf := make([]byte, 4096)
	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := ln.ReadFromUDP(buf)
	require.NoError(t, err)

	got := reading.ReadingFromJsonBytes(buf[:n])
	require.NotNil(t, got)
	assert.True(t, got.TNow.Equal(r.TNow))
	assert.Equal(t, r.U, got.U)
	assert.Equal(t, r.Azimuth, got.Azimuth)
	assert.Equal(t, r.Press, got.Press)
	assert.False(t, got.Flagged())
}

func TestInvalidTargetAddress(t *testing.T) {
	_, err := NewSender("not-an-ip", 5555, false)
	assert.Error(t, err)
}

func TestTarget(t *testing.T) {
	s, err := NewSender("127.0.0.1", 5555, false)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "127.0.0.1:5555", s.Target())
}
