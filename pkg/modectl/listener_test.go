package modectl

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/windlab/weather_station/pkg/status"
)

func TestListenerDispatchesCommands(t *testing.T) {
	opener := &trackingOpener{}
	ctrl := testController(opener)
	defer ctrl.Shutdown()
	counters := ctrl.base.Counters

	// Receiver for status responses, standing in for the operator's query
	// tool.
	statusLn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer statusLn.Close()
	statusPort := statusLn.LocalAddr().(*net.UDPAddr).Port

	reporter, err := status.NewReporter("127.0.0.1", statusPort, time.Hour,
		counters, ctrl, nil)
	require.NoError(t, err)
	reporter.Start()
	defer reporter.Stop()

	l, err := NewListener("127.0.0.1", 0, statusPort, ctrl, reporter, counters)
	require.NoError(t, err)
	l.Start()
	defer l.Close()

	conn, err := net.DialUDP("udp", nil, l.conn.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer conn.Close()

	send := func(cmd string) {
		_, err := conn.Write([]byte(cmd))
		require.NoError(t, err)
	}

	send("high")
	waitFor(t, func() bool { return ctrl.ModeString() == "32Hz" })

	send("low")
	waitFor(t, func() bool { return ctrl.ModeString() == "1Hz" })

	// Malformed datagrams are counted and dropped without disturbing the
	// active mode.
	send("faster please")
	waitFor(t, func() bool { return counters.ControlErrors.Load() == 1 })
	assert.Equal(t, "1Hz", ctrl.ModeString())

	// A status query answers on the requester's status port.
	send("status")
	buf := make([]byte, 4096)
	require.NoError(t, statusLn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := statusLn.ReadFromUDP(buf)
	require.NoError(t, err)

	var s status.Snapshot
	require.NoError(t, json.Unmarshal(buf[:n], &s))
	assert.Equal(t, "1Hz", s.Mode)
	assert.Equal(t, uint64(1), s.ControlErrors)

	send("stop")
	waitFor(t, func() bool { return ctrl.ModeString() == "idle" })
}
