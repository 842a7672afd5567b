package modectl

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/windlab/weather_station/pkg/acquisition"
	"github.com/windlab/weather_station/pkg/reading"
	"github.com/windlab/weather_station/pkg/status"
)

// idlePort times out on every read, like a quiet instrument.
type idlePort struct {
	readErr error
	onClose func()
	once    sync.Once
}

func (p *idlePort) Read(buf []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	time.Sleep(time.Millisecond)
	return 0, io.EOF
}

func (p *idlePort) Write(buf []byte) (int, error) { return len(buf), nil }

func (p *idlePort) Close() error {
	p.once.Do(func() {
		if p.onClose != nil {
			p.onClose()
		}
	})
	return nil
}

// trackingOpener records port open and close events in order.
type trackingOpener struct {
	mu     sync.Mutex
	events []string
	count  int
}

func (o *trackingOpener) open() (io.ReadWriteCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count++
	n := o.count
	o.events = append(o.events, fmt.Sprintf("open%d", n))
	return &idlePort{onClose: func() { o.record(fmt.Sprintf("close%d", n)) }}, nil
}

func (o *trackingOpener) record(ev string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *trackingOpener) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

type nopAppender struct{}

func (nopAppender) Append(*reading.Reading) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(*reading.Reading) error { return nil }

func testController(opener *trackingOpener) *Controller {
	base := acquisition.LoopConfig{
		Open:     opener.open,
		Log:      nopAppender{},
		Publish:  nopPublisher{},
		Counters: &status.Counters{},
	}
	return NewController(base, 10*time.Millisecond, time.Millisecond, 50*time.Millisecond)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestSetModeIdempotent(t *testing.T) {
	opener := &trackingOpener{}
	c := testController(opener)
	defer c.Shutdown()

	require.NoError(t, c.SetMode(Standard))
	require.NoError(t, c.SetMode(Standard))
	require.NoError(t, c.SetMode(Standard))

	assert.Equal(t, []string{"open1"}, opener.snapshot())
	assert.Equal(t, "1Hz", c.ModeString())
	m, ok := c.Mode()
	assert.True(t, ok)
	assert.Equal(t, Standard, m)
}

func TestModeSwitchSerializesHandoff(t *testing.T) {
	opener := &trackingOpener{}
	c := testController(opener)
	defer c.Shutdown()

	require.NoError(t, c.SetMode(Standard))
	require.NoError(t, c.SetMode(HighFrequency))

	// The old loop must have released the device before the new one opened
	// it. The event order proves the handoff never overlaps.
	assert.Equal(t, []string{"open1", "close1", "open2"}, opener.snapshot())
	assert.Equal(t, "32Hz", c.ModeString())
}

func TestStopGoesIdle(t *testing.T) {
	opener := &trackingOpener{}
	c := testController(opener)

	require.NoError(t, c.SetMode(HighFrequency))
	c.Stop()

	assert.Equal(t, []string{"open1", "close1"}, opener.snapshot())
	assert.Equal(t, "idle", c.ModeString())
	_, ok := c.Mode()
	assert.False(t, ok)
	assert.Nil(t, c.Latest())

	// Stop while idle is a no-op.
	c.Stop()
	assert.Equal(t, []string{"open1", "close1"}, opener.snapshot())
}

func TestResumeAfterStop(t *testing.T) {
	opener := &trackingOpener{}
	c := testController(opener)
	defer c.Shutdown()

	require.NoError(t, c.SetMode(Standard))
	c.Stop()
	require.NoError(t, c.SetMode(Standard))

	assert.Equal(t, []string{"open1", "close1", "open2"}, opener.snapshot())
	assert.Equal(t, "1Hz", c.ModeString())
}

func TestFatalDeviceFaultGoesIdle(t *testing.T) {
	// First open hands out a faulty device, the replug succeeds.
	opens := 0
	base := acquisition.LoopConfig{
		Open: func() (io.ReadWriteCloser, error) {
			opens++
			if opens == 1 {
				return &idlePort{readErr: errors.New("device removed")}, nil
			}
			return &idlePort{}, nil
		},
		Log:      nopAppender{},
		Publish:  nopPublisher{},
		Counters: &status.Counters{},
	}

	fatal := make(chan error, 1)
	base.OnFatal = func(err error) { fatal <- err }

	c := NewController(base, time.Millisecond, time.Millisecond, 50*time.Millisecond)
	require.NoError(t, c.SetMode(Standard))

	select {
	case err := <-fatal:
		assert.Contains(t, err.Error(), "device removed")
	case <-time.After(2 * time.Second):
		t.Fatal("fatal fault never reported")
	}

	waitFor(t, func() bool { return c.ModeString() == "idle" })
	_, ok := c.Mode()
	assert.False(t, ok)

	// The controller stays idle until explicitly restarted.
	require.NoError(t, c.SetMode(Standard))
	assert.Equal(t, "1Hz", c.ModeString())
	c.Shutdown()
}

func TestOpenFailureStaysIdle(t *testing.T) {
	base := acquisition.LoopConfig{
		Open:     func() (io.ReadWriteCloser, error) { return nil, errors.New("no such device") },
		Log:      nopAppender{},
		Publish:  nopPublisher{},
		Counters: &status.Counters{},
	}
	c := NewController(base, time.Millisecond, time.Millisecond, 50*time.Millisecond)

	err := c.SetMode(Standard)
	require.Error(t, err)
	assert.Equal(t, "idle", c.ModeString())
	_, ok := c.Mode()
	assert.False(t, ok)
}
