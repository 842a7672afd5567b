package eventdb

type EventKind string

const (
	EventStartup     EventKind = "startup"
	EventShutdown    EventKind = "shutdown"
	EventModeChange  EventKind = "mode_change"
	EventDeviceFault EventKind = "device_fault"
	EventForcedStop  EventKind = "forced_stop"
	EventRotation    EventKind = "rotation"
)

type Event struct {
	Id        int64  `db:"id"`
	Timestamp int64  `db:"timestamp"`
	Kind      string `db:"kind"`
	Detail    string `db:"detail"`
}
