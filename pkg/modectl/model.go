package modectl

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is the active acquisition rate. Exactly one mode is active at any
// instant; only the Controller mutates it.
type Mode int

const (
	Standard      Mode = iota // continuous 1 Hz monitoring
	HighFrequency             // on-demand 32 Hz diagnostic bursts
)

// Nominal rate labels, as used on the control and status channels.
func (m Mode) String() string {
	switch m {
	case HighFrequency:
		return "32Hz"
	default:
		return "1Hz"
	}
}

// Command is a control-channel directive.
type Command int

const (
	CommandLow Command = iota
	CommandHigh
	CommandStop
	CommandStatus
)

// ParseCommand decodes a control datagram. Accepts the word forms
// high/low/stop/status (case-insensitive) and the legacy numeric encoding
// where any nonzero value means high frequency.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return CommandHigh, nil
	case "low":
		return CommandLow, nil
	case "stop":
		return CommandStop, nil
	case "status":
		return CommandStatus, nil
	}

	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		if v > 0 {
			return CommandHigh, nil
		}
		return CommandLow, nil
	}
	return 0, fmt.Errorf("invalid command: %q", s)
}
