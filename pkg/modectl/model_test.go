package modectl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cases := map[string]Command{
		"high":     CommandHigh,
		"HIGH":     CommandHigh,
		" low ":    CommandLow,
		"stop":     CommandStop,
		"Status":   CommandStatus,
		"1":        CommandHigh, // legacy numeric encoding
		"32":       CommandHigh,
		"0":        CommandLow,
		"-1":       CommandLow,
		"0.5\r\n":  CommandHigh,
	}
	for in, want := range cases {
		got, err := ParseCommand(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	for _, in := range []string{"", "faster", "high frequency", "on"} {
		_, err := ParseCommand(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "1Hz", Standard.String())
	assert.Equal(t, "32Hz", HighFrequency.String())
}
