package reading

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sigurn/crc16"
)

const (
	// Raw instrument line: u v w 2d 3d az elev press temp rh sonic err
	rawFieldCount = 12
	// CSV/log form with a leading timestamp field.
	timestampedFieldCount = 13

	elevLimitDeg = 60.0
)

// ParseError describes a rejected input line.
type ParseError struct {
	Reason string
	Line   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure: %s: %q", e.Reason, e.Line)
}

var timeLayouts = []string{
	TimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
}

// ParseLine converts one line from the instrument (or a logged CSV row) into
// a Reading. Raw 12-field lines are stamped with at and have the raw-count
// corrections applied to pressure, temperature and humidity; 13-field lines
// carry their own timestamp and are already in engineering units.
//
// Azimuth outside [0,360) rejects the line. Elevation is clamped to the
// instrument's +/-60 degree range, humidity to [0,100]. A nonzero error
// field never rejects the line; the row is only flagged.
//
// Parsing performs no I/O.
func ParseLine(line string, at time.Time, validateChecksum bool) (*Reading, error) {
	clean := strings.Map(func(r rune) rune {
		if r == 0 || !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, line)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, &ParseError{Reason: "empty line", Line: line}
	}

	if validateChecksum {
		var err error
		clean, err = stripChecksum(clean)
		if err != nil {
			return nil, err
		}
	}

	fields := strings.FieldsFunc(clean, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	switch len(fields) {
	case rawFieldCount:
		return parseValues(line, at, fields, true)
	case timestampedFieldCount:
		t, err := parseTimestamp(fields[0])
		if err != nil {
			return nil, &ParseError{Reason: "bad timestamp: " + fields[0], Line: line}
		}
		return parseValues(line, t, fields[1:], false)
	default:
		return nil, &ParseError{
			Reason: fmt.Sprintf("expected %d or %d fields, got %d",
				rawFieldCount, timestampedFieldCount, len(fields)),
			Line: line,
		}
	}
}

func parseValues(line string, at time.Time, fields []string, raw bool) (*Reading, error) {
	vals := make([]float64, rawFieldCount)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, &ParseError{Reason: "non-numeric field: " + f, Line: line}
		}
		vals[i] = v
	}

	press, temp, hum := vals[7], vals[8], vals[9]
	if raw {
		press, temp, hum = correctRawCounts(press, temp, hum)
	}

	az := vals[5]
	if az < 0 || az >= 360 {
		return nil, &ParseError{
			Reason: fmt.Sprintf("azimuth %g outside [0,360)", az),
			Line:   line,
		}
	}

	r := &Reading{
		TNow:      at,
		U:         round8(vals[0]),
		V:         round8(vals[1]),
		W:         round8(vals[2]),
		Speed2D:   round8(vals[3]),
		Speed3D:   round8(vals[4]),
		Azimuth:   round8(az),
		Elev:      round8(clamp(vals[6], -elevLimitDeg, elevLimitDeg)),
		Press:     round8(press),
		Temp:      round8(temp),
		Hum:       round8(clamp(hum, 0, 100)),
		SonicTemp: round8(vals[10]),
		Error:     vals[11],
	}
	return r, nil
}

// The 81000V reports pressure, temperature and humidity as raw voltage
// counts on its auxiliary inputs; these are the calibration equations for
// our sensor head.
func correctRawCounts(pressRaw, tempRaw, rhRaw float64) (press, temp, hum float64) {
	press = (0.02*pressRaw + 950) * 100
	temp = tempRaw/40.0 - 50.0
	hum = rhRaw / 40.0
	return press, temp, hum
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// stripChecksum validates and removes a trailing *XXXX CRC16/ARC suffix.
func stripChecksum(line string) (string, error) {
	idx := strings.LastIndex(line, "*")
	if idx < 0 || len(line)-idx-1 != 4 {
		return "", &ParseError{Reason: "missing checksum suffix", Line: line}
	}
	data := line[:idx]
	given := line[idx+1:]

	table := crc16.MakeTable(crc16.CRC16_ARC)
	calc := fmt.Sprintf("%04X", crc16.Checksum([]byte(data), table))
	if !strings.EqualFold(given, calc) {
		return "", &ParseError{Reason: "checksum mismatch", Line: line}
	}
	return strings.TrimSpace(data), nil
}

// LineChecksum computes the *XXXX suffix value for data, as the instrument
// would append it. Used by tests and the debug tooling.
func LineChecksum(data string) string {
	table := crc16.MakeTable(crc16.CRC16_ARC)
	return fmt.Sprintf("%04X", crc16.Checksum([]byte(data), table))
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
