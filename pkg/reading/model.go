package reading

import (
	"strconv"
	"time"
)

// Column order of the daily CSV files. External tooling keys on these
// names, so the order and spelling are part of the on-disk interface.
var Fieldnames = []string{
	"tNow",
	"u_m_s",
	"v_m_s",
	"w_m_s",
	"2dSpeed_m_s",
	"3DSpeed_m_s",
	"Azimuth_deg",
	"Elev_deg",
	"Press_Pa",
	"Temp_C",
	"Hum_RH",
	"SonicTemp_C",
	"Error",
}

// Timestamp layout used in CSV rows and status messages. Local time,
// millisecond resolution.
const TimeLayout = "2006-01-02T15:04:05.000"

// Reading is one validated anemometer sample. Velocities follow the
// meteorological sign convention, azimuth is degrees clockwise from north
// (wind-from), elevation is clamped to the instrument's +/-60 degree range.
// A nonzero Error marks the row unreliable; the value carries the erroneous
// u reading as reported by the instrument.
type Reading struct {
	TNow      time.Time
	U         float64
	V         float64
	W         float64
	Speed2D   float64
	Speed3D   float64
	Azimuth   float64
	Elev      float64
	Press     float64
	Temp      float64
	Hum       float64
	SonicTemp float64
	Error     float64
}

// Flagged reports whether the instrument marked this sample unreliable.
func (r *Reading) Flagged() bool {
	return r.Error != 0
}

// CSVRow renders the reading in Fieldnames order.
func (r *Reading) CSVRow() []string {
	return []string{
		r.TNow.Format(TimeLayout),
		formatValue(r.U),
		formatValue(r.V),
		formatValue(r.W),
		formatValue(r.Speed2D),
		formatValue(r.Speed3D),
		formatValue(r.Azimuth),
		formatValue(r.Elev),
		formatValue(r.Press),
		formatValue(r.Temp),
		formatValue(r.Hum),
		formatValue(r.SonicTemp),
		formatValue(r.Error),
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
