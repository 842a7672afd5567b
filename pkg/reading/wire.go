package reading

import (
	"encoding/json"
	"time"
)

// Wire form sent on the UDP data channel and the websocket stream.
type wireReading struct {
	Timestamp string  `json:"timestamp"`
	U         float64 `json:"u_m_s"`
	V         float64 `json:"v_m_s"`
	W         float64 `json:"w_m_s"`
	Speed2D   float64 `json:"speed_2d"`
	Speed3D   float64 `json:"speed_3d"`
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
	Pressure  float64 `json:"pressure"`
	Temp      float64 `json:"temperature"`
	Humidity  float64 `json:"humidity"`
	SonicTemp float64 `json:"sonic_temp"`
	Error     float64 `json:"error"`
}

func (r *Reading) ToJsonBytes() []byte {
	w := wireReading{
		Timestamp: r.TNow.Format(TimeLayout),
		U:         r.U,
		V:         r.V,
		W:         r.W,
		Speed2D:   r.Speed2D,
		Speed3D:   r.Speed3D,
		Azimuth:   r.Azimuth,
		Elevation: r.Elev,
		Pressure:  r.Press,
		Temp:      r.Temp,
		Humidity:  r.Hum,
		SonicTemp: r.SonicTemp,
		Error:     r.Error,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil
	}
	return data
}

// ReadingFromJsonBytes decodes a wire-form datagram.
// Returns nil on malformed input.
func ReadingFromJsonBytes(data []byte) *Reading {
	var w wireReading
	if err := json.Unmarshal(data, &w); err != nil {
		return nil
	}
	t, err := parseTimestamp(w.Timestamp)
	if err != nil {
		t = time.Time{}
	}
	return &Reading{
		TNow:      t,
		U:         w.U,
		V:         w.V,
		W:         w.W,
		Speed2D:   w.Speed2D,
		Speed3D:   w.Speed3D,
		Azimuth:   w.Azimuth,
		Elev:      w.Elevation,
		Press:     w.Pressure,
		Temp:      w.Temp,
		Hum:       w.Humidity,
		SonicTemp: w.SonicTemp,
		Error:     w.Error,
	}
}
