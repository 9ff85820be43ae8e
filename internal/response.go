package jobtop

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingData is a 2xx body without a "data" object.
var ErrMissingData = errors.New("response has no data")

// JobInfo is the optional "job" object: node sets as printed by the
// backend, e.g. "cn[001-004]".
type JobInfo struct {
	Nodes     string `json:"nodes"`
	Producers string `json:"producers"`
	Mutes     string `json:"mutes"`
}

// DebugInfo is the optional "debug" object. Metadata values are kept as
// display strings, timers in seconds.
type DebugInfo struct {
	Metadata map[string]string  `json:"metadata"`
	Timers   map[string]float64 `json:"timers"`
}

func (d *DebugInfo) UnmarshalJSON(b []byte) error {
	var raw struct {
		Metadata map[string]any     `json:"metadata"`
		Timers   map[string]float64 `json:"timers"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.Metadata = make(map[string]string, len(raw.Metadata))
	for k, v := range raw.Metadata {
		switch v := v.(type) {
		case string:
			d.Metadata[k] = v
		case nil:
			d.Metadata[k] = ""
		default:
			d.Metadata[k] = fmt.Sprint(v)
		}
	}
	d.Timers = raw.Timers
	return nil
}

// MetricsResponse is the body of GET /metrics/{cluster}/{job}/{period}.
type MetricsResponse struct {
	Data  RawBatch   `json:"data"`
	Job   *JobInfo   `json:"job,omitempty"`
	Debug *DebugInfo `json:"debug,omitempty"`

	hasData bool
}

func (r *MetricsResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data  json.RawMessage `json:"data"`
		Job   *JobInfo        `json:"job"`
		Debug *DebugInfo      `json:"debug"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Job, r.Debug = raw.Job, raw.Debug
	r.Data = nil
	r.hasData = len(raw.Data) > 0 && !bytes.Equal(bytes.TrimSpace(raw.Data), []byte("null"))
	if !r.hasData {
		return nil
	}
	return json.Unmarshal(raw.Data, &r.Data)
}

// HasData reports whether the decoded body carried a non-null "data"
// object. An empty object counts as data.
func (r *MetricsResponse) HasData() bool { return r.hasData }
