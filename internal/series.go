package jobtop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/prometheus/common/model"
)

// RawSample is one timestamp of the payload with its channel readings.
type RawSample struct {
	Timestamp model.Time
	Values    []float64
}

// RawBatch is the "data" object of a metrics response. Samples keep the
// order the server wrote them in.
type RawBatch []RawSample

// UnmarshalJSON walks the object token by token so key order survives.
func (b *RawBatch) UnmarshalJSON(data []byte) error {
	*b = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("data: expected object, got %v", tok)
	}

	var batch RawBatch
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		ts, err := parseTimestamp(key)
		if err != nil {
			return err
		}
		var values []float64
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("data[%s]: %w", key, err)
		}
		batch = append(batch, RawSample{Timestamp: ts, Values: values})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*b = batch
	return nil
}

func parseTimestamp(key string) (model.Time, error) {
	if ms, err := strconv.ParseInt(key, 10, 64); err == nil {
		return model.Time(ms), nil
	}
	f, err := strconv.ParseFloat(key, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("data: invalid timestamp key %q", key)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("data: timestamp key %q out of range", key)
	}
	return model.Time(int64(f)), nil
}

// Point is one plotted (timestamp, value) pair.
type Point struct {
	Timestamp model.Time `json:"timestamp"`
	Value     float64    `json:"value"`
}

// MetricSeries is one chart trace. A fresh set is built on every poll.
type MetricSeries struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Stack  bool    `json:"stack"`
	Axis   Axis    `json:"axis"`
	Points []Point `json:"points"`
}

// Bounds returns the first and last timestamps over all series.
func Bounds(series []MetricSeries) (from, to model.Time, ok bool) {
	for _, s := range series {
		for _, p := range s.Points {
			if !ok || p.Timestamp < from {
				from = p.Timestamp
			}
			if !ok || p.Timestamp > to {
				to = p.Timestamp
			}
			ok = true
		}
	}
	return from, to, ok
}

// Visibility carries the hide_* flags.
type Visibility struct {
	HidePSS bool
	HideRSS bool
}

// Hidden reports whether ch is switched off. Only hideable channels react
// to the flags.
func (v Visibility) Hidden(ch Channel) bool {
	if !ch.Hideable {
		return false
	}
	switch ch.Name {
	case "memory_pss":
		return v.HidePSS
	case "memory_rss":
		return v.HideRSS
	}
	return false
}
