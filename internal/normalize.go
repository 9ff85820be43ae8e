package jobtop

import (
	"sync"
	"time"

	"github.com/prometheus/common/model"
)

// LocalUTCOffset is the viewer's offset from UTC with the sign convention
// of a browser's getTimezoneOffset: positive west of Greenwich. It is
// computed once per process.
var LocalUTCOffset = sync.OnceValue(func() time.Duration {
	_, east := time.Now().Zone()
	return -time.Duration(east) * time.Second
})

// Normalize turns a raw batch into plotted series: one per schema channel
// not hidden by vis, in schema order, each holding one point per sample.
// Timestamps are shifted by -offset so the axis reads in local time.
//
// Normalize has no side effects and may be called from any goroutine.
func Normalize(batch RawBatch, schema Schema, vis Visibility, offset time.Duration) ([]MetricSeries, error) {
	for _, s := range batch {
		if len(s.Values) != schema.Width {
			return nil, &PayloadParseError{
				Err: &WidthError{Timestamp: s.Timestamp, Got: len(s.Values), Want: schema.Width, Schema: schema.Variant},
			}
		}
	}

	cpuMax, chanMax := scanMaxima(batch, schema)
	shift := model.Time(offset.Milliseconds())

	out := make([]MetricSeries, 0, len(schema.Channels))
	for _, ch := range schema.Channels {
		if vis.Hidden(ch) {
			continue
		}
		points := make([]Point, len(batch))
		for i, s := range batch {
			raw := s.Values[ch.Index]
			var v float64
			switch ch.Scaling {
			case ScaleBytes:
				v = raw / schema.MemoryDivisor
			case ScaleCPUTotal:
				v = percentOf(raw, cpuMax)
			case ScaleChannelMax:
				v = percentOf(raw, chanMax[ch.Index])
			default:
				v = raw
			}
			points[i] = Point{Timestamp: s.Timestamp - shift, Value: v}
		}
		out = append(out, MetricSeries{
			Name:   ch.Name,
			Label:  ch.Label,
			Color:  ch.Color,
			Stack:  ch.Stack,
			Axis:   ch.Axis,
			Points: points,
		})
	}
	return out, nil
}

// scanMaxima is the first pass: the batch maximum of the per-sample CPU
// total and of every ScaleChannelMax channel.
func scanMaxima(batch RawBatch, schema Schema) (float64, map[int]float64) {
	var cpuMax float64
	chanMax := make(map[int]float64)
	for _, s := range batch {
		var total float64
		for _, ch := range schema.Channels {
			v := s.Values[ch.Index]
			switch ch.Scaling {
			case ScaleCPUTotal:
				total += v
			case ScaleChannelMax:
				if v > chanMax[ch.Index] {
					chanMax[ch.Index] = v
				}
			}
		}
		if total > cpuMax {
			cpuMax = total
		}
	}
	return cpuMax, chanMax
}

func percentOf(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max * 100
}
