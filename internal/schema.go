package jobtop

import (
	"fmt"
	"sort"
)

// SchemaVariant names a channel layout emitted by a backend deployment.
type SchemaVariant string

const (
	SchemaCPU4    SchemaVariant = "cpu4"
	SchemaCPU5Mem SchemaVariant = "cpu5mem"
	SchemaCPU6    SchemaVariant = "cpu6"
	SchemaCPUGPU9 SchemaVariant = "cpu_gpu9"
)

// Scaling describes how a raw channel reading becomes a plotted value.
type Scaling int

const (
	// ScaleNone plots the value as sent.
	ScaleNone Scaling = iota
	// ScaleBytes divides by the schema memory divisor.
	ScaleBytes
	// ScaleCPUTotal is a percentage of the batch-wide maximum of the
	// summed CPU channels of one sample. The 100 ceiling therefore holds
	// for the stacked total, reached by the sample with the largest sum,
	// and not for any single CPU channel.
	ScaleCPUTotal
	// ScaleChannelMax is a percentage of the channel's own batch maximum.
	ScaleChannelMax
)

// Axis selects the y axis a series is drawn against.
type Axis int

const (
	PrimaryAxis   Axis = 1
	SecondaryAxis Axis = 2
)

// Channel maps one position of the raw tuple to a plotted series.
type Channel struct {
	Name     string
	Label    string
	Color    string
	Index    int
	Scaling  Scaling
	Stack    bool
	Axis     Axis
	Hideable bool
}

// Schema describes one variant. Channels are listed in output order, which
// is also the bottom-to-top stacking order.
type Schema struct {
	Variant        SchemaVariant
	Width          int
	Channels       []Channel
	MemoryDivisor  float64
	MemoryUnit     string
	PrimaryLabel   string
	SecondaryLabel string
	PrimaryMax     float64
}

const (
	colorSystem  = "#cc0000"
	colorIOWait  = "#ffcc00"
	colorUser    = "#cc99ff"
	colorSoftIRQ = "#f57900"
	colorIdle    = "#73d216"
	colorPSS     = "#3465a4"
	colorRSS     = "#729fcf"
	colorGPU     = "#4e9a06"
	colorGPUMem  = "#75507b"
)

func cpuChannel(name, label, color string, index int, scaling Scaling) Channel {
	return Channel{Name: name, Label: label, Color: color, Index: index, Scaling: scaling, Stack: true, Axis: PrimaryAxis}
}

func memChannel(name, label, color string, index int, hideable bool) Channel {
	return Channel{Name: name, Label: label, Color: color, Index: index, Scaling: ScaleBytes, Axis: SecondaryAxis, Hideable: hideable}
}

var schemas = map[SchemaVariant]Schema{
	SchemaCPU4: {
		Variant: SchemaCPU4,
		Width:   5,
		Channels: []Channel{
			cpuChannel("cpu_system", "cpu system", colorSystem, 0, ScaleNone),
			cpuChannel("cpu_iowait", "cpu iowait", colorIOWait, 3, ScaleNone),
			cpuChannel("cpu_user", "cpu user", colorUser, 1, ScaleNone),
			cpuChannel("cpu_idle", "cpu idle", colorIdle, 2, ScaleNone),
			memChannel("memory_pss", "memory pss", colorPSS, 4, false),
		},
		MemoryDivisor:  MiB,
		MemoryUnit:     "MiB",
		PrimaryLabel:   "CPU usage (%)",
		SecondaryLabel: "Memory consumption (MiB)",
	},
	SchemaCPU5Mem: {
		Variant: SchemaCPU5Mem,
		Width:   6,
		Channels: []Channel{
			cpuChannel("cpu_system", "cpu system", colorSystem, 0, ScaleNone),
			cpuChannel("cpu_iowait", "cpu iowait", colorIOWait, 1, ScaleNone),
			cpuChannel("cpu_user", "cpu user", colorUser, 2, ScaleNone),
			cpuChannel("cpu_softirq", "cpu softirq", colorSoftIRQ, 3, ScaleNone),
			cpuChannel("cpu_idle", "cpu idle", colorIdle, 4, ScaleNone),
			memChannel("memory_pss", "memory pss", colorPSS, 5, false),
		},
		MemoryDivisor:  MiB,
		MemoryUnit:     "MiB",
		PrimaryLabel:   "CPU usage (%)",
		SecondaryLabel: "Memory consumption (MiB)",
	},
	SchemaCPU6: {
		Variant: SchemaCPU6,
		Width:   7,
		Channels: []Channel{
			cpuChannel("cpu_system", "cpu system", colorSystem, 0, ScaleNone),
			cpuChannel("cpu_iowait", "cpu iowait", colorIOWait, 1, ScaleNone),
			cpuChannel("cpu_user", "cpu user", colorUser, 2, ScaleNone),
			cpuChannel("cpu_softirq", "cpu softirq", colorSoftIRQ, 3, ScaleNone),
			cpuChannel("cpu_idle", "cpu idle", colorIdle, 4, ScaleNone),
			memChannel("memory_pss", "memory pss", colorPSS, 5, false),
			memChannel("memory_rss", "memory rss", colorRSS, 6, false),
		},
		MemoryDivisor:  GiB,
		MemoryUnit:     "GiB",
		PrimaryLabel:   "CPU usage (%)",
		SecondaryLabel: "Memory consumption (GiB)",
	},
	SchemaCPUGPU9: {
		Variant: SchemaCPUGPU9,
		Width:   9,
		Channels: []Channel{
			cpuChannel("cpu_system", "cpu system", colorSystem, 0, ScaleCPUTotal),
			cpuChannel("cpu_iowait", "cpu iowait", colorIOWait, 1, ScaleCPUTotal),
			cpuChannel("cpu_user", "cpu user", colorUser, 2, ScaleCPUTotal),
			cpuChannel("cpu_softirq", "cpu softirq", colorSoftIRQ, 3, ScaleCPUTotal),
			cpuChannel("cpu_idle", "cpu idle", colorIdle, 4, ScaleCPUTotal),
			memChannel("memory_pss", "memory pss", colorPSS, 5, true),
			memChannel("memory_rss", "memory rss", colorRSS, 6, true),
			{Name: "gpu_util", Label: "gpu usage", Color: colorGPU, Index: 7, Scaling: ScaleChannelMax, Axis: PrimaryAxis},
			{Name: "gpu_memory", Label: "gpu memory", Color: colorGPUMem, Index: 8, Scaling: ScaleNone, Axis: PrimaryAxis},
		},
		MemoryDivisor:  GiB,
		MemoryUnit:     "GiB",
		PrimaryLabel:   "CPU/GPU usage & GPU Memory (%)",
		SecondaryLabel: "Memory consumption (GiB)",
		PrimaryMax:     100,
	},
}

// LookupSchema returns the schema for name; an empty name selects cpu4.
func LookupSchema(name string) (Schema, error) {
	if name == "" {
		name = string(SchemaCPU4)
	}
	s, ok := schemas[SchemaVariant(name)]
	if !ok {
		return Schema{}, fmt.Errorf("unknown schema %q (want one of %v)", name, SchemaNames())
	}
	return s, nil
}

// SchemaNames lists the known variants, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for v := range schemas {
		names = append(names, string(v))
	}
	sort.Strings(names)
	return names
}
