package indicator

import "fmt"

// Signal names one categorical world-state value inferred from conversation text.
type Signal string

const (
	SignalSafety      Signal = "safety"
	SignalTimeOfDay   Signal = "time_of_day"
	SignalWeather     Signal = "weather"
	SignalTerrain     Signal = "terrain"
	SignalTemperature Signal = "temperature"
)

// Signals lists every signal in display order.
var Signals = []Signal{
	SignalSafety,
	SignalTimeOfDay,
	SignalWeather,
	SignalTerrain,
	SignalTemperature,
}

// Spec is the static scan configuration of a signal.
//
// Low and High bound the codes a classifier may answer with. Unknown is the
// "no information" code; it is always a legal return value and may sit
// inside [Low, High] (terrain) or just past it (safety, time of day).
type Spec struct {
	Signal    Signal
	ChunkSize int
	Low       int
	High      int
	Unknown   int

	// ContinueOnUnknown keeps scanning older chunks when a chunk answers
	// Unknown. When false, Unknown is a terminal answer.
	ContinueOnUnknown bool

	// SingleChunk restricts the scan to the most recent chunk.
	SingleChunk bool
}

// Bounds returns the clamp range of the signal, sentinel included.
func (s Spec) Bounds() (int, int) {
	return min(s.Low, s.Unknown), max(s.High, s.Unknown)
}

// Clamp forces a raw classifier value into the signal's bounds.
func (s Spec) Clamp(v int) int {
	lo, hi := s.Bounds()
	return max(lo, min(hi, v))
}

var specs = map[Signal]Spec{
	SignalSafety: {
		Signal:      SignalSafety,
		ChunkSize:   6,
		Low:         0,
		High:        4,
		Unknown:     5,
		SingleChunk: true,
	},
	SignalTimeOfDay: {
		Signal:      SignalTimeOfDay,
		ChunkSize:   12,
		Low:         0,
		High:        12,
		Unknown:     13,
		SingleChunk: true,
	},
	SignalWeather: {
		Signal:    SignalWeather,
		ChunkSize: 12,
		Low:       0,
		High:      4,
		Unknown:   5,
	},
	SignalTerrain: {
		Signal:    SignalTerrain,
		ChunkSize: 12,
		Low:       0,
		High:      35,
		Unknown:   19,
	},
	SignalTemperature: {
		Signal:            SignalTemperature,
		ChunkSize:         12,
		Low:               0,
		High:              7,
		Unknown:           8,
		ContinueOnUnknown: true,
	},
}

// SpecFor returns the scan configuration of a signal.
func SpecFor(sig Signal) (Spec, bool) {
	s, ok := specs[sig]
	return s, ok
}

// ParseSignal resolves a signal by name.
func ParseSignal(name string) (Signal, error) {
	sig := Signal(name)
	if _, ok := specs[sig]; !ok {
		return "", fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

var labels = map[Signal][]string{
	SignalSafety: {
		"Peaceful",
		"Cautious",
		"Wary",
		"Imminent Danger",
		"Critical",
		"Unknown",
	},
	SignalTimeOfDay: {
		"Midnight",
		"Late Night",
		"Pre-Dawn",
		"Dawn",
		"Early Morning",
		"Morning",
		"Late Morning",
		"Noon",
		"Afternoon",
		"Late Afternoon",
		"Dusk",
		"Evening",
		"Night",
		"Unknown",
	},
	SignalWeather: {
		"Clear",
		"Overcast",
		"Rain or Fog",
		"Storm or Snow",
		"Severe Weather",
		"Indoors or Dark",
	},
	SignalTerrain: {
		"Urban Street",
		"Urban Interior",
		"Village",
		"Farmland",
		"Grassland",
		"Forest",
		"Jungle",
		"Hills",
		"Mountains",
		"High Peaks",
		"Sand Desert",
		"Rocky Desert",
		"Tundra",
		"Glacier",
		"Swamp",
		"Riverbank",
		"Lakeshore",
		"Coast",
		"Open Sea",
		"Unknown or Obscured",
		"Cave",
		"Underground",
		"Ruins",
		"Road",
		"Bridge",
		"Fortress",
		"Temple",
		"Marketplace",
		"Harbor",
		"Battlefield",
		"Camp",
		"Island",
		"Canyon",
		"Volcanic",
		"Savanna",
		"Steppe",
	},
	SignalTemperature: {
		"Freezing",
		"Very Cold",
		"Cold",
		"Cool",
		"Mild",
		"Warm",
		"Hot",
		"Scorching",
		"Unknown",
	},
}

// Label returns the human-readable category of a signal code.
func Label(sig Signal, code int) string {
	l := labels[sig]
	if code < 0 || code >= len(l) {
		return ""
	}
	return l[code]
}
