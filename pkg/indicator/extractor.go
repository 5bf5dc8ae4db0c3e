package indicator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

// Extractor binds the backward scanner to each signal's configuration and prompts.
type Extractor struct {
	scanner *Scanner
	logger  *slog.Logger
}

// NewExtractor creates an extractor backed by the given classifier.
func NewExtractor(classifier Classifier, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		scanner: NewScanner(classifier, logger),
		logger:  logger,
	}
}

// Extract infers one signal from the conversation history. The result is
// always within the signal's bounds; an empty history yields the signal's
// unknown code without contacting the classifier.
func (e *Extractor) Extract(ctx context.Context, sig Signal, history []chat.Message) (int, error) {
	spec, ok := SpecFor(sig)
	if !ok {
		return 0, fmt.Errorf("unknown signal %q", sig)
	}
	if len(history) == 0 {
		return spec.Unknown, nil
	}

	value := spec.Clamp(e.scanner.Scan(ctx, spec, PromptFor(sig), history))
	e.logger.Debug("Signal extracted",
		"signal", sig,
		"value", value,
		"label", Label(sig, value),
		"history_len", len(history))
	return value, nil
}

func (e *Extractor) mustExtract(ctx context.Context, sig Signal, history []chat.Message) int {
	v, err := e.Extract(ctx, sig, history)
	if err != nil {
		// unreachable for the built-in signals
		spec, _ := SpecFor(sig)
		return spec.Unknown
	}
	return v
}

// SafetyLevel returns 0 (Peaceful) to 4 (Critical), or 5 when unknown.
func (e *Extractor) SafetyLevel(ctx context.Context, history []chat.Message) int {
	return e.mustExtract(ctx, SignalSafety, history)
}

// TimeOfDay returns 0 (Midnight) to 12 (Night), or 13 when unknown.
func (e *Extractor) TimeOfDay(ctx context.Context, history []chat.Message) int {
	return e.mustExtract(ctx, SignalTimeOfDay, history)
}

// Weather returns 0 (Clear) to 4 (Severe), or 5 for indoors/dark.
func (e *Extractor) Weather(ctx context.Context, history []chat.Message) int {
	return e.mustExtract(ctx, SignalWeather, history)
}

// Terrain returns a terrain category in 0-35; 19 is unknown or obscured.
func (e *Extractor) Terrain(ctx context.Context, history []chat.Message) int {
	return e.mustExtract(ctx, SignalTerrain, history)
}

// Temperature returns 0 (Freezing) to 7 (Scorching), or 8 when unknown.
func (e *Extractor) Temperature(ctx context.Context, history []chat.Message) int {
	return e.mustExtract(ctx, SignalTemperature, history)
}

// WorldState is the combined snapshot of every signal.
type WorldState struct {
	Safety      int `json:"safety"`
	TimeOfDay   int `json:"time_of_day"`
	Weather     int `json:"weather"`
	Terrain     int `json:"terrain"`
	Temperature int `json:"temperature"`
}

// Value returns the code recorded for a signal.
func (ws WorldState) Value(sig Signal) int {
	switch sig {
	case SignalSafety:
		return ws.Safety
	case SignalTimeOfDay:
		return ws.TimeOfDay
	case SignalWeather:
		return ws.Weather
	case SignalTerrain:
		return ws.Terrain
	case SignalTemperature:
		return ws.Temperature
	}
	return 0
}

// Labels maps each signal to the label of its current code.
func (ws WorldState) Labels() map[Signal]string {
	out := make(map[Signal]string, len(Signals))
	for _, sig := range Signals {
		out[sig] = Label(sig, ws.Value(sig))
	}
	return out
}

// Snapshot computes all five signals. The per-signal scans are independent
// of each other and run concurrently; each scan is still sequential.
func (e *Extractor) Snapshot(ctx context.Context, history []chat.Message) WorldState {
	var ws WorldState
	var g errgroup.Group

	g.Go(func() error { ws.Safety = e.SafetyLevel(ctx, history); return nil })
	g.Go(func() error { ws.TimeOfDay = e.TimeOfDay(ctx, history); return nil })
	g.Go(func() error { ws.Weather = e.Weather(ctx, history); return nil })
	g.Go(func() error { ws.Terrain = e.Terrain(ctx, history); return nil })
	g.Go(func() error { ws.Temperature = e.Temperature(ctx, history); return nil })

	_ = g.Wait()
	return ws
}
