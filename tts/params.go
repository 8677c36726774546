package tts

import (
	"fmt"
	"math"
)

// Accepted volume and pitch bounds, inclusive.
const (
	MinVolume = 0.0
	MaxVolume = 1.0
	MinPitch  = 0.5
	MaxPitch  = 2.0
)

// SpeechParams are the parameters applied to the next utterance.
type SpeechParams struct {
	Rate   float64
	Volume float64
	Pitch  float64
}

// DefaultSpeechParams returns the parameters used before any setter runs.
func DefaultSpeechParams() SpeechParams {
	return SpeechParams{Rate: 0.5, Volume: 1.0, Pitch: 1.0}
}

// ValidateVolume checks that v is within [MinVolume, MaxVolume].
func ValidateVolume(v float64) error {
	if !(v >= MinVolume && v <= MaxVolume) {
		return fmt.Errorf("%w: volume %.2f not in [%.1f, %.1f]", ErrParameterOutOfRange, v, MinVolume, MaxVolume)
	}
	return nil
}

// ValidatePitch checks that p is within [MinPitch, MaxPitch].
func ValidatePitch(p float64) error {
	if !(p >= MinPitch && p <= MaxPitch) {
		return fmt.Errorf("%w: pitch %.2f not in [%.1f, %.1f]", ErrParameterOutOfRange, p, MinPitch, MaxPitch)
	}
	return nil
}

// ClampRate limits rate to r. NaN selects the normal rate. Platforms that
// report no range are not clamped.
func (r RateRange) ClampRate(rate float64) float64 {
	if math.IsNaN(rate) {
		return r.Normal
	}
	if r.Max <= r.Min {
		return rate
	}
	return max(r.Min, min(rate, r.Max))
}
