// Package automation computes time-varying track volume: keyframe
// interpolation, mute/solo audibility and sidechain ducking.
package automation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/heimdex/heimdex-studio/internal/timeline"
)

var (
	ErrInvalidKeyframe = errors.New("invalid keyframe")
	ErrKeyframeIndex   = errors.New("keyframe index out of range")
)

// Normalize returns a sorted copy of env with unique times. When several
// keyframes share a time the last one in input order wins. Volumes are clamped
// to [0,1] and negative times to 0.
func Normalize(env []timeline.VolumeKeyframe) []timeline.VolumeKeyframe {
	if len(env) == 0 {
		return nil
	}

	out := make([]timeline.VolumeKeyframe, len(env))
	for i, kf := range env {
		out[i] = timeline.VolumeKeyframe{Time: math.Max(0, kf.Time), Volume: clamp01(kf.Volume)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })

	dedup := out[:0]
	for _, kf := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time == kf.Time {
			dedup[n-1] = kf
			continue
		}
		dedup = append(dedup, kf)
	}
	return dedup
}

// AddKeyframe inserts a keyframe into a copy of env and re-sorts it. A
// keyframe already at time is replaced.
func AddKeyframe(env []timeline.VolumeKeyframe, time, volume float64) ([]timeline.VolumeKeyframe, error) {
	if time < 0 || math.IsNaN(time) || math.IsInf(time, 0) {
		return nil, fmt.Errorf("%w: time %v", ErrInvalidKeyframe, time)
	}
	if volume < 0 || volume > 1 || math.IsNaN(volume) {
		return nil, fmt.Errorf("%w: volume %v", ErrInvalidKeyframe, volume)
	}

	out := make([]timeline.VolumeKeyframe, 0, len(env)+1)
	out = append(out, env...)
	out = append(out, timeline.VolumeKeyframe{Time: time, Volume: volume})
	return Normalize(out), nil
}

// RemoveKeyframe removes the keyframe at index of the sorted envelope.
func RemoveKeyframe(env []timeline.VolumeKeyframe, index int) ([]timeline.VolumeKeyframe, error) {
	sorted := Normalize(env)
	if index < 0 || index >= len(sorted) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrKeyframeIndex, index, len(sorted))
	}
	out := make([]timeline.VolumeKeyframe, 0, len(sorted)-1)
	out = append(out, sorted[:index]...)
	out = append(out, sorted[index+1:]...)
	return out, nil
}

// VolumeAt evaluates the track envelope at t. An empty envelope yields the
// static track volume; outside the keyframe range the nearest keyframe value is
// held flat.
func VolumeAt(track timeline.Track, t float64) float64 {
	env := track.VolumeEnvelope
	if !timeline.EnvelopeIsSorted(track) {
		env = Normalize(env)
	}
	if len(env) == 0 {
		return track.Volume
	}

	// first keyframe strictly after t
	next := sort.Search(len(env), func(i int) bool { return env[i].Time > t })

	switch {
	case next == 0:
		return env[0].Volume
	case next == len(env):
		return env[len(env)-1].Volume
	}

	before, after := env[next-1], env[next]
	ratio := (t - before.Time) / (after.Time - before.Time)
	return before.Volume + (after.Volume-before.Volume)*ratio
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
