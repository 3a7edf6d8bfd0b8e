package automation

import (
	"math"
	"sort"

	"github.com/heimdex/heimdex-studio/internal/timeline"
)

// IsAudible reports whether track can be heard. Solo is global: once any
// track in the arrangement is soloed, only soloed tracks are audible, and a
// muted track is never audible.
func IsAudible(arr timeline.Arrangement, track timeline.Track) bool {
	if track.Muted {
		return false
	}
	return !arr.AnySolo() || track.Solo
}

type interval struct {
	start, end float64
}

// activity returns the merged intervals during which target is active.
func activity(target timeline.Track) []interval {
	spans := make([]interval, 0, len(target.Clips))
	for _, clip := range target.Clips {
		if clip.Duration > 0 {
			spans = append(spans, interval{start: clip.StartTime, end: clip.End()})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := spans[:0]
	for _, s := range spans {
		if n := len(merged); n > 0 && s.start <= merged[n-1].end {
			merged[n-1].end = math.Max(merged[n-1].end, s.end)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// duckTarget resolves the trigger track for track's ducking config. A
// disabled config, a dangling or self reference, or an inaudible target all
// leave ducking inactive.
func duckTarget(arr timeline.Arrangement, track timeline.Track) (timeline.Track, bool) {
	cfg := track.Ducking
	if cfg == nil || !cfg.Enabled || cfg.Amount <= 0 || cfg.TargetTrackID == track.ID {
		return timeline.Track{}, false
	}
	target, ok := arr.Track(cfg.TargetTrackID)
	if !ok || !IsAudible(arr, target) {
		return timeline.Track{}, false
	}
	return target, true
}

// DuckingMultiplier is the gain applied to track at t by its ducking config,
// in [1-Amount, 1]. The reduction ramps in over FadeTime from the start of
// each active span of the target and ramps back out over FadeTime after it
// ends, starting from whatever level it had reached.
func DuckingMultiplier(arr timeline.Arrangement, track timeline.Track, t float64) float64 {
	target, ok := duckTarget(arr, track)
	if !ok {
		return 1
	}
	cfg := track.Ducking
	fade := math.Max(0, cfg.FadeTime)

	var progress float64
	for _, span := range activity(target) {
		if t < span.start {
			break
		}
		progress = math.Max(progress, spanProgress(span, t, fade))
	}
	return 1 - clamp01(cfg.Amount)*progress
}

func spanProgress(span interval, t, fade float64) float64 {
	if t < span.end {
		if fade == 0 {
			return 1
		}
		return math.Min(1, (t-span.start)/fade)
	}
	if fade == 0 || t >= span.end+fade {
		return 0
	}
	reached := math.Min(1, (span.end-span.start)/fade)
	return reached * (1 - (t-span.end)/fade)
}

// EffectiveVolumeAt is the gain actually applied to track at t: zero when the
// track is inaudible, otherwise the envelope value scaled by ducking.
func EffectiveVolumeAt(arr timeline.Arrangement, track timeline.Track, t float64) float64 {
	if !IsAudible(arr, track) {
		return 0
	}
	return VolumeAt(track, t) * DuckingMultiplier(arr, track, t)
}
