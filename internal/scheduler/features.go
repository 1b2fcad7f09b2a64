package scheduler

import (
	"time"

	"clinic-scheduling/internal/models"
)

// Feature axes, in order: duration fit, priority, severity, preference
// overlap. All normalized to [0, 1]. Vectors are derived per batch and
// never persisted.
const featureDim = 4

type FeatureVector [featureDim]float64

// batchStats holds the observed priority and severity ranges of one
// batch, used for min-max normalization.
type batchStats struct {
	minPriority, maxPriority float64
	minSeverity, maxSeverity float64
}

func newBatchStats(requests []ProcedureRequest) batchStats {
	var s batchStats
	for i, r := range requests {
		p, sev := float64(r.Priority), float64(r.Severity)
		if i == 0 {
			s.minPriority, s.maxPriority = p, p
			s.minSeverity, s.maxSeverity = sev, sev
			continue
		}
		if p < s.minPriority {
			s.minPriority = p
		}
		if p > s.maxPriority {
			s.maxPriority = p
		}
		if sev < s.minSeverity {
			s.minSeverity = sev
		}
		if sev > s.maxSeverity {
			s.maxSeverity = sev
		}
	}
	return s
}

func normalize(v, lo, hi float64) float64 {
	if hi > lo {
		return (v - lo) / (hi - lo)
	}
	// Degenerate range: the whole batch shares one value. Full signal
	// when positive, none when the batch sits at zero.
	if hi > 0 {
		return 1
	}
	return 0
}

// durationFit is 1.0 when slot and request durations match exactly and
// shrinks as the mismatch grows. Slots too short for the request are
// hard-excluded by the constraint filter before this is ever used.
func durationFit(requestMinutes int, slot Slot) float64 {
	slotMinutes := slot.DurationMinutes()
	if requestMinutes <= 0 || slotMinutes <= 0 {
		return 0
	}
	if requestMinutes < slotMinutes {
		return float64(requestMinutes) / float64(slotMinutes)
	}
	return float64(slotMinutes) / float64(requestMinutes)
}

// preferenceOverlap returns the fraction of the slot span that falls
// inside any preferred window. Absence of preference reads as full
// satisfaction, not a penalty. Windows are assumed non-overlapping; the
// result is clamped to 1 regardless.
func preferenceOverlap(windows []models.TimeWindow, slot Slot) float64 {
	if len(windows) == 0 {
		return 1
	}
	span := slot.End.Sub(slot.Start)
	if span <= 0 {
		return 0
	}
	var covered time.Duration
	for _, w := range windows {
		start := slot.Start
		if w.Start.After(start) {
			start = w.Start
		}
		end := slot.End
		if w.End.Before(end) {
			end = w.End
		}
		if end.After(start) {
			covered += end.Sub(start)
		}
	}
	if covered > span {
		covered = span
	}
	return float64(covered) / float64(span)
}

// encodePair produces the request's ideal point and the slot's measured
// values on the shared axes, both scaled axis-wise by the batch weights.
// Only invoked on pairs that passed the constraint filter.
func encodePair(req ProcedureRequest, slot Slot, stats batchStats, w Weights) (FeatureVector, FeatureVector) {
	pn := normalize(float64(req.Priority), stats.minPriority, stats.maxPriority)
	sn := normalize(float64(req.Severity), stats.minSeverity, stats.maxSeverity)

	// Duration and utilization weights both act on the duration-fit axis:
	// on a per-slot basis tight packing and tight fit are the same signal.
	durWeight := w.Duration * w.Utilization

	reqVec := FeatureVector{
		durWeight * 1.0,
		w.Priority * pn,
		sn,
		w.Preference * 1.0,
	}
	slotVec := FeatureVector{
		durWeight * durationFit(req.DurationMinutes, slot),
		w.Priority * pn,
		sn,
		w.Preference * preferenceOverlap(req.Preferred, slot),
	}
	return reqVec, slotVec
}
