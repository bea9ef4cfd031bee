package availability

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether the interval is the zero value.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// Duration returns the absolute length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two intervals share any instant. Adjacent
// intervals (one ends where the other starts) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Clamp intersects the interval with a bounding range. The second return is
// false when the two are disjoint.
func (iv Interval) Clamp(bound Interval) (Interval, bool) {
	out := iv
	if out.Start.Before(bound.Start) {
		out.Start = bound.Start
	}
	if out.End.After(bound.End) {
		out.End = bound.End
	}
	if !out.Start.Before(out.End) {
		return Interval{}, false
	}
	return out, true
}

// Normalize sorts intervals by start and merges any pair that overlap or
// touch. The input slice is not modified. Applying Normalize to an already
// normalized set returns an equal set.
func Normalize(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Subtract removes every block from each availability interval. A block in
// the middle of a window splits it in two, a block over an edge truncates it,
// and a covering block removes it entirely. Chronological order within each
// source interval is preserved; empty availability yields empty output no
// matter the blocks.
func Subtract(availability, blocks []Interval) []Interval {
	var out []Interval
	for _, avail := range availability {
		pieces := []Interval{avail}
		for _, block := range blocks {
			pieces = subtractOne(pieces, block)
		}
		out = append(out, pieces...)
	}
	return out
}

func subtractOne(intervals []Interval, block Interval) []Interval {
	if !block.Start.Before(block.End) {
		return intervals
	}
	var out []Interval
	for _, iv := range intervals {
		if !iv.Overlaps(block) {
			out = append(out, iv)
			continue
		}
		if iv.Start.Before(block.Start) {
			out = append(out, Interval{Start: iv.Start, End: block.Start})
		}
		if block.End.Before(iv.End) {
			out = append(out, Interval{Start: block.End, End: iv.End})
		}
	}
	return out
}
