package availability

import (
	"fmt"
	"time"
)

// SlotOptions controls aligned slot enumeration. All fields are minutes.
type SlotOptions struct {
	// Alignment is the grid step; slot starts land on minute-of-hour offsets
	// congruent to Offset modulo Alignment. Must be at least 1.
	Alignment int
	// Offset shifts the alignment grid; may be negative.
	Offset int
	// Duration is the width of each emitted window.
	Duration int
	// MaxCount caps the number of windows; 0 means unlimited.
	MaxCount int
}

// FindAlignedSlotTimes emits fixed-duration windows on the alignment grid
// inside the given interval. The start is rounded up to a whole minute, then
// shifted forward onto the grid; windows step by Alignment and stop when one
// would overrun the interval end or MaxCount is reached.
//
// A non-positive alignment or a negative duration is a caller bug and panics.
func FindAlignedSlotTimes(iv Interval, opts SlotOptions) []Interval {
	if opts.Alignment < 1 {
		panic(fmt.Sprintf("availability: slot alignment must be >= 1 minute, got %d", opts.Alignment))
	}
	if opts.Duration < 0 {
		panic(fmt.Sprintf("availability: slot duration must be non-negative, got %d", opts.Duration))
	}

	start := iv.Start
	if truncated := start.Truncate(time.Minute); !truncated.Equal(start) {
		start = truncated.Add(time.Minute)
	}

	want := ((opts.Offset % opts.Alignment) + opts.Alignment) % opts.Alignment
	cur := start.Minute() % opts.Alignment
	shift := (want - cur + opts.Alignment) % opts.Alignment
	start = start.Add(time.Duration(shift) * time.Minute)

	dur := time.Duration(opts.Duration) * time.Minute
	step := time.Duration(opts.Alignment) * time.Minute

	var out []Interval
	for !start.Add(dur).After(iv.End) {
		out = append(out, Interval{Start: start, End: start.Add(dur)})
		if opts.MaxCount > 0 && len(out) >= opts.MaxCount {
			break
		}
		start = start.Add(step)
	}
	return out
}

// FindSlotTimes enumerates bookable slots over a set of availability
// intervals. The search reserves buffer-before and buffer-after around the
// core duration and shifts the alignment grid so the buffer lands ahead of
// each aligned start; the buffers are trimmed off before returning, so only
// the bookable core is exposed. maxCount is a global budget consumed
// interval by interval; 0 means unlimited.
func FindSlotTimes(p *SchedulingParameters, intervals []Interval, maxCount int) []Interval {
	before := time.Duration(p.BufferBefore) * time.Minute
	after := time.Duration(p.BufferAfter) * time.Minute

	var out []Interval
	for _, iv := range intervals {
		remaining := 0
		if maxCount > 0 {
			remaining = maxCount - len(out)
			if remaining <= 0 {
				break
			}
		}
		windows := FindAlignedSlotTimes(iv, SlotOptions{
			Alignment: p.AlignmentInterval,
			Offset:    p.AlignmentOffset - p.BufferBefore,
			Duration:  p.DurationMinutes + p.BufferBefore + p.BufferAfter,
			MaxCount:  remaining,
		})
		for _, w := range windows {
			out = append(out, Interval{Start: w.Start.Add(before), End: w.End.Add(-after)})
		}
	}
	return out
}
