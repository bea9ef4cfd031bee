package availability

import (
	"fmt"
	"time"
)

// ResolveAvailability expands weekly recurrence rules into concrete UTC
// intervals inside bound. Wall-clock occurrences are interpreted in the named
// IANA zone using the offset in effect at that local time, with an explicit
// policy for daylight-saving transitions:
//
//   - a local start that does not exist (spring-forward gap) resolves to the
//     first valid instant after the gap, i.e. shifted forward by the gap size;
//   - a local start that occurs twice (fall-back) resolves to the earlier
//     instant;
//   - the occurrence ends exactly its nominal duration after the resolved
//     start.
//
// Intervals are clamped to bound; occurrences wholly outside it are dropped.
// The result is in generation order and is not deduplicated or merged.
func ResolveAvailability(rules []AvailabilityRule, bound Interval, timezone string) ([]Interval, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", timezone, err)
	}

	var out []Interval
	for _, rule := range rules {
		// back up far enough that a long window starting before the range can
		// still reach into it
		backup := rule.Duration/(24*60) + 1
		startLocal := bound.Start.In(loc)
		day := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), 0, 0, 0, 0, loc)
		day = day.AddDate(0, 0, -backup)
		endLocal := bound.End.In(loc)
		lastDay := time.Date(endLocal.Year(), endLocal.Month(), endLocal.Day(), 0, 0, 0, 0, loc)

		for ; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
			if !ruleAppliesOn(rule, day.Weekday()) {
				continue
			}
			for _, tod := range rule.TimesOfDay {
				start := localInstant(day.Year(), day.Month(), day.Day(), tod, loc)
				occ := Interval{Start: start, End: start.Add(time.Duration(rule.Duration) * time.Minute)}
				if clamped, ok := occ.Clamp(bound); ok {
					out = append(out, clamped)
				}
			}
		}
	}
	return out, nil
}

func ruleAppliesOn(rule AvailabilityRule, day time.Weekday) bool {
	for _, d := range rule.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// localInstant converts a local wall-clock time to an absolute instant under
// the DST policy documented on ResolveAvailability. The zone's UTC offsets in
// effect around the target day are probed; each offset yields one candidate
// instant, which is kept only if it round-trips to the requested wall clock.
func localInstant(year int, month time.Month, day int, tod TimeOfDay, loc *time.Location) time.Time {
	utcGuess := time.Date(year, month, day, tod.Hour, tod.Minute, tod.Second, 0, time.UTC)

	var earliest time.Time
	seen := map[int]bool{}
	offBefore := 0
	for i, probe := range []time.Duration{-24 * time.Hour, 0, 24 * time.Hour} {
		_, off := utcGuess.Add(probe).In(loc).Zone()
		if i == 0 {
			offBefore = off
		}
		if seen[off] {
			continue
		}
		seen[off] = true

		cand := utcGuess.Add(-time.Duration(off) * time.Second)
		local := cand.In(loc)
		if local.Year() == year && local.Month() == month && local.Day() == day &&
			local.Hour() == tod.Hour && local.Minute() == tod.Minute && local.Second() == tod.Second {
			if earliest.IsZero() || cand.Before(earliest) {
				earliest = cand
			}
		}
	}
	if !earliest.IsZero() {
		return earliest
	}

	// The wall clock fell into a spring-forward gap: interpreting it with the
	// pre-transition offset lands on the first valid instant after the gap.
	return utcGuess.Add(-time.Duration(offBefore) * time.Second)
}
